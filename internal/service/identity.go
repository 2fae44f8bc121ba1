package service

// Identity 是请求的操作者, UserID 为 0 表示匿名访客
type Identity struct {
	UserID   uint
	Username string
}

var Anonymous = Identity{}

func (i Identity) IsAuthenticated() bool {
	return i.UserID != 0
}
