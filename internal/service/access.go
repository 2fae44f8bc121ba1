package service

import "go-blog/internal/model"

// 权限判断, 都是无状态的纯函数

func CanCreatePost(id Identity) bool {
	return id.IsAuthenticated()
}

func CanEditPost(id Identity, post *model.Post) bool {
	return id.IsAuthenticated() && post != nil && post.AuthorID == id.UserID
}

func CanComment(id Identity) bool {
	return id.IsAuthenticated()
}

func CanFollow(id Identity, author *model.User) bool {
	return id.IsAuthenticated() && author != nil && author.ID != id.UserID
}
