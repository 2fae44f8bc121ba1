package model

import "time"

type Post struct {
	ID       uint   `gorm:"primaryKey"`
	Text     string `gorm:"type:text;not null"`
	AuthorID uint   `gorm:"not null;index"`
	GroupID  *uint  `gorm:"index"`
	// 存储中的对象 key, 为空表示没有图片
	Image     string    `gorm:"type:varchar(255)"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Author User   `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Group  *Group `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
}

const postPreviewLen = 15

// 前15个字符
func (p Post) String() string {
	r := []rune(p.Text)
	if len(r) > postPreviewLen {
		return string(r[:postPreviewLen])
	}
	return p.Text
}
