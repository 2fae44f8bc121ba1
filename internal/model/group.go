package model

import "time"

// 帖子所属的主题社区, slug 创建后不可修改
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"type:varchar(200);not null"`
	Slug        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_group_slug"`
	Description string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (g Group) String() string {
	return g.Title
}
