package model

import "time"

// UserID 关注 AuthorID, (UserID, AuthorID) 唯一
type Follow struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_follow_pair"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_follow_pair;index"`
	CreatedAt time.Time

	User   User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Author User `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
