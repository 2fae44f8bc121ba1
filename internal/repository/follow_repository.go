package repository

import (
	"context"
	"errors"

	"go-blog/internal/model"
	"go-blog/pkg/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository() *FollowRepository {
	return &FollowRepository{db: db.DB}
}

// 创建关注关系。唯一索引冲突 (已关注或并发重复插入) 视为成功, created 为 false
func (r *FollowRepository) Create(ctx context.Context, userID, authorID uint) (created bool, err error) {
	follow := &model.Follow{UserID: userID, AuthorID: authorID}
	err = r.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// 不存在返回 nil, nil
func (r *FollowRepository) Find(ctx context.Context, userID, authorID uint) (*model.Follow, error) {
	var follow model.Follow
	err := r.db.WithContext(ctx).Where("user_id = ? AND author_id = ?", userID, authorID).First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &follow, nil
}

func (r *FollowRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	n, err := r.CountPair(ctx, userID, authorID)
	return n > 0, err
}

func (r *FollowRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Follow{}, id).Error
}

func (r *FollowRepository) CountPair(ctx context.Context, userID, authorID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&n).Error
	return n, err
}

// 作者的所有关注者ID, 用于推送新帖通知
func (r *FollowRepository) FollowerIDs(ctx context.Context, authorID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.Follow{}).
		Where("author_id = ?", authorID).
		Pluck("user_id", &ids).Error
	return ids, err
}
