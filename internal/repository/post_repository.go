package repository

import (
	"context"
	"errors"

	"go-blog/internal/model"
	"go-blog/pkg/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter 选择帖子流的过滤条件, 零值表示全部帖子
type PostFilter struct {
	GroupID  *uint
	AuthorID *uint
	// 只取该用户关注的作者的帖子
	FollowerID *uint
}

func (f PostFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.GroupID != nil {
		tx = tx.Where("posts.group_id = ?", *f.GroupID)
	}
	if f.AuthorID != nil {
		tx = tx.Where("posts.author_id = ?", *f.AuthorID)
	}
	if f.FollowerID != nil {
		tx = tx.Joins("JOIN follows ON follows.author_id = posts.author_id").
			Where("follows.user_id = ?", *f.FollowerID)
	}
	return tx
}

// 新的在前, 同一时间按主键倒序
const postOrder = "posts.created_at DESC, posts.id DESC"

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository() *PostRepository {
	return &PostRepository{db: db.DB}
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error
}

// 预加载作者和分组, 不存在返回 nil, nil
func (r *PostRepository) FindByID(ctx context.Context, id uint) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).Preload("Author").Preload("Group").First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// 只更新指定的列 (text / group_id / image), 零值也会写入
func (r *PostRepository) Update(ctx context.Context, post *model.Post, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	columns = append(columns, "updated_at")
	return r.db.WithContext(ctx).Model(post).Select(columns).Omit(clause.Associations).Updates(post).Error
}

func (r *PostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Post{}, id).Error
}

func (r *PostRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var n int64
	err := filter.apply(r.db.WithContext(ctx).Model(&model.Post{})).Count(&n).Error
	return n, err
}

func (r *PostRepository) List(ctx context.Context, filter PostFilter, offset, limit int) ([]model.Post, error) {
	var posts []model.Post
	err := filter.apply(r.db.WithContext(ctx).Model(&model.Post{})).
		Select("posts.*").
		Preload("Author").
		Preload("Group").
		Order(postOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	return posts, err
}
