package service

import (
	"context"

	"go-blog/internal/model"
	"go-blog/internal/repository"
)

// 服务依赖的存储接口, 由 repository 包实现

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type GroupStore interface {
	FindByID(ctx context.Context, id uint) (*model.Group, error)
	FindBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
}

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id uint) (*model.Post, error)
	Update(ctx context.Context, post *model.Post, columns ...string) error
	Count(ctx context.Context, filter repository.PostFilter) (int64, error)
	List(ctx context.Context, filter repository.PostFilter, offset, limit int) ([]model.Post, error)
}

type CommentStore interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID uint) ([]model.Comment, error)
}

type FollowStore interface {
	Create(ctx context.Context, userID, authorID uint) (bool, error)
	Find(ctx context.Context, userID, authorID uint) (*model.Follow, error)
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	Delete(ctx context.Context, id uint) error
	FollowerIDs(ctx context.Context, authorID uint) ([]uint, error)
}

var (
	_ UserStore    = (*repository.UserRepository)(nil)
	_ GroupStore   = (*repository.GroupRepository)(nil)
	_ PostStore    = (*repository.PostRepository)(nil)
	_ CommentStore = (*repository.CommentRepository)(nil)
	_ FollowStore  = (*repository.FollowRepository)(nil)
)
