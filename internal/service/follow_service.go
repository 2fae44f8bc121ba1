package service

import (
	"context"
	"fmt"

	"go-blog/internal/model"
	"go-blog/pkg/logger"
	"go-blog/pkg/metrics"

	"go.uber.org/zap"
)

type FollowService struct {
	users   UserStore
	follows FollowStore
}

func NewFollowService(users UserStore, follows FollowStore) *FollowService {
	return &FollowService{users: users, follows: follows}
}

// 重复关注不报错也不会产生第二条记录
func (s *FollowService) Follow(ctx context.Context, id Identity, username string) (err error) {
	defer func() { metrics.ObserveMutation("follow", err) }()

	author, err := s.findAuthor(ctx, username)
	if err != nil {
		return err
	}
	if !id.IsAuthenticated() {
		return ErrUnauthorized
	}
	if !CanFollow(id, author) {
		return ErrSelfFollow
	}

	created, err := s.follows.Create(ctx, id.UserID, author.ID)
	if err != nil {
		return fmt.Errorf("create follow: %w", err)
	}
	if created {
		logger.L.Info("User followed author", zap.Uint("userID", id.UserID), zap.Uint("authorID", author.ID))
	}
	return nil
}

// 关注关系不存在时返回 ErrNotFound
func (s *FollowService) Unfollow(ctx context.Context, id Identity, username string) (err error) {
	defer func() { metrics.ObserveMutation("unfollow", err) }()

	author, err := s.findAuthor(ctx, username)
	if err != nil {
		return err
	}
	if !id.IsAuthenticated() {
		return ErrUnauthorized
	}

	follow, err := s.follows.Find(ctx, id.UserID, author.ID)
	if err != nil {
		return fmt.Errorf("find follow: %w", err)
	}
	if follow == nil {
		return ErrNotFound
	}
	if err := s.follows.Delete(ctx, follow.ID); err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	logger.L.Info("User unfollowed author", zap.Uint("userID", id.UserID), zap.Uint("authorID", author.ID))
	return nil
}

func (s *FollowService) findAuthor(ctx context.Context, username string) (*model.User, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	if author == nil {
		return nil, ErrNotFound
	}
	return author, nil
}
