package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-blog/internal/event"
	"go-blog/internal/model"
	"go-blog/internal/storage"
	"go-blog/pkg/logger"
	"go-blog/pkg/metrics"

	"go.uber.org/zap"
)

// PostService 处理帖子和评论的创建与修改
type PostService struct {
	groups    GroupStore
	posts     PostStore
	comments  CommentStore
	images    storage.Store
	publisher event.Publisher
}

func NewPostService(groups GroupStore, posts PostStore, comments CommentStore, images storage.Store, publisher event.Publisher) *PostService {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &PostService{
		groups:    groups,
		posts:     posts,
		comments:  comments,
		images:    images,
		publisher: publisher,
	}
}

func (s *PostService) CreatePost(ctx context.Context, id Identity, in CreatePostInput) (post *model.Post, err error) {
	defer func() { metrics.ObserveMutation("create_post", err) }()

	if !CanCreatePost(id) {
		return nil, ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	group, err := s.resolveGroup(ctx, in.GroupID)
	if err != nil {
		return nil, err
	}

	post = &model.Post{
		Text:     in.Text,
		AuthorID: id.UserID,
		GroupID:  in.GroupID,
	}
	if in.Image != nil {
		key, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.discardImage(ctx, post.Image)
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = model.User{ID: id.UserID, Username: id.Username}
	post.Group = group

	logger.L.Info("Post created", zap.Uint("postID", post.ID), zap.Uint("authorID", id.UserID))
	s.publish(ctx, post)
	return post, nil
}

// PostForEdit 返回可由 id 编辑的帖子, 编辑表单和 EditPost 共用同一套检查
func (s *PostService) PostForEdit(ctx context.Context, id Identity, postID uint) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("find post %d: %w", postID, err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if !id.IsAuthenticated() {
		return nil, ErrUnauthorized
	}
	if !CanEditPost(id, post) {
		logger.L.Debug("Edit by non-author redirected", zap.Uint("postID", postID), zap.Uint("userID", id.UserID))
		return nil, ErrRedirectToDetail
	}
	return post, nil
}

// 非作者返回 ErrRedirectToDetail, 帖子不变
func (s *PostService) EditPost(ctx context.Context, id Identity, postID uint, in EditPostInput) (post *model.Post, err error) {
	defer func() { metrics.ObserveMutation("edit_post", err) }()

	post, err = s.PostForEdit(ctx, id, postID)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var columns []string
	if in.Text != nil {
		post.Text = *in.Text
		columns = append(columns, "text")
	}
	switch {
	case in.ClearGroup:
		post.GroupID = nil
		post.Group = nil
		columns = append(columns, "group_id")
	case in.GroupID != nil:
		group, err := s.resolveGroup(ctx, in.GroupID)
		if err != nil {
			return nil, err
		}
		post.GroupID = in.GroupID
		post.Group = group
		columns = append(columns, "group_id")
	}
	oldImage := ""
	if in.Image != nil {
		key, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		oldImage = post.Image
		post.Image = key
		columns = append(columns, "image")
	}

	if err := s.posts.Update(ctx, post, columns...); err != nil {
		if in.Image != nil {
			s.discardImage(ctx, post.Image)
		}
		return nil, fmt.Errorf("update post %d: %w", postID, err)
	}
	s.discardImage(ctx, oldImage)
	return post, nil
}

func (s *PostService) AddComment(ctx context.Context, id Identity, postID uint, in CommentInput) (comment *model.Comment, err error) {
	defer func() { metrics.ObserveMutation("add_comment", err) }()

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("find post %d: %w", postID, err)
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if !CanComment(id) {
		return nil, ErrUnauthorized
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	comment = &model.Comment{PostID: post.ID, AuthorID: id.UserID, Text: in.Text}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// 未选择分组返回 nil; 分组不存在是校验错误
func (s *PostService) resolveGroup(ctx context.Context, groupID *uint) (*model.Group, error) {
	if groupID == nil {
		return nil, nil
	}
	group, err := s.groups.FindByID(ctx, *groupID)
	if err != nil {
		return nil, fmt.Errorf("find group %d: %w", *groupID, err)
	}
	if group == nil {
		ve := &ValidationError{}
		ve.Add("group", msgInvalidGroup)
		return nil, ve
	}
	return group, nil
}

func (s *PostService) storeImage(ctx context.Context, img *storage.Upload) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	key, err := s.images.Save(ctx, img)
	if errors.Is(err, storage.ErrNotImage) {
		ve := &ValidationError{}
		ve.Add("image", msgInvalidImage)
		return "", ve
	}
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

func (s *PostService) discardImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.L.Warn("Failed to remove image", zap.String("key", key), zap.Error(err))
	}
}

// 通知失败不影响发帖
func (s *PostService) publish(ctx context.Context, post *model.Post) {
	e := event.PostPublished{
		PostID:         post.ID,
		AuthorID:       post.AuthorID,
		AuthorUsername: post.Author.Username,
		Preview:        strings.TrimSpace(post.String()),
		CreatedAt:      post.CreatedAt,
	}
	if post.Group != nil {
		e.GroupSlug = post.Group.Slug
	}
	if err := s.publisher.PublishPost(ctx, e); err != nil {
		logger.L.Warn("Failed to publish post event", zap.Uint("postID", post.ID), zap.Error(err))
	}
}
