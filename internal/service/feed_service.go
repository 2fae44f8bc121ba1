package service

import (
	"context"
	"fmt"

	"go-blog/internal/model"
	"go-blog/internal/repository"
	"go-blog/pkg/paginator"
)

type PostPage = paginator.Page[model.Post]

type GroupFeed struct {
	Group *model.Group
	Page  PostPage
}

type ProfileFeed struct {
	Author      *model.User
	Viewer      Identity
	PostCount   int64
	Page        PostPage
	IsFollowing bool
}

type PostDetail struct {
	Post            *model.Post
	AuthorPostCount int64
	Comments        []model.Comment
}

// FeedService 组装四种帖子流和帖子详情, 只读
type FeedService struct {
	users    UserStore
	groups   GroupStore
	posts    PostStore
	comments CommentStore
	follows  FollowStore
	pageSize int
}

func NewFeedService(users UserStore, groups GroupStore, posts PostStore, comments CommentStore, follows FollowStore, pageSize int) *FeedService {
	if pageSize <= 0 {
		pageSize = paginator.PageSize
	}
	return &FeedService{
		users:    users,
		groups:   groups,
		posts:    posts,
		comments: comments,
		follows:  follows,
		pageSize: pageSize,
	}
}

// 所有帖子流共用: 过滤 -> 排序 -> 分页
func (s *FeedService) page(ctx context.Context, filter repository.PostFilter, rawPage string) (PostPage, int64, error) {
	count, err := s.posts.Count(ctx, filter)
	if err != nil {
		return PostPage{}, 0, fmt.Errorf("count posts: %w", err)
	}
	w := paginator.Resolve(count, s.pageSize, rawPage)
	if count == 0 {
		return paginator.New[model.Post](nil, w, 0), 0, nil
	}
	posts, err := s.posts.List(ctx, filter, w.Offset, w.Limit)
	if err != nil {
		return PostPage{}, 0, fmt.Errorf("list posts: %w", err)
	}
	return paginator.New(posts, w, count), count, nil
}

func (s *FeedService) Index(ctx context.Context, rawPage string) (PostPage, error) {
	p, _, err := s.page(ctx, repository.PostFilter{}, rawPage)
	return p, err
}

func (s *FeedService) GroupFeed(ctx context.Context, slug, rawPage string) (*GroupFeed, error) {
	group, err := s.groups.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find group %q: %w", slug, err)
	}
	if group == nil {
		return nil, ErrNotFound
	}
	p, _, err := s.page(ctx, repository.PostFilter{GroupID: &group.ID}, rawPage)
	if err != nil {
		return nil, err
	}
	return &GroupFeed{Group: group, Page: p}, nil
}

// 匿名访客的 IsFollowing 总是 false
func (s *FeedService) ProfileFeed(ctx context.Context, viewer Identity, username, rawPage string) (*ProfileFeed, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	if author == nil {
		return nil, ErrNotFound
	}

	p, count, err := s.page(ctx, repository.PostFilter{AuthorID: &author.ID}, rawPage)
	if err != nil {
		return nil, err
	}

	following := false
	if viewer.IsAuthenticated() {
		following, err = s.follows.Exists(ctx, viewer.UserID, author.ID)
		if err != nil {
			return nil, fmt.Errorf("check follow: %w", err)
		}
	}

	return &ProfileFeed{
		Author:      author,
		Viewer:      viewer,
		PostCount:   count,
		Page:        p,
		IsFollowing: following,
	}, nil
}

// 关注作者的帖子, 没有关注任何人时返回空页
func (s *FeedService) FollowFeed(ctx context.Context, viewer Identity, rawPage string) (PostPage, error) {
	if !viewer.IsAuthenticated() {
		return PostPage{}, ErrUnauthorized
	}
	p, _, err := s.page(ctx, repository.PostFilter{FollowerID: &viewer.UserID}, rawPage)
	return p, err
}

func (s *FeedService) PostDetail(ctx context.Context, postID uint) (*PostDetail, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("find post %d: %w", postID, err)
	}
	if post == nil {
		return nil, ErrNotFound
	}

	count, err := s.posts.Count(ctx, repository.PostFilter{AuthorID: &post.AuthorID})
	if err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return &PostDetail{Post: post, AuthorPostCount: count, Comments: comments}, nil
}

// 表单的分组下拉框
func (s *FeedService) Groups(ctx context.Context) ([]model.Group, error) {
	return s.groups.List(ctx)
}
