package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-blog/internal/middleware"
	"go-blog/internal/service"
	"go-blog/internal/storage"
	"go-blog/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps 是路由需要的全部服务
type Deps struct {
	Feeds   *service.FeedService
	Posts   *service.PostService
	Follows *service.FollowService
	Auth    *service.AuthService

	Images    storage.Store
	PageCache cache.Store
	// 为 nil 时不注册 /ws/follow/
	Hub  ConnectionRegistry
	Ping func(ctx context.Context) error

	CookieName    string
	CookieTTL     time.Duration
	IndexCacheTTL time.Duration
	MaxUploadSize int64
}

func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := NewTemplates(d.Images)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if d.IndexCacheTTL <= 0 {
		d.IndexCacheTTL = 20 * time.Second
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(middleware.Recovery(renderServerError), middleware.GinZapLogger(), middleware.Metrics())
	r.Use(middleware.Identify(d.Auth, d.CookieName))

	feeds := NewFeedHandler(d.Feeds)
	posts := NewPostHandler(d.Posts, d.Feeds, d.MaxUploadSize)
	follows := NewFollowHandler(d.Follows)
	auth := NewAuthHandler(d.Auth, d.CookieName, d.CookieTTL)
	pages := NewPageHandler(d.Ping)

	// 公开路由
	r.GET("/", middleware.CachePage(d.PageCache, d.IndexCacheTTL), feeds.Index)
	r.GET("/group/:slug/", feeds.GroupPosts)
	r.GET("/profile/:username/", feeds.Profile)
	r.GET("/posts/:post_id/", feeds.PostDetail)

	r.GET("/auth/signup/", auth.SignupForm)
	r.POST("/auth/signup/", auth.Signup)
	r.GET("/auth/login/", auth.LoginForm)
	r.POST("/auth/login/", auth.Login)
	r.GET("/auth/logout/", auth.Logout)
	r.POST("/auth/logout/", auth.Logout)

	r.GET("/about/author/", pages.AboutAuthor)
	r.GET("/about/tech/", pages.AboutTech)
	r.GET("/healthz", pages.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if local, ok := d.Images.(*storage.LocalStore); ok {
		media := r.Group(strings.TrimRight(local.URLPrefix(), "/"), middleware.NoSniff())
		media.Static("/", local.BasePath())
	}

	// 需要登录的路由
	protected := r.Group("/", middleware.LoginRequired())
	{
		protected.GET("/create/", posts.CreateForm)
		protected.POST("/create/", posts.Create)
		protected.GET("/posts/:post_id/edit/", posts.EditForm)
		protected.POST("/posts/:post_id/edit/", posts.Edit)
		protected.POST("/posts/:post_id/comment/", posts.AddComment)

		protected.GET("/follow/", feeds.FollowIndex)
		protected.GET("/profile/:username/follow/", follows.Follow)
		protected.POST("/profile/:username/follow/", follows.Follow)
		protected.GET("/profile/:username/unfollow/", follows.Unfollow)
		protected.POST("/profile/:username/unfollow/", follows.Unfollow)

		if d.Hub != nil {
			protected.GET("/ws/follow/", NewWSHandler(d.Hub).HandleConnection)
		}
	}

	r.NoRoute(pages.NotFound)
	return r, nil
}
