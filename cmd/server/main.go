package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-blog/internal/api"
	"go-blog/internal/repository"
	"go-blog/internal/service"
	"go-blog/internal/storage"
	"go-blog/internal/websocket"
	"go-blog/pkg/cache"
	"go-blog/pkg/config"
	"go-blog/pkg/db"
	"go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	if err := config.Init(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.ProductionMode); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库连接
	if err := db.InitDB(); err != nil {
		logger.L.Fatal("Failed to initialize database", zap.Error(err))
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		logger.L.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// Redis 不可用时退回进程内缓存
	var pageCache cache.Store
	if redisStore, err := cache.NewRedisStore(ctx, cfg.Redis); err != nil {
		logger.L.Warn("Redis unavailable, using in-memory page cache", zap.Error(err))
		pageCache = cache.NewMemoryStore()
	} else {
		defer redisStore.Close()
		pageCache = redisStore
	}

	images, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		logger.L.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	hub, err := websocket.CreateHub(cfg)
	if err != nil {
		logger.L.Fatal("Failed to create hub", zap.Error(err))
	}
	go hub.Run(ctx)
	defer hub.Close()

	users := repository.NewUserRepository()
	groups := repository.NewGroupRepository()
	posts := repository.NewPostRepository()
	comments := repository.NewCommentRepository()
	follows := repository.NewFollowRepository()

	notifier := service.NewNotificationService(follows, hub)
	router, err := api.NewRouter(api.Deps{
		Feeds:         service.NewFeedService(users, groups, posts, comments, follows, cfg.Server.PageSize),
		Posts:         service.NewPostService(groups, posts, comments, images, notifier),
		Follows:       service.NewFollowService(users, follows),
		Auth:          service.NewAuthService(users),
		Images:        images,
		PageCache:     pageCache,
		Hub:           hub,
		Ping:          sqlDB.PingContext,
		CookieName:    cfg.JWT.CookieName,
		CookieTTL:     cfg.JWT.Expiration,
		IndexCacheTTL: cfg.Server.IndexCacheTTL,
		MaxUploadSize: cfg.Storage.MaxSize,
	})
	if err != nil {
		logger.L.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L.Info("Server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.L.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Error("Server shutdown failed", zap.Error(err))
	}
}
