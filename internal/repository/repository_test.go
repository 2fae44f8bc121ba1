package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-blog/internal/model"
	"go-blog/pkg/config"
	"go-blog/pkg/db"
	"go-blog/pkg/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// 连接测试数据库并清空表, 数据库不可用时跳过
func setupTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, config.InitTest(), "Failed to initialize config")
	_ = logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode)

	if err := db.InitDB(); err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	cleanupTables(t)
	t.Cleanup(func() { cleanupTables(t) })
}

// 按外键依赖倒序清理
func cleanupTables(t *testing.T) {
	for _, m := range []any{&model.Follow{}, &model.Comment{}, &model.Post{}, &model.Group{}, &model.User{}} {
		if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(m).Error; err != nil {
			t.Logf("Warning: Failed to cleanup %T: %v", m, err)
		}
	}
}

func createTestUser(t *testing.T, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hash",
	}
	require.NoError(t, NewUserRepository().Create(context.Background(), user))
	require.NotZero(t, user.ID)
	return user
}

func createTestGroup(t *testing.T, slug string) *model.Group {
	t.Helper()
	group := &model.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, NewGroupRepository().Create(context.Background(), group))
	return group
}

// created_at 显式递增, 保证排序可预测
func createTestPost(t *testing.T, author *model.User, group *model.Group, text string, at time.Time) *model.Post {
	t.Helper()
	post := &model.Post{Text: text, AuthorID: author.ID, CreatedAt: at}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, NewPostRepository().Create(context.Background(), post))
	return post
}
