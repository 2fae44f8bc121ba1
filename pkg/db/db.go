package db

import (
	"fmt"

	"go-blog/internal/model"
	"go-blog/pkg/config"
	"go-blog/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// 初始化数据库连接并迁移表结构
func InitDB() error {
	dsn := config.GlobalConfig.Database.DSN
	if dsn == "" {
		return fmt.Errorf("database dsn is empty")
	}

	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		// 唯一索引冲突转成 gorm.ErrDuplicatedKey
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return err
	}

	DB = conn
	logger.L.Info("Database connected and migrated successfully")
	return nil
}

// 外键依赖顺序: users -> groups -> posts -> comments/follows
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&model.User{},
		&model.Group{},
		&model.Post{},
		&model.Comment{},
		&model.Follow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
