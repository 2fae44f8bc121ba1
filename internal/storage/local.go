package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-blog/pkg/logger"

	"go.uber.org/zap"
)

// LocalStore 把图片写到本地目录, 由 /media/ 静态路由提供访问
type LocalStore struct {
	basePath  string
	urlPrefix string
}

func NewLocalStore(basePath, urlPrefix string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "uploads"
	}
	if urlPrefix == "" {
		urlPrefix = "/media/"
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	// 确保目录存在
	if err := os.MkdirAll(filepath.Join(basePath, "posts"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath, urlPrefix: urlPrefix}, nil
}

func (s *LocalStore) BasePath() string { return s.basePath }

func (s *LocalStore) URLPrefix() string { return s.urlPrefix }

func (s *LocalStore) Save(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil || upload.Reader == nil {
		return "", errors.New("empty upload")
	}
	contentType, err := upload.Detect()
	if err != nil {
		return "", err
	}

	key := objectKey(contentType)
	dstPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, upload.Reader)
	if err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	logger.L.Info("Image stored",
		zap.String("key", key),
		zap.String("name", upload.Filename),
		zap.Int64("size", n))
	return key, nil
}

func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.urlPrefix + key
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
