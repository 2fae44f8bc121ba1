package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go-blog/pkg/config"
	"go-blog/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioStore 把图片存到 S3 兼容的对象存储
type MinioStore struct {
	cfg    config.MinioConfig
	client *minio.Client
}

func NewMinioStore(cfg config.MinioConfig) (*MinioStore, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	cfg.Endpoint = endpoint
	return &MinioStore{cfg: cfg, client: cl}, nil
}

func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *MinioStore) Save(ctx context.Context, upload *Upload) (string, error) {
	if upload == nil || upload.Reader == nil {
		return "", errors.New("empty upload")
	}
	contentType, err := upload.Detect()
	if err != nil {
		return "", err
	}

	key := objectKey(contentType)
	size := upload.Size
	if size <= 0 {
		size = -1 // 未知长度, 由客户端分片上传
	}
	info, err := s.client.PutObject(ctx, s.cfg.Bucket, key, upload.Reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	logger.L.Info("Image uploaded to object storage",
		zap.String("bucket", s.cfg.Bucket),
		zap.String("key", key),
		zap.Int64("size", info.Size))
	return key, nil
}

func (s *MinioStore) URL(key string) string {
	if key == "" {
		return ""
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: s.cfg.Endpoint, Path: "/" + s.cfg.Bucket + "/" + key}
	return u.String()
}

// 私有 bucket 时使用带签名的临时地址
func (s *MinioStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (*url.URL, error) {
	return s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, ttl, nil)
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
}
