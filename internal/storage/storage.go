// Package storage 保存帖子图片。图片类型按内容嗅探, 不信任客户端声明的类型和文件名。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go-blog/pkg/config"

	"github.com/google/uuid"
)

var ErrNotImage = errors.New("upload is not an image")

// 嗅探读取的字节数, 与 http.DetectContentType 一致
const sniffLen = 512

// 允许的图片类型及其扩展名, 不含 svg
var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload 是一次图片上传, Reader 由调用方负责关闭。
// ContentType 和 Filename 来自客户端, 只用于日志。
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader

	sniffed  bool
	detected string
}

// Detect 读取内容开头判断图片类型, 读过的字节会放回 Reader。
// 不是允许的图片类型时返回 ErrNotImage。
func (u *Upload) Detect() (string, error) {
	if !u.sniffed {
		if u.Reader == nil {
			return "", ErrNotImage
		}
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(u.Reader, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("failed to read upload: %w", err)
		}
		head = head[:n]
		u.Reader = io.MultiReader(bytes.NewReader(head), u.Reader)
		u.sniffed = true
		if n > 0 {
			u.detected = http.DetectContentType(head)
		}
	}
	if _, ok := imageExts[u.detected]; !ok {
		return "", ErrNotImage
	}
	return u.detected, nil
}

func (u *Upload) IsImage() bool {
	_, err := u.Detect()
	return err == nil
}

type Store interface {
	// 保存上传内容并返回对象 key
	Save(ctx context.Context, upload *Upload) (string, error)
	// key 对应的可访问地址
	URL(key string) string
	Delete(ctx context.Context, key string) error
}

// posts/<uuid>.<ext>, 扩展名由嗅探出的类型决定
func objectKey(contentType string) string {
	return "posts/" + uuid.NewString() + imageExts[contentType]
}

// 按配置选择 local 或 minio
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalStore(cfg.LocalPath, cfg.URLPrefix)
	case "minio":
		s, err := NewMinioStore(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket %q: %w", cfg.Minio.Bucket, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
