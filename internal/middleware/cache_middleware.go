package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-blog/pkg/cache"
	"go-blog/pkg/logger"
	"go-blog/pkg/metrics"
	"go-blog/pkg/paginator"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type cachedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CachePage 缓存 GET 请求的 200 响应, 到期前不做失效处理。
// 缓存 key 只包含路径、page 参数和当前用户, 其他查询参数不产生新条目。
func CachePage(store cache.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := pageCacheKey(c)
		ctx := c.Request.Context()
		if raw, ok, err := store.Get(ctx, key); err != nil {
			logger.L.Warn("Page cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			var page cachedPage
			if err := json.Unmarshal(raw, &page); err == nil {
				metrics.PageCache.WithLabelValues("hit").Inc()
				c.Data(page.Status, page.ContentType, page.Body)
				c.Abort()
				return
			}
		}
		metrics.PageCache.WithLabelValues("miss").Inc()

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		if rec.Status() != http.StatusOK {
			return
		}
		raw, err := json.Marshal(cachedPage{
			Status:      rec.Status(),
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.buf.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.Set(ctx, key, raw, ttl); err != nil {
			logger.L.Warn("Page cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func pageCacheKey(c *gin.Context) string {
	page := paginator.ParsePage(c.Query("page"))
	return fmt.Sprintf("%s?page=%d|u%d", c.Request.URL.Path, page, CurrentIdentity(c).UserID)
}
