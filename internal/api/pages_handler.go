package api

import (
	"context"
	"net/http"
	"time"

	"go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 静态页面、404 和健康检查
type PageHandler struct {
	ping func(ctx context.Context) error
}

// ping 为 nil 时健康检查总是成功
func NewPageHandler(ping func(ctx context.Context) error) *PageHandler {
	return &PageHandler{ping: ping}
}

func (h *PageHandler) AboutAuthor(c *gin.Context) {
	render(c, http.StatusOK, "about_author.html", "About the author", nil)
}

func (h *PageHandler) AboutTech(c *gin.Context) {
	render(c, http.StatusOK, "about_tech.html", "Technologies", nil)
}

func (h *PageHandler) NotFound(c *gin.Context) {
	renderNotFound(c)
}

func (h *PageHandler) Healthz(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.L.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
