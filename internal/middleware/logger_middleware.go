package middleware

import (
	"net/http"
	"time"

	"go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func GinZapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		statusCode := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", statusCode),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if id := CurrentIdentity(c); id.IsAuthenticated() {
			fields = append(fields, zap.Uint("userID", id.UserID))
		}
		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			fields = append(fields, zap.String("error", errorMessage))
		}

		// 按状态码选择日志级别
		switch {
		case statusCode >= http.StatusInternalServerError:
			logger.L.Error("Request", fields...)
		case statusCode >= http.StatusBadRequest:
			logger.L.Warn("Request", fields...)
		default:
			logger.L.Info("Request", fields...)
		}
	}
}

// 记录 panic 并交给 renderError 输出 500 页面; renderError 为 nil 或响应已写出时只返回状态码
func Recovery(renderError gin.HandlerFunc) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.L.Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path))
		if renderError == nil || c.Writer.Written() {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		renderError(c)
		c.Abort()
	})
}
