package api

import (
	"errors"
	"net/http"
	"strconv"

	"go-blog/internal/middleware"
	"go-blog/internal/service"
	"go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleError 处理表单校验以外的服务层错误
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		renderNotFound(c)
	case errors.Is(err, service.ErrUnauthorized):
		c.Redirect(http.StatusFound, middleware.LoginURL(c.Request.URL.RequestURI()))
	default:
		logger.L.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		renderServerError(c)
	}
	c.Abort()
}

func renderServerError(c *gin.Context) {
	render(c, http.StatusInternalServerError, "500.html", "Server error", nil)
}

func renderNotFound(c *gin.Context) {
	render(c, http.StatusNotFound, "404.html", "Page not found", gin.H{"path": c.Request.URL.Path})
}

// 非数字的 post_id 视为不存在
func postIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("post_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
