package api

import (
	"errors"
	"net/http"

	"go-blog/internal/middleware"
	"go-blog/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	follows *service.FollowService
}

func NewFollowHandler(follows *service.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// 关注自己不报错, 直接回到作者主页
func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	err := h.follows.Follow(c.Request.Context(), middleware.CurrentIdentity(c), username)
	if err != nil && !errors.Is(err, service.ErrSelfFollow) {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.follows.Unfollow(c.Request.Context(), middleware.CurrentIdentity(c), username); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}
