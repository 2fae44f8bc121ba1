package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go-blog/internal/service"
	"go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdentityKey = "identity"
	UserIDKey   = "userID"

	LoginPath = "/auth/login/"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (service.Identity, error)
}

// Identify 从 cookie 或 Authorization 头解析令牌, 解析失败按匿名处理
func Identify(auth Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := service.Anonymous
		if token := tokenFromRequest(c, cookieName); token != "" {
			resolved, err := auth.Authenticate(c.Request.Context(), token)
			if err != nil {
				logger.L.Debug("Ignoring invalid token", zap.Error(err))
			} else {
				id = resolved
			}
		}

		c.Set(IdentityKey, id)
		if id.IsAuthenticated() {
			c.Set(UserIDKey, id.UserID)
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	// 通常Authorization格式为: "Bearer token"
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil {
			return token
		}
	}
	return ""
}

// 未经过 Identify 的请求视为匿名
func CurrentIdentity(c *gin.Context) service.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if id, ok := v.(service.Identity); ok {
			return id
		}
	}
	return service.Anonymous
}

// LoginRequired 把匿名用户重定向到登录页, next 参数带上原地址
func LoginRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c).IsAuthenticated() {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, LoginURL(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func LoginURL(next string) string {
	return LoginPath + "?next=" + url.QueryEscape(next)
}
