package api

import (
	"net/http"
	"net/url"

	"go-blog/internal/middleware"
	internalws "go-blog/internal/websocket"
	"go-blog/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

// 没有 Origin 头的非浏览器客户端放行
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

// ConnectionRegistry 由 websocket.Hub 和 websocket.KafkaHub 实现
type ConnectionRegistry interface {
	internalws.Registry
	ClientOptions() internalws.ClientOptions
}

// 关注通知的长连接, 新帖事件由 NotificationService 推送
type WSHandler struct {
	hub ConnectionRegistry
}

func NewWSHandler(hub ConnectionRegistry) *WSHandler {
	return &WSHandler{hub: hub}
}

func (h *WSHandler) HandleConnection(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	if !id.IsAuthenticated() {
		logger.L.Error("Anonymous WebSocket connection rejected")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.L.Error("Failed to upgrade WebSocket connection", zap.Uint("userID", id.UserID), zap.Error(err))
		return
	}
	logger.L.Info("WebSocket connection upgraded", zap.Uint("userID", id.UserID))

	client := internalws.NewClient(id.UserID, conn, h.hub, h.hub.ClientOptions())
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
