package websocket

import (
	"sync"
	"time"

	"go-blog/pkg/config"
	"go-blog/pkg/logger"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ClientOptions 是单个连接的缓冲和超时设置
type ClientOptions struct {
	SendBufferSize int
	WriteWait      time.Duration // 写超时
	PongWait       time.Duration // 等待pong的最大时间
	MaxMessageSize int64         // 客户端消息最大长度
}

// 未配置的项使用默认值
func OptionsFromConfig(cfg config.WebSocketConfig) ClientOptions {
	opts := ClientOptions{
		SendBufferSize: cfg.SendBufferSize,
		WriteWait:      time.Duration(cfg.WriteWaitSeconds) * time.Second,
		PongWait:       time.Duration(cfg.PongWaitSeconds) * time.Second,
		MaxMessageSize: int64(cfg.MaxMessageSize),
	}
	if opts.SendBufferSize <= 0 {
		opts.SendBufferSize = 64
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 512
	}
	return opts
}

// 发送ping的周期
func (o ClientOptions) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

// Registry 管理在线连接
type Registry interface {
	Register(client *Client)
	Unregister(client *Client)
}

// Client 是一个浏览器连接, 只接收服务端推送
type Client struct {
	UserID   uint
	conn     *websocket.Conn
	send     chan []byte
	registry Registry
	opts     ClientOptions
	once     sync.Once
}

func NewClient(userID uint, conn *websocket.Conn, registry Registry, opts ClientOptions) *Client {
	if opts.SendBufferSize <= 0 {
		opts = OptionsFromConfig(config.WebSocketConfig{})
	}
	return &Client{
		UserID:   userID,
		conn:     conn,
		send:     make(chan []byte, opts.SendBufferSize),
		registry: registry,
		opts:     opts,
	}
}

// 只能由 hub 调用, 多次调用安全
func (c *Client) closeSend() {
	c.once.Do(func() { close(c.send) })
}

// ReadPump 处理 pong 和关闭帧, 客户端发来的内容被丢弃
func (c *Client) ReadPump() {
	defer func() {
		c.registry.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.L.Warn("Unexpected websocket close", zap.Uint("userID", c.UserID), zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				// send 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger.L.Warn("Failed to write websocket message", zap.Uint("userID", c.UserID), zap.Error(err))
				return
			}

			// 把积压的消息一起写出
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					logger.L.Warn("Failed to write batched websocket message", zap.Uint("userID", c.UserID), zap.Error(err))
					return
				}
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.L.Debug("Failed to send ping", zap.Uint("userID", c.UserID), zap.Error(err))
				return
			}
		}
	}
}
