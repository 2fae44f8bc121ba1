package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-blog/pkg/config"
	"go-blog/pkg/logger"

	"go.uber.org/zap"
)

var ErrHubBusy = errors.New("hub delivery queue is full")

type delivery struct {
	userIDs []uint
	payload []byte
}

// Hub 在单个进程内把通知分发给在线用户, clients 只由 Run 协程修改
type Hub struct {
	clients    map[uint]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	done       chan struct{}

	// 在线连接数, 供其它协程查询
	onlineMu sync.RWMutex
	online   map[uint]int

	clientOpts    ClientOptions
	retryCount    int
	retryInterval time.Duration
}

func NewHub(cfg config.WebSocketConfig) *Hub {
	retryCount := cfg.MessageRetryCount
	if retryCount <= 0 {
		retryCount = 3
	}
	retryInterval := time.Duration(cfg.MessageRetryIntervalMs) * time.Millisecond
	if retryInterval <= 0 {
		retryInterval = 100 * time.Millisecond
	}

	return &Hub{
		clients:       make(map[uint]map[*Client]struct{}),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		deliveries:    make(chan delivery, 256),
		done:          make(chan struct{}),
		online:        make(map[uint]int),
		clientOpts:    OptionsFromConfig(cfg),
		retryCount:    retryCount,
		retryInterval: retryInterval,
	}
}

func (h *Hub) ClientOptions() ClientOptions { return h.clientOpts }

// Run 退出后注册的连接会被立即关闭
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// 排队等待分发, 队列满时丢弃并返回 ErrHubBusy
func (h *Hub) Deliver(userIDs []uint, payload []byte) error {
	select {
	case h.deliveries <- delivery{userIDs: userIDs, payload: payload}:
		return nil
	default:
		logger.L.Warn("Hub delivery queue full, dropping notification", zap.Int("recipients", len(userIDs)))
		return ErrHubBusy
	}
}

func (h *Hub) Connected(userID uint) int {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	return h.online[userID]
}

func (h *Hub) Close() error { return nil }

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, conns := range h.clients {
				for c := range conns {
					c.closeSend()
				}
			}
			return

		case client := <-h.register:
			conns, ok := h.clients[client.UserID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.UserID] = conns
			}
			conns[client] = struct{}{}
			h.setOnline(client.UserID, len(conns))
			logger.L.Info("Client registered", zap.Uint("userID", client.UserID))

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliveries:
			for _, id := range d.userIDs {
				for c := range h.clients[id] {
					h.trySend(c, d.payload)
				}
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	client.closeSend()
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
	h.setOnline(client.UserID, len(conns))
	logger.L.Info("Client unregistered", zap.Uint("userID", client.UserID))
}

func (h *Hub) setOnline(userID uint, n int) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	if n == 0 {
		delete(h.online, userID)
		return
	}
	h.online[userID] = n
}

// 发送缓冲区满时重试, 仍失败则断开该连接
func (h *Hub) trySend(client *Client, data []byte) {
	select {
	case client.send <- data:
		return
	default:
	}

	for i := 0; i < h.retryCount; i++ {
		logger.L.Warn("Client send buffer full, retry attempt",
			zap.Uint("userID", client.UserID),
			zap.Int("attempt", i+1))
		timer := time.NewTimer(h.retryInterval)
		select {
		case client.send <- data:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	logger.L.Error("Client send buffer still full after retries, closing connection",
		zap.Uint("userID", client.UserID),
		zap.Int("attempts", h.retryCount))
	h.remove(client)
}
