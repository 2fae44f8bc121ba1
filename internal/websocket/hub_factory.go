package websocket

import (
	"context"
	"fmt"

	"go-blog/pkg/config"
	"go-blog/pkg/logger"

	"go.uber.org/zap"
)

// Dispatcher 是 Hub 和 KafkaHub 的公共接口
type Dispatcher interface {
	Registry
	Deliver(userIDs []uint, payload []byte) error
	ClientOptions() ClientOptions
	Run(ctx context.Context)
	Close() error
}

var (
	_ Dispatcher = (*Hub)(nil)
	_ Dispatcher = (*KafkaHub)(nil)
)

// CreateHub 根据 messaging.provider 创建 channel 或 kafka 实现
func CreateHub(cfg config.Config) (Dispatcher, error) {
	provider := cfg.Messaging.Provider
	logger.L.Info("Creating hub with messaging provider", zap.String("provider", provider))

	switch provider {
	case "", "channel":
		return NewHub(cfg.WebSocket), nil
	case "kafka":
		return NewKafkaHub(cfg.WebSocket, cfg.Messaging.Kafka)
	default:
		return nil, fmt.Errorf("unsupported messaging provider %q", provider)
	}
}
