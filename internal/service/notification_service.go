package service

import (
	"context"
	"fmt"

	"go-blog/internal/event"
	"go-blog/pkg/logger"
	"go-blog/pkg/metrics"

	"go.uber.org/zap"
)

// Dispatcher 把数据推送给在线用户, 由 websocket 包的 Hub/KafkaHub 实现
type Dispatcher interface {
	Deliver(userIDs []uint, payload []byte) error
}

// NotificationService 把新帖事件推送给作者的关注者
type NotificationService struct {
	follows FollowStore
	hub     Dispatcher
}

func NewNotificationService(follows FollowStore, hub Dispatcher) *NotificationService {
	return &NotificationService{follows: follows, hub: hub}
}

func (s *NotificationService) PublishPost(ctx context.Context, e event.PostPublished) error {
	followers, err := s.follows.FollowerIDs(ctx, e.AuthorID)
	if err != nil {
		return fmt.Errorf("load followers of %d: %w", e.AuthorID, err)
	}
	if len(followers) == 0 {
		return nil
	}

	payload, err := e.JSON()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.hub.Deliver(followers, payload); err != nil {
		return err
	}
	metrics.NotificationsDelivered.Add(float64(len(followers)))
	logger.L.Debug("Post event dispatched", zap.Uint("postID", e.PostID), zap.Int("followers", len(followers)))
	return nil
}
