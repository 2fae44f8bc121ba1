package websocket

import (
	"context"
	"fmt"
	"os"
	"time"

	"go-blog/internal/event"
	"go-blog/pkg/config"
	"go-blog/pkg/logger"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// KafkaHub 用于多实例部署: 通知先写入 Kafka, 每个实例消费后投递给本地在线用户
type KafkaHub struct {
	*Hub
	producer sarama.SyncProducer
	consumer sarama.ConsumerGroup
	topic    string
}

func NewKafkaHub(wsCfg config.WebSocketConfig, cfg config.KafkaConfig) (*KafkaHub, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}

	kConfig := sarama.NewConfig()
	kConfig.Producer.RequiredAcks = sarama.WaitForAll
	kConfig.Producer.Return.Successes = true
	kConfig.Producer.Retry.Max = 3
	kConfig.Consumer.Return.Errors = true
	// 只关心新消息, 离线期间的通知不补发
	kConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	kConfig.Version = sarama.V2_8_0_0

	producer, err := sarama.NewSyncProducer(cfg.Brokers, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka producer", zap.Error(err))
		return nil, fmt.Errorf("failed to start Kafka producer: %w", err)
	}

	group := consumerGroupName(cfg)
	consumer, err := sarama.NewConsumerGroup(cfg.Brokers, group, kConfig)
	if err != nil {
		logger.L.Error("Failed to start Kafka consumer group", zap.Error(err))
		producer.Close()
		return nil, fmt.Errorf("failed to start Kafka consumer group: %w", err)
	}

	return &KafkaHub{
		Hub:      NewHub(wsCfg),
		producer: producer,
		consumer: consumer,
		topic:    buildTopicName(cfg.TopicPrefix, "post_published"),
	}, nil
}

// 每个实例使用独立的消费组, 所有实例都能收到每条通知。
// 组名取 instance_id, 未配置时取主机名, 重启后沿用同一个组。
func consumerGroupName(cfg config.KafkaConfig) string {
	group := cfg.ConsumerGroup
	if group == "" {
		group = "blog-notifier"
	}
	instance := cfg.InstanceID
	if instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "localhost"
		}
		instance = host
	}
	return fmt.Sprintf("%s-%s", group, instance)
}

func buildTopicName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return fmt.Sprintf("%s_%s", prefix, name)
}

// 写入 Kafka, 由各实例的消费者完成本地投递
func (h *KafkaHub) Deliver(userIDs []uint, payload []byte) error {
	data, err := event.MarshalEnvelope(event.Envelope{Recipients: userIDs, Payload: payload})
	if err != nil {
		return err
	}
	_, _, err = h.producer.SendMessage(&sarama.ProducerMessage{
		Topic: h.topic,
		Value: sarama.ByteEncoder(data),
	})
	if err != nil {
		logger.L.Error("Failed to send notification to Kafka", zap.Error(err))
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}
	return nil
}

func (h *KafkaHub) Run(ctx context.Context) {
	go h.Hub.Run(ctx)

	handler := &kafkaConsumerHandler{hub: h.Hub}
	for {
		if err := h.consumer.Consume(ctx, []string{h.topic}, handler); err != nil {
			logger.L.Error("Kafka consumer error", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
		if ctx.Err() != nil {
			logger.L.Info("Stopping Kafka consumer")
			return
		}
	}
}

func (h *KafkaHub) Close() error {
	if err := h.producer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka producer", zap.Error(err))
	}
	if err := h.consumer.Close(); err != nil {
		logger.L.Error("Failed to close Kafka consumer group", zap.Error(err))
	}
	return nil
}

type localDeliverer interface {
	Deliver(userIDs []uint, payload []byte) error
}

type kafkaConsumerHandler struct {
	hub localDeliverer
}

func (h *kafkaConsumerHandler) Setup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *kafkaConsumerHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *kafkaConsumerHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		h.handle(message.Value)
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *kafkaConsumerHandler) handle(data []byte) {
	env, err := event.UnmarshalEnvelope(data)
	if err != nil {
		logger.L.Error("Failed to decode notification from Kafka", zap.Error(err))
		return
	}
	if err := h.hub.Deliver(env.Recipients, env.Payload); err != nil {
		logger.L.Warn("Failed to deliver notification locally", zap.Error(err))
	}
}
