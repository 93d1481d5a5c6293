package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
)

// NewGroupReader builds a consumer-group reader over every configured topic.
// Caller owns Close.
func NewGroupReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers(),
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.TopicList(),
		MinBytes:    1,
		MaxBytes:    10e6,
	})
}

// Ping dials the first bootstrap broker to verify connectivity.
func Ping(ctx context.Context, cfg config.KafkaConfig) error {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return errors.New("kafka brokers not configured")
	}
	dialer := kafka.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}
