package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

// PublishError wraps any failure to hand a message to the broker: broker
// unavailability, timeout, or payload serialization.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer is a shared, lazily-started writer. Start is idempotent and safe
// under concurrent first use; Publish blocks until the broker acknowledges.
type Producer struct {
	cfg       config.KafkaConfig
	logg      *logger.Logger
	newWriter func() messageWriter

	mtx    sync.Mutex
	writer messageWriter
}

// NewProducer builds a producer; no connection is opened until Start or the
// first Publish.
func NewProducer(cfg config.KafkaConfig, logg *logger.Logger) *Producer {
	p := &Producer{cfg: cfg, logg: logg}
	p.newWriter = func() messageWriter {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers()...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}
	return p
}

// Start provisions the underlying connection exactly once.
func (p *Producer) Start(ctx context.Context) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.writer != nil {
		return nil
	}
	if len(p.cfg.Brokers()) == 0 {
		return &PublishError{Err: fmt.Errorf("kafka brokers not configured")}
	}
	p.writer = p.newWriter()
	if p.logg != nil {
		p.logg.Info(ctx, "kafka producer started")
	}
	return nil
}

// Stop releases the connection. A later Publish transparently restarts it.
func (p *Producer) Stop(ctx context.Context) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	if p.writer == nil {
		return nil
	}
	err := p.writer.Close()
	p.writer = nil
	if p.logg != nil {
		p.logg.Info(ctx, "kafka producer stopped")
	}
	return err
}

// Publish serializes the payload and writes it to the topic, waiting for
// broker acknowledgment before returning.
func (p *Producer) Publish(ctx context.Context, topic string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return &PublishError{Topic: topic, Err: fmt.Errorf("serialize payload: %w", err)}
	}
	return p.PublishRaw(ctx, topic, value)
}

// PublishRaw writes pre-serialized bytes to the topic. The outbox dispatcher
// uses this path so stored payloads reach the bus byte-for-byte.
func (p *Producer) PublishRaw(ctx context.Context, topic string, value []byte) error {
	writer, err := p.currentWriter(ctx)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(topic),
		Value: value,
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		return &PublishError{Topic: topic, Err: err}
	}
	if p.logg != nil {
		p.logg.Debug(p.logg.WithTopic(ctx, topic), "published event")
	}
	return nil
}

func (p *Producer) currentWriter(ctx context.Context) (messageWriter, error) {
	p.mtx.Lock()
	writer := p.writer
	p.mtx.Unlock()
	if writer != nil {
		return writer, nil
	}
	if err := p.Start(ctx); err != nil {
		return nil, err
	}
	p.mtx.Lock()
	writer = p.writer
	p.mtx.Unlock()
	return writer, nil
}
