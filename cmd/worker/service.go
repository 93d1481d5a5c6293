package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aferreira-dev/socialio-backend/internal/events/consumer"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/kafka"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         *redis.Client
	EventConsumer *consumer.Consumer
}

// Service supervises the event consumer worker.
type Service struct {
	cfg      *config.Config
	logg     *logger.Logger
	redis    *redis.Client
	consumer *consumer.Consumer
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.EventConsumer == nil {
		return nil, errors.New("event consumer is required")
	}
	return &Service{
		cfg:      params.Config,
		logg:     params.Logger,
		redis:    params.Redis,
		consumer: params.EventConsumer,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.redis.Ping(ctx); err != nil {
		s.logg.Error(ctx, "redis ping failed", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}
	if err := kafka.Ping(ctx, s.cfg.Kafka); err != nil {
		s.logg.Error(ctx, "kafka ping failed", err)
		return fmt.Errorf("kafka ping failed: %w", err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.consumer.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		// Wait for the consumer loop to observe the cancellation before
		// returning so no message is left mid-processing.
		err := <-errCh
		s.logg.Info(ctx, "worker context canceled")
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "event consumer stopped unexpectedly", err)
		}
		return err
	}
}
