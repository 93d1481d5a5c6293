package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/metrics"
)

const (
	defaultBatchSize = 50
	defaultInterval  = 5 * time.Second
	maxBackoff       = 40 * time.Second
	jitterWindow     = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchUnpublished(tx *gorm.DB, limit int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	CountUnpublished(ctx context.Context) (int64, error)
}

type eventPublisher interface {
	PublishRaw(ctx context.Context, topic string, value []byte) error
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	Repository outboxRepository
	Producer   eventPublisher
	Metrics    *metrics.EventingMetrics
}

// Service drains committed-but-unsent outbox rows to the bus on a fixed
// interval. A row is marked published only after its own publish succeeded;
// rows whose publish fails stay pending and are retried next tick.
type Service struct {
	cfg       *config.Config
	logg      *logger.Logger
	db        dbClient
	repo      outboxRepository
	producer  eventPublisher
	metrics   *metrics.EventingMetrics
	batchSize int
	interval  time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Producer == nil {
		return nil, errors.New("event producer is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	interval := params.Config.Outbox.DispatchInterval()
	if interval <= 0 {
		interval = defaultInterval
	}

	return &Service{
		cfg:       params.Config,
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		producer:  params.Producer,
		metrics:   params.Metrics,
		batchSize: batch,
		interval:  interval,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Run polls until the context is canceled. The stop signal is observed between
// ticks; an in-flight tick always finishes before Run returns. Tick failures
// (store outages included) are logged and retried with backoff, never fatal.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := s.interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox dispatcher context canceled")
			return ctx.Err()
		default:
		}

		if err := s.tick(ctx); err != nil {
			s.logg.Error(ctx, "outbox dispatch tick failed", err)
			backoff = nextBackoff(backoff, s.interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = s.interval
		s.observeBacklog(ctx)

		if err := s.sleep(ctx, withJitter(s.interval)); err != nil {
			return err
		}
	}
}

// tick opens one transaction scope, publishes up to batchSize pending rows,
// and commits the published marks together. A failed publish skips only that
// row; it stays visible to the next fetch.
func (s *Service) tick(ctx context.Context) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		entries, err := s.repo.FetchUnpublished(tx, s.batchSize)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"event_id": entry.ID.String(),
				"topic":    entry.Topic,
			})
			if err := s.producer.PublishRaw(ctx, entry.Topic, []byte(entry.Payload)); err != nil {
				s.metrics.IncPublishFailure(entry.Topic)
				s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "outbox publish failed, row stays pending")
				continue
			}
			if err := s.repo.MarkPublishedTx(tx, entry.ID); err != nil {
				return fmt.Errorf("mark published %s: %w", entry.ID, err)
			}
			s.metrics.IncPublished(entry.Topic)
			s.logg.Info(logCtx, "outbox event published")
		}
		return nil
	})
}

func (s *Service) observeBacklog(ctx context.Context) {
	depth, err := s.repo.CountUnpublished(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "outbox backlog count failed")
		return
	}
	s.metrics.SetBacklogDepth(depth)
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}
