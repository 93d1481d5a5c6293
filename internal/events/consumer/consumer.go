package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/metrics"
)

const readRetryDelay = time.Second

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type projectionStore interface {
	IsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error)
	MarkProcessed(ctx context.Context, eventID uuid.UUID, ttl time.Duration) error
	IncrLikeCount(ctx context.Context, postID uuid.UUID) error
	IncrCommentCount(ctx context.Context, postID uuid.UUID) error
	IncrFollowerCount(ctx context.Context, followedID uuid.UUID) error
	PushFeedEntry(ctx context.Context, authorID uuid.UUID, payload []byte) error
}

// Consumer drains the bus topics and applies one idempotent projection update
// per logical event. Duplicate deliveries inside the dedup window are dropped.
type Consumer struct {
	reader   messageReader
	store    projectionStore
	logg     *logger.Logger
	metrics  *metrics.EventingMetrics
	dedupTTL time.Duration
}

type Params struct {
	Reader   messageReader
	Store    projectionStore
	Logger   *logger.Logger
	Metrics  *metrics.EventingMetrics
	DedupTTL time.Duration
}

func New(params Params) (*Consumer, error) {
	if params.Reader == nil {
		return nil, errors.New("message reader is required")
	}
	if params.Store == nil {
		return nil, errors.New("projection store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	ttl := params.DedupTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Consumer{
		reader:   params.Reader,
		store:    params.Store,
		logg:     params.Logger,
		metrics:  params.Metrics,
		dedupTTL: ttl,
	}, nil
}

// Run consumes messages until the context is canceled. Store outages and bad
// payloads are logged and skipped; the loop itself never dies on them.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logg.Info(ctx, "event consumer stopping")
				return ctx.Err()
			}
			c.logg.Error(ctx, "bus read error", err)
			if err := c.sleep(ctx, readRetryDelay); err != nil {
				return err
			}
			continue
		}
		if err := c.process(ctx, msg.Topic, msg.Value); err != nil {
			logCtx := c.logg.WithTopic(ctx, msg.Topic)
			c.logg.Error(logCtx, "event processing failed, message skipped", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, topic string, value []byte) error {
	event, err := events.Decode(topic, value)
	if err != nil {
		if errors.Is(err, events.ErrUnknownTopic) {
			c.logg.Warn(c.logg.WithTopic(ctx, topic), "unknown event topic, message dropped")
			c.metrics.IncDropped("unknown_topic")
			return nil
		}
		var malformed *events.MalformedEventError
		if errors.As(err, &malformed) {
			c.logg.Error(c.logg.WithTopic(ctx, topic), "malformed event, message dropped", err)
			c.metrics.IncDropped("malformed")
			return nil
		}
		return err
	}

	eventID := event.Meta().EventID
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"topic":    topic,
		"event_id": eventID.String(),
	})

	processed, err := c.store.IsProcessed(ctx, eventID)
	if err != nil {
		return err
	}
	if processed {
		c.logg.Debug(logCtx, "event already processed")
		c.metrics.IncDropped("duplicate")
		return nil
	}

	if err := c.apply(ctx, event); err != nil {
		return err
	}

	// Marker goes in after the side effect: a crash in between redelivers the
	// event and the projection update runs again, which the dedup check makes
	// safe on the next pass.
	if err := c.store.MarkProcessed(ctx, eventID, c.dedupTTL); err != nil {
		return err
	}

	c.metrics.IncConsumed(topic)
	c.logg.Debug(logCtx, "event processed")
	return nil
}

func (c *Consumer) apply(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.PostLikedEvent:
		return c.store.IncrLikeCount(ctx, e.PostID)
	case events.UserFollowedEvent:
		return c.store.IncrFollowerCount(ctx, e.FollowedID)
	case events.PostCreatedEvent:
		payload, err := json.Marshal(e.Post)
		if err != nil {
			return err
		}
		return c.store.PushFeedEntry(ctx, e.Post.AuthorID, payload)
	case events.CommentCreatedEvent:
		return c.store.IncrCommentCount(ctx, e.Comment.PostID)
	case events.UserCreatedEvent:
		// No projection; the event exists for downstream systems.
		return nil
	default:
		return nil
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
