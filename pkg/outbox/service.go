package outbox

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
)

// Service turns typed events into outbox rows. Emit must run inside the same
// transaction as the business mutation the event describes; the row's id is
// the event id, so retries never mint a new identity.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event events.Event) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	row := models.OutboxEvent{
		ID:        event.Meta().EventID,
		Topic:     event.Topic(),
		EventType: event.Topic(),
		Payload:   string(payload),
	}
	if err := s.repo.Insert(tx, &row); err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"event_id": row.ID.String(),
			"topic":    row.Topic,
		})
		s.logg.Debug(logCtx, "outbox event queued")
	}
	return nil
}
