package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
)

// Repository persists pending bus messages alongside business mutations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert adds an unpublished row inside the caller's open transaction. It
// never commits; the surrounding transaction boundary decides atomicity with
// the business mutation.
func (r *Repository) Insert(tx *gorm.DB, event *models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(event).Error
}

// FetchUnpublished returns up to limit rows not yet published, oldest first.
// Order is best-effort; dispatch tolerates out-of-order delivery.
func (r *Repository) FetchUnpublished(tx *gorm.DB, limit int) ([]models.OutboxEvent, error) {
	if tx == nil {
		tx = r.db
	}
	var rows []models.OutboxEvent
	err := tx.Where("published = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkPublishedTx flips one row to published within the caller's transaction.
// Published is terminal; nothing ever flips it back.
func (r *Repository) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Update("published", true).Error
}

// DeletePublishedBefore removes published rows created before the cutoff.
// Unpublished rows are never touched regardless of age.
func (r *Repository) DeletePublishedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		tx = r.db.WithContext(ctx)
	}
	res := tx.Where("published = ? AND created_at < ?", true, cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

// CountUnpublished reports backlog depth, the operational signal for stuck rows.
func (r *Repository) CountUnpublished(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("published = ?", false).
		Count(&count).Error
	return count, err
}
