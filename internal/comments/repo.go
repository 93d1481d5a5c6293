package comments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
)

// Repository exposes comment persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a comments repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a copy of the repository bound to the open transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new comment.
func (r *Repository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// FindByID loads a comment by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListForPost returns a post's comments, oldest first, with the total count.
func (r *Repository) ListForPost(ctx context.Context, postID uuid.UUID, limit, offset int) ([]models.Comment, int64, error) {
	scope := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Comment
	if err := scope.
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Delete removes a comment row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id).Error
}
