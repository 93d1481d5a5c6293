package posts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
)

// Repository exposes post and like persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a posts repo bound to the provided GORM DB.
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

// Create inserts a new post.
func (r *Repository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// FindByID loads a post by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts newest first, optionally filtered by author, with the
// total match count.
func (r *Repository) List(ctx context.Context, authorID *uuid.UUID, limit, offset int) ([]models.Post, int64, error) {
	scope := r.db.WithContext(ctx).Model(&models.Post{})
	if authorID != nil {
		scope = scope.Where("author_id = ?", *authorID)
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Post
	if err := scope.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByAuthors returns posts by any of the given authors, newest first.
func (r *Repository) ListByAuthors(ctx context.Context, authorIDs []uuid.UUID, limit, offset int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	var items []models.Post
	if err := r.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Delete removes a post row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id).Error
}

// CreateLike inserts a like row; the unique index rejects duplicates.
func (r *Repository) CreateLike(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// DeleteLike removes the like for the pair and reports whether a row existed.
func (r *Repository) DeleteLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// HasLike reports whether the user already liked the post.
func (r *Repository) HasLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountLikes returns the like count for a post from the source of truth.
func (r *Repository) CountLikes(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
