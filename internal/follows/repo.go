package follows

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
)

// Repository exposes follow-edge persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a follows repo bound to the provided GORM DB.
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

// Create inserts a follow edge; the unique index rejects duplicates.
func (r *Repository) Create(ctx context.Context, followerID, followedID uuid.UUID) error {
	edge := &models.Follow{FollowerID: followerID, FollowedID: followedID}
	return r.db.WithContext(ctx).Create(edge).Error
}

// Delete removes the edge and reports whether a row existed.
func (r *Repository) Delete(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Exists reports whether the follower already follows the target.
func (r *Repository) Exists(ctx context.Context, followerID, followedID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFollowers returns users following the given user, newest edge first.
func (r *Repository) ListFollowers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.User, int64, error) {
	return r.listEdgeUsers(ctx, userID, "followed_id", "follower_id", limit, offset)
}

// ListFollowing returns users the given user follows, newest edge first.
func (r *Repository) ListFollowing(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.User, int64, error) {
	return r.listEdgeUsers(ctx, userID, "follower_id", "followed_id", limit, offset)
}

// ListFollowingIDs returns the ids of every user the given user follows.
func (r *Repository) ListFollowingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountFollowers returns the follower count from the source of truth.
func (r *Repository) CountFollowers(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followed_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) listEdgeUsers(ctx context.Context, userID uuid.UUID, anchorCol, selectCol string, limit, offset int) ([]models.User, int64, error) {
	scope := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where(anchorCol+" = ?", userID)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.User
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON follows."+selectCol+" = users.id").
		Where("follows."+anchorCol+" = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
