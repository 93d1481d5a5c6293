package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
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

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user matching the provided username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies the non-nil fields from the DTO to the stored user.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, dto UpdateUserDTO) (*models.User, error) {
	updates := map[string]any{}
	if dto.Email != nil {
		updates["email"] = *dto.Email
	}
	if dto.Username != nil {
		updates["username"] = *dto.Username
	}
	if dto.Bio != nil {
		updates["bio"] = *dto.Bio
	}
	if dto.PasswordHash != nil {
		updates["password_hash"] = *dto.PasswordHash
	}
	if len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.FindByID(ctx, id)
}

// Search lists users whose username or email contains the query, newest
// first, with the total match count.
func (r *Repository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, int64, error) {
	scope := r.db.WithContext(ctx).Model(&models.User{})
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		scope = scope.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.User
	if err := scope.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
