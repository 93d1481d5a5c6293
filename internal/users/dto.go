package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
)

// UserDTO is the public projection of an account, password hash excluded.
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Bio       *string   `json:"bio,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// FromModel maps a persisted user onto the public DTO.
func FromModel(user *models.User) *UserDTO {
	if user == nil {
		return nil
	}
	return &UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Bio:       user.Bio,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// CreateUserDTO captures the fields required to insert a new account.
type CreateUserDTO struct {
	Email        string
	Username     string
	PasswordHash string
	Bio          *string
}

// ToModel converts the DTO into a persistable model.
func (dto CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Email:        dto.Email,
		Username:     dto.Username,
		PasswordHash: dto.PasswordHash,
		Bio:          dto.Bio,
		Role:         "user",
		IsActive:     true,
	}
}

// UpdateUserDTO carries the optional profile mutations; nil fields are left
// untouched.
type UpdateUserDTO struct {
	Email        *string
	Username     *string
	Bio          *string
	PasswordHash *string
}
