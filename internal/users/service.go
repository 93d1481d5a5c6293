package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
	"github.com/aferreira-dev/socialio-backend/pkg/security"
)

// UpdateProfileInput carries the optional profile fields a user may change.
type UpdateProfileInput struct {
	Email    *string
	Username *string
	Bio      *string
	Password *string
}

// Service exposes profile operations.
type Service interface {
	Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	Search(ctx context.Context, query string, page pagination.Params) ([]UserDTO, int64, error)
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
}

// NewService builds a users service over the provided repository.
func NewService(repo *Repository, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo, passwordCfg: passwordCfg}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	if _, err := s.Me(ctx, userID); err != nil {
		return nil, err
	}

	dto := UpdateUserDTO{
		Email:    input.Email,
		Username: input.Username,
		Bio:      input.Bio,
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := security.HashPassword(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		dto.PasswordHash = &hash
	}

	user, err := s.repo.Update(ctx, userID, dto)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email or username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return FromModel(user), nil
}

func (s *service) Search(ctx context.Context, query string, page pagination.Params) ([]UserDTO, int64, error) {
	items, total, err := s.repo.Search(ctx, query, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search users")
	}
	dtos := make([]UserDTO, len(items))
	for i := range items {
		dtos[i] = *FromModel(&items[i])
	}
	return dtos, total, nil
}
