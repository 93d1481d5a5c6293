package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/internal/users"
	pkgauth "github.com/aferreira-dev/socialio-backend/pkg/auth"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event events.Event) error
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Email    string
	Username string
	Password string
	Bio      *string
}

// LoginInput carries the credential pair.
type LoginInput struct {
	Username string
	Password string
}

// TokenPair is the credential bundle returned on register, login and refresh.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Service exposes registration and credential operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*TokenPair, *users.UserDTO, error)
	Login(ctx context.Context, input LoginInput) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type service struct {
	tx          txRunner
	users       *users.Repository
	outbox      outboxPublisher
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
	now         func() time.Time
}

// NewService builds the auth service. Registration writes the account row and
// its user.created outbox row in one transaction.
func NewService(tx txRunner, usersRepo *users.Repository, publisher outboxPublisher, passwordCfg config.PasswordConfig, jwtCfg config.JWTConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:          tx,
		users:       usersRepo,
		outbox:      publisher,
		passwordCfg: passwordCfg,
		jwtCfg:      jwtCfg,
		now:         time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*TokenPair, *users.UserDTO, error) {
	if !strings.Contains(input.Email, "@") {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid email")
	}
	if strings.TrimSpace(input.Username) == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "username required")
	}
	if len(input.Password) < 8 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *users.UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.Create(ctx, users.CreateUserDTO{
			Email:        input.Email,
			Username:     input.Username,
			PasswordHash: hash,
			Bio:          input.Bio,
		})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "user already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		event := events.UserCreatedEvent{
			Metadata: events.Metadata{
				EventID:    user.ID,
				OccurredAt: s.now().UTC(),
			},
			User: events.UserPayload{
				ID:       user.ID,
				Email:    user.Email,
				Username: user.Username,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue user.created")
		}

		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.mintPair(created.ID, created.Username, created.Role)
	if err != nil {
		return nil, nil, err
	}
	return pair, created, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account disabled")
	}

	return s.mintPair(user.ID, user.Username, user.Role)
}

func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := pkgauth.ParseToken(s.jwtCfg, refreshToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}
	if claims.TokenType != pkgauth.TokenTypeRefresh {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token type")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	return s.mintPair(user.ID, user.Username, user.Role)
}

func (s *service) mintPair(userID uuid.UUID, username, role string) (*TokenPair, error) {
	now := s.now()
	payload := pkgauth.AccessTokenPayload{
		UserID:   userID,
		Username: username,
		Role:     role,
	}

	access, err := pkgauth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := pkgauth.MintRefreshToken(s.jwtCfg, now, payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint refresh token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.jwtCfg.AccessTokenTTL()).UTC(),
	}, nil
}
