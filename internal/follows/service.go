package follows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/internal/users"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event events.Event) error
}

// followerCounter is the projection surface for the cached follower count.
type followerCounter interface {
	FollowerCount(ctx context.Context, userID uuid.UUID) (int64, bool, error)
}

// Service exposes social-graph operations.
type Service interface {
	Follow(ctx context.Context, followerID, followedID uuid.UUID) error
	Unfollow(ctx context.Context, followerID, followedID uuid.UUID) error
	ListFollowers(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]users.UserDTO, int64, error)
	ListFollowing(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]users.UserDTO, int64, error)
	FollowerCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	tx      txRunner
	repo    *Repository
	users   *users.Repository
	outbox  outboxPublisher
	counter followerCounter
	now     func() time.Time
}

// NewService builds a follows service. Follow writes the edge and its
// user.followed outbox row in one transaction.
func NewService(tx txRunner, repo *Repository, usersRepo *users.Repository, publisher outboxPublisher, counter followerCounter) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("follows repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:      tx,
		repo:    repo,
		users:   usersRepo,
		outbox:  publisher,
		counter: counter,
		now:     time.Now,
	}, nil
}

func (s *service) Follow(ctx context.Context, followerID, followedID uuid.UUID) error {
	if followerID == followedID {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot follow self")
	}

	if _, err := s.users.FindByID(ctx, followedID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	exists, err := s.repo.Exists(ctx, followerID, followedID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check follow")
	}
	if exists {
		return pkgerrors.New(pkgerrors.CodeConflict, "already following")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, followerID, followedID); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "already following")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create follow")
		}

		event := events.UserFollowedEvent{
			Metadata: events.Metadata{
				EventID:    uuid.New(),
				OccurredAt: s.now().UTC(),
			},
			FollowerID: followerID,
			FollowedID: followedID,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue user.followed")
		}
		return nil
	})
}

func (s *service) Unfollow(ctx context.Context, followerID, followedID uuid.UUID) error {
	if _, err := s.repo.Delete(ctx, followerID, followedID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete follow")
	}
	return nil
}

func (s *service) ListFollowers(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]users.UserDTO, int64, error) {
	items, total, err := s.repo.ListFollowers(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list followers")
	}
	return toDTOs(items), total, nil
}

func (s *service) ListFollowing(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]users.UserDTO, int64, error) {
	items, total, err := s.repo.ListFollowing(ctx, userID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list following")
	}
	return toDTOs(items), total, nil
}

// FollowerCount prefers the consumed projection and falls back to counting
// edges in the primary store when the cache is cold.
func (s *service) FollowerCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.counter != nil {
		if count, ok, err := s.counter.FollowerCount(ctx, userID); err == nil && ok {
			return count, nil
		}
	}
	count, err := s.repo.CountFollowers(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count followers")
	}
	return count, nil
}

func toDTOs(items []models.User) []users.UserDTO {
	dtos := make([]users.UserDTO, len(items))
	for i := range items {
		dtos[i] = *users.FromModel(&items[i])
	}
	return dtos
}
