package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

const (
	maxContentLen = 280

	idempotencyKeyPrefix = "idempotency:post:"
	idempotencyTTL       = time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event events.Event) error
}

// likeCounter is the projection surface the read and unlike paths touch.
type likeCounter interface {
	LikeCount(ctx context.Context, postID uuid.UUID) (int64, bool, error)
	SetLikeCount(ctx context.Context, postID uuid.UUID, count int64) error
	DecrLikeCount(ctx context.Context, postID uuid.UUID) error
}

// replayCache stores idempotency-key → post-id mappings.
type replayCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CreatePostInput carries the fields of a new post. A repeated request with
// the same idempotency key returns the post created the first time.
type CreatePostInput struct {
	Content        string
	MediaURL       *string
	IdempotencyKey string
}

// PostDTO is the public projection of a post.
type PostDTO struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	MediaURL  *string   `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LikeCount int64     `json:"like_count"`
}

// Service exposes post and like operations.
type Service interface {
	Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*PostDTO, error)
	Get(ctx context.Context, postID uuid.UUID) (*PostDTO, error)
	List(ctx context.Context, authorID *uuid.UUID, page pagination.Params) ([]PostDTO, int64, error)
	Delete(ctx context.Context, postID, actorID uuid.UUID, isAdmin bool) error
	Like(ctx context.Context, postID, userID uuid.UUID) error
	Unlike(ctx context.Context, postID, userID uuid.UUID) error
	LikeCount(ctx context.Context, postID uuid.UUID) (int64, error)
}

type service struct {
	tx     txRunner
	repo   *Repository
	outbox outboxPublisher
	counts likeCounter
	cache  replayCache
	now    func() time.Time
}

// NewService builds a posts service. Every mutation that publishes an event
// writes its outbox row inside the same transaction as the post or like row.
func NewService(tx txRunner, repo *Repository, publisher outboxPublisher, counts likeCounter, cache replayCache) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if counts == nil {
		return nil, fmt.Errorf("like counter required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		outbox: publisher,
		counts: counts,
		cache:  cache,
		now:    time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, authorID uuid.UUID, input CreatePostInput) (*PostDTO, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content required")
	}
	if len(content) > maxContentLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content too long")
	}

	replayKey := ""
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" && s.cache != nil {
		replayKey = idempotencyKeyPrefix + key + ":" + authorID.String()
		if existing, err := s.replayedPost(ctx, replayKey); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil
		}
	}

	post := &models.Post{
		AuthorID: authorID,
		Content:  content,
		MediaURL: input.MediaURL,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, post); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create post")
		}

		event := events.PostCreatedEvent{
			Metadata: events.Metadata{
				EventID:    post.ID,
				OccurredAt: s.now().UTC(),
			},
			Post: events.PostPayload{
				ID:        post.ID,
				AuthorID:  post.AuthorID,
				Content:   post.Content,
				MediaURL:  post.MediaURL,
				CreatedAt: post.CreatedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue post.created")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayKey != "" {
		// Replay window only; a failed write just loses dedup for this key.
		_ = s.cache.Set(ctx, replayKey, post.ID.String(), idempotencyTTL)
	}

	return s.toDTO(ctx, post), nil
}

func (s *service) replayedPost(ctx context.Context, replayKey string) (*PostDTO, error) {
	stored, err := s.cache.Get(ctx, replayKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
	}
	postID, err := uuid.Parse(stored)
	if err != nil {
		return nil, nil
	}
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replayed post")
	}
	return s.toDTO(ctx, post), nil
}

func (s *service) Get(ctx context.Context, postID uuid.UUID) (*PostDTO, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.toDTO(ctx, post), nil
}

func (s *service) List(ctx context.Context, authorID *uuid.UUID, page pagination.Params) ([]PostDTO, int64, error) {
	items, total, err := s.repo.List(ctx, authorID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list posts")
	}
	dtos := make([]PostDTO, len(items))
	for i := range items {
		dtos[i] = *s.toDTO(ctx, &items[i])
	}
	return dtos, total, nil
}

func (s *service) Delete(ctx context.Context, postID, actorID uuid.UUID, isAdmin bool) error {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorID && !isAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete post")
	}
	if err := s.repo.Delete(ctx, postID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete post")
	}
	return nil
}

func (s *service) Like(ctx context.Context, postID, userID uuid.UUID) error {
	if _, err := s.findPost(ctx, postID); err != nil {
		return err
	}

	liked, err := s.repo.HasLike(ctx, postID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check like")
	}
	if liked {
		return pkgerrors.New(pkgerrors.CodeConflict, "already liked")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		like := &models.Like{PostID: postID, UserID: userID}
		if err := repo.CreateLike(ctx, like); err != nil {
			if db.IsUniqueViolation(err) {
				return pkgerrors.New(pkgerrors.CodeConflict, "already liked")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create like")
		}

		event := events.PostLikedEvent{
			Metadata: events.Metadata{
				EventID:    uuid.New(),
				OccurredAt: s.now().UTC(),
			},
			PostID: postID,
			UserID: userID,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue post.liked")
		}
		return nil
	})
}

func (s *service) Unlike(ctx context.Context, postID, userID uuid.UUID) error {
	removed, err := s.repo.DeleteLike(ctx, postID, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete like")
	}
	if !removed {
		return nil
	}
	// No unlike event exists; the cached counter is adjusted directly.
	if err := s.counts.DecrLikeCount(ctx, postID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement like count")
	}
	return nil
}

func (s *service) LikeCount(ctx context.Context, postID uuid.UUID) (int64, error) {
	count, ok, err := s.counts.LikeCount(ctx, postID)
	if err == nil && ok {
		return count, nil
	}

	// Cold or unavailable cache: answer from the source of truth and backfill.
	count, err = s.repo.CountLikes(ctx, postID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count likes")
	}
	_ = s.counts.SetLikeCount(ctx, postID, count)
	return count, nil
}

func (s *service) findPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post")
	}
	return post, nil
}

func (s *service) toDTO(ctx context.Context, post *models.Post) *PostDTO {
	dto := &PostDTO{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		MediaURL:  post.MediaURL,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if count, ok, err := s.counts.LikeCount(ctx, post.ID); err == nil && ok {
		dto.LikeCount = count
	}
	return dto
}
