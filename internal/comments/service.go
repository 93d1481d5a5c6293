package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
)

const maxContentLen = 280

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event events.Event) error
}

// CommentDTO is the public projection of a comment.
type CommentDTO struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Service exposes comment operations.
type Service interface {
	Add(ctx context.Context, postID, authorID uuid.UUID, content string) (*CommentDTO, error)
	ListForPost(ctx context.Context, postID uuid.UUID, page pagination.Params) ([]CommentDTO, int64, error)
	Delete(ctx context.Context, commentID, actorID uuid.UUID, isAdmin bool) error
}

type service struct {
	tx     txRunner
	repo   *Repository
	posts  *posts.Repository
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds a comments service. Add writes the comment row and its
// comment.created outbox row in one transaction.
func NewService(tx txRunner, repo *Repository, postsRepo *posts.Repository, publisher outboxPublisher) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("comments repository required")
	}
	if postsRepo == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		posts:  postsRepo,
		outbox: publisher,
		now:    time.Now,
	}, nil
}

func (s *service) Add(ctx context.Context, postID, authorID uuid.UUID, content string) (*CommentDTO, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content required")
	}
	if len(content) > maxContentLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content too long")
	}

	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load post")
	}

	comment := &models.Comment{
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, comment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create comment")
		}

		event := events.CommentCreatedEvent{
			Metadata: events.Metadata{
				EventID:    comment.ID,
				OccurredAt: s.now().UTC(),
			},
			Comment: events.CommentPayload{
				ID:        comment.ID,
				PostID:    comment.PostID,
				AuthorID:  comment.AuthorID,
				Content:   comment.Content,
				CreatedAt: comment.CreatedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue comment.created")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return toDTO(comment), nil
}

func (s *service) ListForPost(ctx context.Context, postID uuid.UUID, page pagination.Params) ([]CommentDTO, int64, error) {
	items, total, err := s.repo.ListForPost(ctx, postID, page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list comments")
	}
	dtos := make([]CommentDTO, len(items))
	for i := range items {
		dtos[i] = *toDTO(&items[i])
	}
	return dtos, total, nil
}

func (s *service) Delete(ctx context.Context, commentID, actorID uuid.UUID, isAdmin bool) error {
	comment, err := s.repo.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "comment not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load comment")
	}
	if comment.AuthorID != actorID && !isAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete comment")
	}
	if err := s.repo.Delete(ctx, commentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete comment")
	}
	return nil
}

func toDTO(comment *models.Comment) *CommentDTO {
	return &CommentDTO{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}
