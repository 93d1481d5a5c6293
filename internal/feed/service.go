package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/internal/follows"
	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/internal/projections"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/logger"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

// Assembled feed pages are cached briefly; the per-author projection lists
// are maintained by the event consumer, not by this service.
const feedCacheTTL = 60 * time.Second

// responseCache stores assembled feed pages.
type responseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// timelineStore is the projection read surface.
type timelineStore interface {
	Feed(ctx context.Context, authorID uuid.UUID) ([]string, error)
}

// FeedItem is one post in an assembled feed.
type FeedItem struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	MediaURL  *string   `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
	LikeCount int64     `json:"like_count"`
}

// Service assembles timelines.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]FeedItem, error)
	AuthorTimeline(ctx context.Context, authorID uuid.UUID) ([]FeedItem, error)
}

type service struct {
	follows *follows.Repository
	posts   *posts.Repository
	store   timelineStore
	cache   responseCache
	logg    *logger.Logger
}

// NewService builds the feed read path. Pages of followed-author posts come
// from the primary store behind a short cache; per-author timelines are served
// from the consumed projection when it is warm.
func NewService(followsRepo *follows.Repository, postsRepo *posts.Repository, store timelineStore, cache responseCache, logg *logger.Logger) (Service, error) {
	if followsRepo == nil {
		return nil, fmt.Errorf("follows repository required")
	}
	if postsRepo == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("timeline store required")
	}
	return &service{
		follows: followsRepo,
		posts:   postsRepo,
		store:   store,
		cache:   cache,
		logg:    logg,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]FeedItem, error) {
	page = page.Normalize()
	cacheKey := fmt.Sprintf("feed:%s:%d:%d", userID, page.Page, page.Size)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var items []FeedItem
			if err := json.Unmarshal([]byte(cached), &items); err == nil {
				return items, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "feed cache read failed")
		}
	}

	authorIDs, err := s.follows.ListFollowingIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list following")
	}
	if len(authorIDs) == 0 {
		authorIDs = []uuid.UUID{userID}
	}

	rows, err := s.posts.ListByAuthors(ctx, authorIDs, page.Limit(), page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list feed posts")
	}

	items := make([]FeedItem, len(rows))
	for i := range rows {
		items[i] = fromModel(&rows[i])
	}

	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, feedCacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "feed cache write failed")
			}
		}
	}
	return items, nil
}

// AuthorTimeline returns an author's recent posts, newest first. The consumed
// projection serves warm reads; a cold projection falls back to the primary
// store without repopulating the list, which only the consumer writes.
func (s *service) AuthorTimeline(ctx context.Context, authorID uuid.UUID) ([]FeedItem, error) {
	entries, err := s.store.Feed(ctx, authorID)
	if err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "timeline projection read failed")
	}
	if len(entries) > 0 {
		items := make([]FeedItem, 0, len(entries))
		for _, entry := range entries {
			var payload events.PostPayload
			if err := json.Unmarshal([]byte(entry), &payload); err != nil {
				continue
			}
			items = append(items, FeedItem{
				ID:        payload.ID,
				AuthorID:  payload.AuthorID,
				Content:   payload.Content,
				MediaURL:  payload.MediaURL,
				CreatedAt: payload.CreatedAt,
			})
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	rows, err := s.posts.ListByAuthors(ctx, []uuid.UUID{authorID}, projections.FeedCap, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list author posts")
	}
	items := make([]FeedItem, len(rows))
	for i := range rows {
		items[i] = fromModel(&rows[i])
	}
	return items, nil
}

func fromModel(post *models.Post) FeedItem {
	return FeedItem{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		MediaURL:  post.MediaURL,
		CreatedAt: post.CreatedAt,
	}
}
