package projections

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

// Key layout in the fast store. The feed list is capped; everything else is a
// hash of integer counters plus per-event dedup markers.
const (
	dedupKeyPrefix   = "events:"
	keyLikeCounts    = "post:like_counts"
	keyCommentCounts = "post:comment_counts"
	keyFollowers     = "user:followers"
	feedKeyPrefix    = "feed:"

	// FeedCap bounds each author's feed projection, newest first.
	FeedCap = 100
)

// Cache is the minimal fast-store surface the projections need.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error)
	HGet(ctx context.Context, key, field string) (string, error)
	HSet(ctx context.Context, key, field string, value any) error
	LPush(ctx context.Context, key string, values ...any) error
	LTrim(ctx context.Context, key string, start, stop int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
}

// Store owns the projection keys and the dedup marker lifecycle. The consumer
// is the only writer of projection keys; read paths elsewhere only read.
type Store struct {
	cache Cache
}

func NewStore(cache Cache) *Store {
	return &Store{cache: cache}
}

// DedupKey returns the marker key for an event id.
func DedupKey(eventID uuid.UUID) string {
	return dedupKeyPrefix + eventID.String()
}

// FeedKey returns the feed list key for an author.
func FeedKey(authorID uuid.UUID) string {
	return feedKeyPrefix + authorID.String()
}

// IsProcessed reports whether the dedup marker for the event is present.
// Absence does not guarantee the event was never processed; markers expire.
func (s *Store) IsProcessed(ctx context.Context, eventID uuid.UUID) (bool, error) {
	_, err := s.cache.Get(ctx, DedupKey(eventID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// MarkProcessed writes the dedup marker with a bounded expiry. Called strictly
// after the projection update so a crash in between causes a safe reapply.
func (s *Store) MarkProcessed(ctx context.Context, eventID uuid.UUID, ttl time.Duration) error {
	return s.cache.Set(ctx, DedupKey(eventID), "1", ttl)
}

func (s *Store) IncrLikeCount(ctx context.Context, postID uuid.UUID) error {
	_, err := s.cache.HIncrBy(ctx, keyLikeCounts, postID.String(), 1)
	return err
}

// DecrLikeCount decrements and clamps at zero, matching the unlike path.
func (s *Store) DecrLikeCount(ctx context.Context, postID uuid.UUID) error {
	count, err := s.cache.HIncrBy(ctx, keyLikeCounts, postID.String(), -1)
	if err != nil {
		return err
	}
	if count < 0 {
		return s.cache.HSet(ctx, keyLikeCounts, postID.String(), 0)
	}
	return nil
}

func (s *Store) IncrCommentCount(ctx context.Context, postID uuid.UUID) error {
	_, err := s.cache.HIncrBy(ctx, keyCommentCounts, postID.String(), 1)
	return err
}

func (s *Store) IncrFollowerCount(ctx context.Context, followedID uuid.UUID) error {
	_, err := s.cache.HIncrBy(ctx, keyFollowers, followedID.String(), 1)
	return err
}

// PushFeedEntry prepends a serialized post to the author's feed and truncates
// it to the cap.
func (s *Store) PushFeedEntry(ctx context.Context, authorID uuid.UUID, payload []byte) error {
	key := FeedKey(authorID)
	if err := s.cache.LPush(ctx, key, payload); err != nil {
		return err
	}
	return s.cache.LTrim(ctx, key, 0, FeedCap-1)
}

// Feed returns up to FeedCap serialized posts for the author, newest first.
func (s *Store) Feed(ctx context.Context, authorID uuid.UUID) ([]string, error) {
	return s.cache.LRange(ctx, FeedKey(authorID), 0, FeedCap-1)
}

// LikeCount reads the cached counter. The second return reports presence.
func (s *Store) LikeCount(ctx context.Context, postID uuid.UUID) (int64, bool, error) {
	return s.hashCount(ctx, keyLikeCounts, postID.String())
}

// SetLikeCount backfills the counter from the source-of-truth store.
func (s *Store) SetLikeCount(ctx context.Context, postID uuid.UUID, count int64) error {
	return s.cache.HSet(ctx, keyLikeCounts, postID.String(), count)
}

func (s *Store) CommentCount(ctx context.Context, postID uuid.UUID) (int64, bool, error) {
	return s.hashCount(ctx, keyCommentCounts, postID.String())
}

func (s *Store) FollowerCount(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	return s.hashCount(ctx, keyFollowers, userID.String())
}

func (s *Store) hashCount(ctx context.Context, key, field string) (int64, bool, error) {
	raw, err := s.cache.HGet(ctx, key, field)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
