package projections

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

type fakeCache struct {
	kv        map[string]string
	ttls      map[string]time.Duration
	hashes    map[string]map[string]int64
	lists     map[string][]string
	trimCalls []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		kv:     map[string]string{},
		ttls:   map[string]time.Duration{},
		hashes: map[string]map[string]int64{},
		lists:  map[string][]string{},
	}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	val, ok := f.kv[key]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	f.kv[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) HIncrBy(_ context.Context, key, field string, delta int64) (int64, error) {
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]int64{}
	}
	f.hashes[key][field] += delta
	return f.hashes[key][field], nil
}

func (f *fakeCache) HGet(_ context.Context, key, field string) (string, error) {
	hash, ok := f.hashes[key]
	if !ok {
		return "", redis.Nil
	}
	val, ok := hash[field]
	if !ok {
		return "", redis.Nil
	}
	return fmt.Sprint(val), nil
}

func (f *fakeCache) HSet(_ context.Context, key, field string, value any) error {
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]int64{}
	}
	var parsed int64
	fmt.Sscan(fmt.Sprint(value), &parsed)
	f.hashes[key][field] = parsed
	return nil
}

func (f *fakeCache) LPush(_ context.Context, key string, values ...any) error {
	for _, v := range values {
		f.lists[key] = append([]string{fmt.Sprint(v)}, f.lists[key]...)
	}
	return nil
}

func (f *fakeCache) LTrim(_ context.Context, key string, start, stop int64) error {
	f.trimCalls = append(f.trimCalls, fmt.Sprintf("%s:%d:%d", key, start, stop))
	list := f.lists[key]
	if int64(len(list)) > stop+1 {
		f.lists[key] = list[start : stop+1]
	}
	return nil
}

func (f *fakeCache) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	list := f.lists[key]
	if int64(len(list)) > stop+1 {
		list = list[start : stop+1]
	}
	return list, nil
}

func TestDedupMarkerLifecycle(t *testing.T) {
	cache := newFakeCache()
	store := NewStore(cache)
	ctx := context.Background()
	eventID := uuid.New()

	processed, err := store.IsProcessed(ctx, eventID)
	if err != nil {
		t.Fatalf("is processed: %v", err)
	}
	if processed {
		t.Fatal("fresh event must not be marked processed")
	}

	if err := store.MarkProcessed(ctx, eventID, 24*time.Hour); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	processed, err = store.IsProcessed(ctx, eventID)
	if err != nil {
		t.Fatalf("is processed: %v", err)
	}
	if !processed {
		t.Fatal("expected marker to be visible")
	}
	if cache.ttls[DedupKey(eventID)] != 24*time.Hour {
		t.Fatalf("expected bounded marker expiry, got %s", cache.ttls[DedupKey(eventID)])
	}
}

func TestLikeCountIncrDecrClampsAtZero(t *testing.T) {
	cache := newFakeCache()
	store := NewStore(cache)
	ctx := context.Background()
	postID := uuid.New()

	if err := store.IncrLikeCount(ctx, postID); err != nil {
		t.Fatalf("incr: %v", err)
	}
	count, ok, err := store.LikeCount(ctx, postID)
	if err != nil || !ok || count != 1 {
		t.Fatalf("unexpected count state: %d %v %v", count, ok, err)
	}

	if err := store.DecrLikeCount(ctx, postID); err != nil {
		t.Fatalf("decr: %v", err)
	}
	if err := store.DecrLikeCount(ctx, postID); err != nil {
		t.Fatalf("decr below zero: %v", err)
	}
	count, _, err = store.LikeCount(ctx, postID)
	if err != nil {
		t.Fatalf("like count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected clamp at zero, got %d", count)
	}
}

func TestLikeCountMissReportsAbsence(t *testing.T) {
	store := NewStore(newFakeCache())
	_, ok, err := store.LikeCount(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("like count: %v", err)
	}
	if ok {
		t.Fatal("cold counter must report absence, not zero presence")
	}
}

func TestSetLikeCountBackfills(t *testing.T) {
	store := NewStore(newFakeCache())
	ctx := context.Background()
	postID := uuid.New()

	if err := store.SetLikeCount(ctx, postID, 42); err != nil {
		t.Fatalf("set like count: %v", err)
	}
	count, ok, err := store.LikeCount(ctx, postID)
	if err != nil || !ok || count != 42 {
		t.Fatalf("unexpected backfilled state: %d %v %v", count, ok, err)
	}
}

func TestPushFeedEntryCapsList(t *testing.T) {
	cache := newFakeCache()
	store := NewStore(cache)
	ctx := context.Background()
	authorID := uuid.New()

	for i := 0; i < FeedCap+50; i++ {
		payload := []byte(fmt.Sprintf(`{"seq":%d}`, i))
		if err := store.PushFeedEntry(ctx, authorID, payload); err != nil {
			t.Fatalf("push entry %d: %v", i, err)
		}
	}

	entries, err := store.Feed(ctx, authorID)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(entries) != FeedCap {
		t.Fatalf("expected feed capped at %d, got %d", FeedCap, len(entries))
	}
	if entries[0] != fmt.Sprintf(`{"seq":%d}`, FeedCap+49) {
		t.Fatalf("expected newest entry first, got %s", entries[0])
	}
	if len(cache.trimCalls) != FeedCap+50 {
		t.Fatalf("expected a trim per push, got %d", len(cache.trimCalls))
	}
}

func TestFollowerAndCommentCounters(t *testing.T) {
	store := NewStore(newFakeCache())
	ctx := context.Background()
	postID := uuid.New()
	userID := uuid.New()

	if err := store.IncrCommentCount(ctx, postID); err != nil {
		t.Fatalf("incr comment: %v", err)
	}
	if err := store.IncrFollowerCount(ctx, userID); err != nil {
		t.Fatalf("incr follower: %v", err)
	}

	comments, ok, err := store.CommentCount(ctx, postID)
	if err != nil || !ok || comments != 1 {
		t.Fatalf("unexpected comment count: %d %v %v", comments, ok, err)
	}
	followers, ok, err := store.FollowerCount(ctx, userID)
	if err != nil || !ok || followers != 1 {
		t.Fatalf("unexpected follower count: %d %v %v", followers, ok, err)
	}
}
