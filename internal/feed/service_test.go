package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/internal/follows"
	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
	"github.com/aferreira-dev/socialio-backend/pkg/redis"
)

type fakeTimelineStore struct {
	entries map[uuid.UUID][]string
	err     error
}

func (f *fakeTimelineStore) Feed(_ context.Context, authorID uuid.UUID) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[authorID], nil
}

type fakeResponseCache struct {
	entries map[string]string
	sets    int
}

func newFakeResponseCache() *fakeResponseCache {
	return &fakeResponseCache{entries: map[string]string{}}
}

func (f *fakeResponseCache) Get(_ context.Context, key string) (string, error) {
	val, ok := f.entries[key]
	if !ok {
		return "", redis.Nil
	}
	return val, nil
}

func (f *fakeResponseCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.entries[key] = string(v)
	default:
		f.entries[key] = fmt.Sprint(v)
	}
	f.sets++
	return nil
}

type feedFixture struct {
	svc   Service
	conn  *gorm.DB
	store *fakeTimelineStore
	cache *fakeResponseCache
}

func setupFeedService(t *testing.T) *feedFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Follow{}, &models.Post{}))

	store := &fakeTimelineStore{entries: map[uuid.UUID][]string{}}
	cache := newFakeResponseCache()
	svc, err := NewService(follows.NewRepository(conn), posts.NewRepository(conn), store, cache, nil)
	require.NoError(t, err)
	return &feedFixture{svc: svc, conn: conn, store: store, cache: cache}
}

func (f *feedFixture) createPost(t *testing.T, authorID uuid.UUID, content string, createdAt time.Time) uuid.UUID {
	t.Helper()
	post := &models.Post{AuthorID: authorID, Content: content}
	require.NoError(t, f.conn.Create(post).Error)
	require.NoError(t, f.conn.Model(post).Update("created_at", createdAt).Error)
	return post.ID
}

func (f *feedFixture) follow(t *testing.T, followerID, followedID uuid.UUID) {
	t.Helper()
	require.NoError(t, f.conn.Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error)
}

func TestGetReturnsFollowedAuthorsNewestFirst(t *testing.T) {
	f := setupFeedService(t)
	ctx := context.Background()
	reader := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	stranger := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	f.createPost(t, alice, "old from alice", base)
	newest := f.createPost(t, bob, "new from bob", base.Add(10*time.Minute))
	f.createPost(t, stranger, "not followed", base.Add(20*time.Minute))

	f.follow(t, reader, alice)
	f.follow(t, reader, bob)

	items, err := f.svc.Get(ctx, reader, pagination.Params{Page: 1, Size: 20})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newest, items[0].ID, "newest post first")
	for _, item := range items {
		assert.NotEqual(t, stranger, item.AuthorID)
	}
}

func TestGetFallsBackToOwnPostsWhenFollowingNobody(t *testing.T) {
	f := setupFeedService(t)
	ctx := context.Background()
	reader := uuid.New()

	own := f.createPost(t, reader, "my own post", time.Now().UTC())

	items, err := f.svc.Get(ctx, reader, pagination.Params{Page: 1, Size: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, own, items[0].ID)
}

func TestGetServesCachedPage(t *testing.T) {
	f := setupFeedService(t)
	ctx := context.Background()
	reader := uuid.New()
	author := uuid.New()

	f.follow(t, reader, author)
	f.createPost(t, author, "hello", time.Now().UTC())

	items, err := f.svc.Get(ctx, reader, pagination.Params{Page: 1, Size: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, f.cache.sets)

	// A second read within the cache window skips the database entirely.
	f.createPost(t, author, "too new to appear", time.Now().UTC())
	items, err = f.svc.Get(ctx, reader, pagination.Params{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, f.cache.sets)
}

func TestAuthorTimelinePrefersWarmProjection(t *testing.T) {
	f := setupFeedService(t)
	ctx := context.Background()
	author := uuid.New()

	payload := events.PostPayload{
		ID:        uuid.New(),
		AuthorID:  author,
		Content:   "from projection",
		CreatedAt: time.Now().UTC(),
	}
	encoded, err := json.Marshal(payload)
	require.NoError(t, err)
	f.store.entries[author] = []string{string(encoded)}

	f.createPost(t, author, "from database", time.Now().UTC())

	items, err := f.svc.AuthorTimeline(ctx, author)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, payload.ID, items[0].ID)
	assert.Equal(t, "from projection", items[0].Content)
}

func TestAuthorTimelineColdProjectionFallsBack(t *testing.T) {
	f := setupFeedService(t)
	ctx := context.Background()
	author := uuid.New()

	postID := f.createPost(t, author, "from database", time.Now().UTC())

	items, err := f.svc.AuthorTimeline(ctx, author)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, postID, items[0].ID)
}

func TestAuthorTimelineSkipsUndecodableEntries(t *testing.T) {
	f := setupFeedService(t)
	ctx := context.Background()
	author := uuid.New()

	f.store.entries[author] = []string{"{broken"}
	postID := f.createPost(t, author, "from database", time.Now().UTC())

	items, err := f.svc.AuthorTimeline(ctx, author)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, postID, items[0].ID, "unreadable projection falls back to the database")
}
