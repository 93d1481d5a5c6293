package comments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/internal/posts"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
)

type fakePublisher struct {
	events  []events.Event
	emitErr error
}

func (f *fakePublisher) Emit(_ context.Context, tx *gorm.DB, event events.Event) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	if tx == nil {
		return errors.New("emit outside transaction")
	}
	f.events = append(f.events, event)
	return nil
}

type commentsFixture struct {
	svc       Service
	conn      *gorm.DB
	publisher *fakePublisher
}

func setupCommentsService(t *testing.T) *commentsFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Post{}, &models.Comment{}))

	publisher := &fakePublisher{}
	svc, err := NewService(db.NewWithConn(conn), NewRepository(conn), posts.NewRepository(conn), publisher)
	require.NoError(t, err)
	return &commentsFixture{svc: svc, conn: conn, publisher: publisher}
}

func (f *commentsFixture) createPost(t *testing.T) uuid.UUID {
	t.Helper()
	post := &models.Post{AuthorID: uuid.New(), Content: "hello"}
	require.NoError(t, f.conn.Create(post).Error)
	return post.ID
}

func TestAddWritesCommentAndQueuesEvent(t *testing.T) {
	f := setupCommentsService(t)
	postID := f.createPost(t)
	authorID := uuid.New()

	comment, err := f.svc.Add(context.Background(), postID, authorID, "  nice post  ")
	require.NoError(t, err)
	assert.Equal(t, "nice post", comment.Content)
	assert.Equal(t, postID, comment.PostID)

	require.Len(t, f.publisher.events, 1)
	created, ok := f.publisher.events[0].(events.CommentCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, comment.ID, created.EventID, "event id must be the comment id")
	assert.Equal(t, postID, created.Comment.PostID)
}

func TestAddValidatesContent(t *testing.T) {
	f := setupCommentsService(t)
	postID := f.createPost(t)
	ctx := context.Background()

	for _, content := range []string{"", "   ", strings.Repeat("x", maxContentLen+1)} {
		_, err := f.svc.Add(ctx, postID, uuid.New(), content)
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
	assert.Empty(t, f.publisher.events)
}

func TestAddUnknownPostNotFound(t *testing.T) {
	f := setupCommentsService(t)

	_, err := f.svc.Add(context.Background(), uuid.New(), uuid.New(), "hello")
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestAddRollsBackWhenEmitFails(t *testing.T) {
	f := setupCommentsService(t)
	postID := f.createPost(t)
	f.publisher.emitErr = errors.New("outbox unavailable")

	_, err := f.svc.Add(context.Background(), postID, uuid.New(), "hello")
	require.Error(t, err)

	var count int64
	require.NoError(t, f.conn.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "comment row must not survive a failed emit")
}

func TestListForPostOrdersOldestFirst(t *testing.T) {
	f := setupCommentsService(t)
	ctx := context.Background()
	postID := f.createPost(t)

	first, err := f.svc.Add(ctx, postID, uuid.New(), "first")
	require.NoError(t, err)
	second, err := f.svc.Add(ctx, postID, uuid.New(), "second")
	require.NoError(t, err)

	items, total, err := f.svc.ListForPost(ctx, postID, pagination.Params{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.Equal(t, second.ID, items[1].ID)
}

func TestDeleteRequiresAuthorOrAdmin(t *testing.T) {
	f := setupCommentsService(t)
	ctx := context.Background()
	postID := f.createPost(t)
	authorID := uuid.New()

	comment, err := f.svc.Add(ctx, postID, authorID, "hello")
	require.NoError(t, err)

	err = f.svc.Delete(ctx, comment.ID, uuid.New(), false)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())

	require.NoError(t, f.svc.Delete(ctx, comment.ID, authorID, false))

	err = f.svc.Delete(ctx, comment.ID, authorID, false)
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
