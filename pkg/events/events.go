package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic names carried as Kafka message topics. The set is closed: the consumer
// refuses anything else with ErrUnknownTopic.
const (
	TopicUserCreated    = "user.created"
	TopicUserFollowed   = "user.followed"
	TopicPostCreated    = "post.created"
	TopicPostLiked      = "post.liked"
	TopicCommentCreated = "comment.created"
)

// Topics returns every topic the consumer subscribes to.
func Topics() []string {
	return []string{
		TopicUserCreated,
		TopicUserFollowed,
		TopicPostCreated,
		TopicPostLiked,
		TopicCommentCreated,
	}
}

// Metadata is the envelope shared by every event. EventID is stable across
// redelivery and keys the consumer-side dedup marker.
type Metadata struct {
	EventID    uuid.UUID `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Meta implements Event.
func (m Metadata) Meta() Metadata {
	return m
}

// Event is the closed union over the five wire schemas.
type Event interface {
	Meta() Metadata
	Topic() string
}

// UserPayload carries the account fields published on registration.
type UserPayload struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
}

type UserCreatedEvent struct {
	Metadata
	User UserPayload `json:"user"`
}

func (UserCreatedEvent) Topic() string { return TopicUserCreated }

type UserFollowedEvent struct {
	Metadata
	FollowerID uuid.UUID `json:"follower_id"`
	FollowedID uuid.UUID `json:"followed_id"`
}

func (UserFollowedEvent) Topic() string { return TopicUserFollowed }

// PostPayload is the serialized post pushed onto feed projections.
type PostPayload struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	MediaURL  *string   `json:"media_url"`
	CreatedAt time.Time `json:"created_at"`
}

type PostCreatedEvent struct {
	Metadata
	Post PostPayload `json:"post"`
}

func (PostCreatedEvent) Topic() string { return TopicPostCreated }

type PostLikedEvent struct {
	Metadata
	PostID uuid.UUID `json:"post_id"`
	UserID uuid.UUID `json:"user_id"`
}

func (PostLikedEvent) Topic() string { return TopicPostLiked }

// CommentPayload carries the comment fields published on creation.
type CommentPayload struct {
	ID        uuid.UUID `json:"id"`
	PostID    uuid.UUID `json:"post_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentCreatedEvent struct {
	Metadata
	Comment CommentPayload `json:"comment"`
}

func (CommentCreatedEvent) Topic() string { return TopicCommentCreated }

// NewMetadata mints the envelope for a freshly emitted event.
func NewMetadata() Metadata {
	return Metadata{
		EventID:    uuid.New(),
		OccurredAt: time.Now().UTC(),
	}
}
