package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrUnknownTopic signals a message arrived on a topic outside the closed set.
var ErrUnknownTopic = errors.New("unknown event topic")

// MalformedEventError wraps a deserialization failure for a known topic.
type MalformedEventError struct {
	Topic string
	Err   error
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed event on topic %s: %v", e.Topic, e.Err)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// Decode deserializes a bus message into its typed event. Unknown topics yield
// ErrUnknownTopic; bad payloads for known topics yield MalformedEventError.
func Decode(topic string, data []byte) (Event, error) {
	var (
		event Event
		err   error
	)
	switch topic {
	case TopicUserCreated:
		event, err = decodeInto[UserCreatedEvent](data)
	case TopicUserFollowed:
		event, err = decodeInto[UserFollowedEvent](data)
	case TopicPostCreated:
		event, err = decodeInto[PostCreatedEvent](data)
	case TopicPostLiked:
		event, err = decodeInto[PostLikedEvent](data)
	case TopicCommentCreated:
		event, err = decodeInto[CommentCreatedEvent](data)
	default:
		return nil, ErrUnknownTopic
	}
	if err != nil {
		return nil, &MalformedEventError{Topic: topic, Err: err}
	}
	return event, nil
}

func decodeInto[E Event](data []byte) (Event, error) {
	var event E
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	if event.Meta().EventID == uuid.Nil {
		return nil, errors.New("missing event_id")
	}
	return event, nil
}
