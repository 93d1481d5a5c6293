package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Like records a user liking a post, at most once per pair.
type Like struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PostID    uuid.UUID `gorm:"column:post_id;type:uuid;index;not null;uniqueIndex:uq_like"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;index;not null;uniqueIndex:uq_like"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (l *Like) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
