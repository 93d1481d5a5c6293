package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a piece of user-authored content.
type Post struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	AuthorID  uuid.UUID `gorm:"column:author_id;type:uuid;index;not null"`
	Content   string    `gorm:"column:content;type:text;not null"`
	MediaURL  *string   `gorm:"column:media_url;size:500"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Post) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
