package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge in the social graph.
type Follow struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	FollowerID uuid.UUID `gorm:"column:follower_id;type:uuid;index;not null;uniqueIndex:uq_follow"`
	FollowedID uuid.UUID `gorm:"column:followed_id;type:uuid;index;not null;uniqueIndex:uq_follow"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
