package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxEvent is a pending bus message written in the same transaction as the
// business mutation that produced it. Published never reverts to false; only
// the dispatcher flips it after a confirmed publish.
type OutboxEvent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Topic     string    `gorm:"column:topic;size:100;index"`
	EventType string    `gorm:"column:event_type;size:50;not null"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	Published bool      `gorm:"column:published;not null;default:false;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (e *OutboxEvent) TableName() string {
	return "event_outbox"
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
