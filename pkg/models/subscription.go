package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription is a subscriber -> channel edge. Both ends are users.
type Subscription struct {
	ID           string         `gorm:"type:uuid;primary_key" json:"id"`
	SubscriberID string         `gorm:"type:uuid;not null;uniqueIndex:idx_subscriber_channel" json:"subscriber_id"`
	ChannelID    string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_subscriber_channel" json:"channel_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
