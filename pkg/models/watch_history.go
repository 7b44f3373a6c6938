package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WatchHistory is one entry of a user's ordered history. Position is the
// index within the user's list.
type WatchHistory struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_watch_history_position" json:"user_id"`
	VideoID   string    `gorm:"type:uuid;not null;index" json:"video_id"`
	Position  int       `gorm:"not null;uniqueIndex:idx_watch_history_position" json:"position"`
	CreatedAt time.Time `json:"created_at"`

	Video Video `gorm:"foreignKey:VideoID" json:"-"`
}

func (WatchHistory) TableName() string {
	return "watch_history"
}

func (w *WatchHistory) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}
