package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Video struct {
	ID          string         `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID     string         `gorm:"type:uuid;not null;index" json:"owner_id"`
	VideoFile   string         `gorm:"type:varchar(500);not null" json:"video_file"`
	Thumbnail   string         `gorm:"type:varchar(500);not null" json:"thumbnail"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Duration    float64        `gorm:"not null;default:0" json:"duration"`
	Views       int            `gorm:"default:0" json:"views"`
	IsPublished bool           `gorm:"default:true" json:"is_published"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Owner User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
