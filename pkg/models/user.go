package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            string         `gorm:"type:uuid;primary_key" json:"id"`
	Username      string         `gorm:"uniqueIndex;not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	FullName      string         `gorm:"not null;index" json:"full_name"`
	Avatar        string         `gorm:"type:varchar(500);not null" json:"avatar"`
	AvatarAssetID string         `gorm:"type:varchar(255)" json:"-"`
	CoverImage    string         `gorm:"type:varchar(500)" json:"cover_image"`
	CoverAssetID  string         `gorm:"type:varchar(255)" json:"-"`
	Password      string         `gorm:"not null" json:"-"`
	RefreshToken  string         `gorm:"type:text" json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
