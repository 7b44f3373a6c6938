package entity

import "time"

// User is an account. Password holds the bcrypt hash and RefreshToken the
// single refresh token currently accepted for the account; neither is ever
// serialized.
type User struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	Avatar        string    `json:"avatar"`
	AvatarAssetID string    `json:"-"`
	CoverImage    string    `json:"coverImage"`
	CoverAssetID  string    `json:"-"`
	WatchHistory  []string  `json:"watchHistory"`
	Password      string    `json:"-"`
	RefreshToken  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Public returns a copy without credentials.
func (u *User) Public() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Password = ""
	out.RefreshToken = ""
	if out.WatchHistory == nil {
		out.WatchHistory = []string{}
	}
	return &out
}

type ImageSlot string

const (
	ImageAvatar ImageSlot = "avatar"
	ImageCover  ImageSlot = "coverImage"
)
