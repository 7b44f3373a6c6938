package entity

import "time"

type Video struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"-"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int       `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Owner is the public slice of a user embedded in content listings.
type Owner struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// WatchedVideo is a watch history entry: the video with its owner resolved.
type WatchedVideo struct {
	Video
	Owner *Owner `json:"owner"`
}
