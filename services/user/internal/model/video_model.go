package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VideoModel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Owner       primitive.ObjectID `bson:"owner"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int                `bson:"views"`
	IsPublished bool               `bson:"isPublished"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

type OwnerModel struct {
	FullName string `bson:"fullName"`
	Username string `bson:"username"`
	Avatar   string `bson:"avatar"`
}

// WatchedVideoModel is a video joined with its owner's public fields.
type WatchedVideoModel struct {
	ID          primitive.ObjectID `bson:"_id"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Views       int                `bson:"views"`
	IsPublished bool               `bson:"isPublished"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	Owner       *OwnerModel        `bson:"owner"`
}

// WatchHistoryModel is the output of the watch history pipeline: the stored
// order plus the resolved videos in arbitrary order.
type WatchHistoryModel struct {
	WatchHistory []primitive.ObjectID `bson:"watchHistory"`
	Videos       []WatchedVideoModel  `bson:"videos"`
}
