package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	UsersCollection         = "users"
	VideosCollection        = "videos"
	SubscriptionsCollection = "subscriptions"
)

type UserModel struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Username      string               `bson:"username"`
	Email         string               `bson:"email"`
	FullName      string               `bson:"fullName"`
	Avatar        string               `bson:"avatar"`
	AvatarAssetID string               `bson:"avatarAssetId,omitempty"`
	CoverImage    string               `bson:"coverImage"`
	CoverAssetID  string               `bson:"coverAssetId,omitempty"`
	WatchHistory  []primitive.ObjectID `bson:"watchHistory"`
	Password      string               `bson:"password"`
	RefreshToken  string               `bson:"refreshToken,omitempty"`
	CreatedAt     time.Time            `bson:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt"`
}

// ChannelModel is the projected output of the channel profile pipeline.
type ChannelModel struct {
	ID                        primitive.ObjectID `bson:"_id"`
	FullName                  string             `bson:"fullName"`
	Username                  string             `bson:"username"`
	Email                     string             `bson:"email"`
	Avatar                    string             `bson:"avatar"`
	CoverImage                string             `bson:"coverImage"`
	SubscribersCount          int64              `bson:"subscribersCount"`
	ChannelsSubscribedToCount int64              `bson:"channelsSubscribedToCount"`
	IsSubscribed              bool               `bson:"isSubscribed"`
}
