package persistent

import (
	"context"
	"errors"

	"vidtube/services/user/internal/entity"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	// Create inserts user and fills in its ID and timestamps. It returns
	// ErrDuplicate when the username or email is taken.
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// FindByEmailOrUsername matches either field; empty arguments are ignored.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error)
	UpdateAccount(ctx context.Context, id, fullName, email string) (*entity.User, error)
	UpdateImage(ctx context.Context, id string, slot entity.ImageSlot, url, assetID string) (*entity.User, error)
	SetPassword(ctx context.Context, id, hash string) error
	// SetRefreshToken overwrites the stored token unconditionally. An empty
	// token clears it.
	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken replaces the stored token with next only while it
	// still equals current, as a single conditional write. It reports whether
	// the swap happened.
	RotateRefreshToken(ctx context.Context, id, current, next string) (bool, error)
}

type ChannelRepository interface {
	// GetChannelProfile resolves a username to its public profile. viewerID
	// may be empty.
	GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.Channel, error)
	// GetWatchHistory returns the user's watched videos in stored order.
	GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchedVideo, error)
}

// ContentRepository writes the records the service only reads: videos,
// subscriptions and history entries. Fixtures use it.
type ContentRepository interface {
	CreateVideo(ctx context.Context, video *entity.Video) error
	Subscribe(ctx context.Context, subscriberID, channelID string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}
