package usecase

import (
	"context"

	"vidtube/pkg/s3"
	"vidtube/services/user/internal/entity"
)

// MediaStorage uploads local files to the media host. Upload removes the
// local file on every path.
type MediaStorage interface {
	Upload(ctx context.Context, localPath string) s3.UploadResult
	Delete(ctx context.Context, assetID string) error
}

// ChannelCache is the read-through cache for channel profiles. A nil cache
// disables caching.
type ChannelCache interface {
	Get(ctx context.Context, username, viewerID string) (*entity.Channel, bool, error)
	Set(ctx context.Context, username, viewerID string, channel *entity.Channel) error
	Invalidate(ctx context.Context, username string) error
}
