package persistent

import (
	"context"
	"fmt"

	"vidtube/pkg/models"
	"vidtube/services/user/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postgresContentRepository struct {
	db *gorm.DB
}

func NewPostgresContentRepository(db *gorm.DB) ContentRepository {
	return &postgresContentRepository{db: db}
}

func (r *postgresContentRepository) CreateVideo(ctx context.Context, video *entity.Video) error {
	record := VideoEntityToRecord(video)
	if err := r.db.WithContext(ctx).Omit("Owner").Create(record).Error; err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	video.ID = record.ID
	video.CreatedAt = record.CreatedAt
	video.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *postgresContentRepository) Subscribe(ctx context.Context, subscriberID, channelID string) error {
	subscription := &models.Subscription{
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(subscription).Error
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	return nil
}

func (r *postgresContentRepository) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		err := tx.Model(&models.WatchHistory{}).
			Select("COALESCE(MAX(position) + 1, 0)").
			Where("user_id = ?", userID).
			Scan(&next).Error
		if err != nil {
			return fmt.Errorf("failed to read history position: %w", err)
		}

		entry := &models.WatchHistory{UserID: userID, VideoID: videoID, Position: next}
		if err := tx.Omit("Video").Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append watch history: %w", err)
		}
		return nil
	})
}
