package persistent

import (
	"context"
	"fmt"
	"time"

	"vidtube/pkg/models"
	"vidtube/services/user/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const channelProfileQuery = `
SELECT u.id, u.full_name, u.username, u.email, u.avatar, u.cover_image,
	(SELECT COUNT(*) FROM subscriptions s
		WHERE s.channel_id = u.id AND s.deleted_at IS NULL) AS subscribers_count,
	(SELECT COUNT(*) FROM subscriptions s
		WHERE s.subscriber_id = u.id AND s.deleted_at IS NULL) AS channels_subscribed_to_count,
	EXISTS (SELECT 1 FROM subscriptions s
		WHERE s.channel_id = u.id AND s.subscriber_id::text = ? AND s.deleted_at IS NULL) AS is_subscribed
FROM users u
WHERE u.username = ? AND u.deleted_at IS NULL
LIMIT 1`

type channelRow struct {
	ID                        string
	FullName                  string
	Username                  string
	Email                     string
	Avatar                    string
	CoverImage                string
	SubscribersCount          int64
	ChannelsSubscribedToCount int64
	IsSubscribed              bool
}

type watchedVideoRow struct {
	ID            string
	VideoFile     string
	Thumbnail     string
	Title         string
	Description   string
	Duration      float64
	Views         int
	IsPublished   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	OwnerFullName *string
	OwnerUsername *string
	OwnerAvatar   *string
}

type postgresChannelRepository struct {
	db *gorm.DB
}

func NewPostgresChannelRepository(db *gorm.DB) ChannelRepository {
	return &postgresChannelRepository{db: db}
}

func (r *postgresChannelRepository) GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.Channel, error) {
	var rows []channelRow
	if err := r.db.WithContext(ctx).Raw(channelProfileQuery, viewerID, username).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query channel profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	row := rows[0]
	return &entity.Channel{
		ID:                        row.ID,
		FullName:                  row.FullName,
		Username:                  row.Username,
		Email:                     row.Email,
		Avatar:                    row.Avatar,
		CoverImage:                row.CoverImage,
		SubscribersCount:          row.SubscribersCount,
		ChannelsSubscribedToCount: row.ChannelsSubscribedToCount,
		IsSubscribed:              row.IsSubscribed,
	}, nil
}

func (r *postgresChannelRepository) GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchedVideo, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrNotFound
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	var rows []watchedVideoRow
	err := r.db.WithContext(ctx).
		Table("watch_history AS wh").
		Select(`v.id, v.video_file, v.thumbnail, v.title, v.description, v.duration, v.views,
			v.is_published, v.created_at, v.updated_at,
			o.full_name AS owner_full_name, o.username AS owner_username, o.avatar AS owner_avatar`).
		Joins("JOIN videos v ON v.id = wh.video_id AND v.deleted_at IS NULL").
		Joins("LEFT JOIN users o ON o.id = v.owner_id AND o.deleted_at IS NULL").
		Where("wh.user_id = ?", userID).
		Order("wh.position ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}

	history := make([]entity.WatchedVideo, 0, len(rows))
	for _, row := range rows {
		watched := entity.WatchedVideo{
			Video: entity.Video{
				ID:          row.ID,
				VideoFile:   row.VideoFile,
				Thumbnail:   row.Thumbnail,
				Title:       row.Title,
				Description: row.Description,
				Duration:    row.Duration,
				Views:       row.Views,
				IsPublished: row.IsPublished,
				CreatedAt:   row.CreatedAt,
				UpdatedAt:   row.UpdatedAt,
			},
		}
		if row.OwnerUsername != nil {
			watched.Owner = &entity.Owner{
				FullName: deref(row.OwnerFullName),
				Username: *row.OwnerUsername,
				Avatar:   deref(row.OwnerAvatar),
			}
		}
		history = append(history, watched)
	}
	return history, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
