package persistent

import (
	"vidtube/pkg/models"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ToUserEntity(m *model.UserModel) *entity.User {
	if m == nil {
		return nil
	}

	history := make([]string, len(m.WatchHistory))
	for i, id := range m.WatchHistory {
		history[i] = id.Hex()
	}

	return &entity.User{
		ID:            m.ID.Hex(),
		Username:      m.Username,
		Email:         m.Email,
		FullName:      m.FullName,
		Avatar:        m.Avatar,
		AvatarAssetID: m.AvatarAssetID,
		CoverImage:    m.CoverImage,
		CoverAssetID:  m.CoverAssetID,
		WatchHistory:  history,
		Password:      m.Password,
		RefreshToken:  m.RefreshToken,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) (*model.UserModel, error) {
	if e == nil {
		return nil, nil
	}

	m := &model.UserModel{
		Username:      e.Username,
		Email:         e.Email,
		FullName:      e.FullName,
		Avatar:        e.Avatar,
		AvatarAssetID: e.AvatarAssetID,
		CoverImage:    e.CoverImage,
		CoverAssetID:  e.CoverAssetID,
		WatchHistory:  []primitive.ObjectID{},
		Password:      e.Password,
		RefreshToken:  e.RefreshToken,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if e.ID != "" {
		id, err := primitive.ObjectIDFromHex(e.ID)
		if err != nil {
			return nil, err
		}
		m.ID = id
	}
	for _, raw := range e.WatchHistory {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, err
		}
		m.WatchHistory = append(m.WatchHistory, id)
	}
	return m, nil
}

func ToChannelEntity(m *model.ChannelModel) *entity.Channel {
	if m == nil {
		return nil
	}

	return &entity.Channel{
		ID:                        m.ID.Hex(),
		FullName:                  m.FullName,
		Username:                  m.Username,
		Email:                     m.Email,
		Avatar:                    m.Avatar,
		CoverImage:                m.CoverImage,
		SubscribersCount:          m.SubscribersCount,
		ChannelsSubscribedToCount: m.ChannelsSubscribedToCount,
		IsSubscribed:              m.IsSubscribed,
	}
}

func ToWatchedVideoEntity(m *model.WatchedVideoModel) entity.WatchedVideo {
	watched := entity.WatchedVideo{
		Video: entity.Video{
			ID:          m.ID.Hex(),
			VideoFile:   m.VideoFile,
			Thumbnail:   m.Thumbnail,
			Title:       m.Title,
			Description: m.Description,
			Duration:    m.Duration,
			Views:       m.Views,
			IsPublished: m.IsPublished,
			CreatedAt:   m.CreatedAt,
			UpdatedAt:   m.UpdatedAt,
		},
	}
	if m.Owner != nil {
		watched.Owner = &entity.Owner{
			FullName: m.Owner.FullName,
			Username: m.Owner.Username,
			Avatar:   m.Owner.Avatar,
		}
	}
	return watched
}

// OrderWatchHistory lays out videos in the order of ids. An id listed twice
// yields the video twice; ids without a resolved video are skipped.
func OrderWatchHistory(ids []string, videos []entity.WatchedVideo) []entity.WatchedVideo {
	byID := make(map[string]entity.WatchedVideo, len(videos))
	for _, v := range videos {
		byID[v.ID] = v
	}

	ordered := make([]entity.WatchedVideo, 0, len(ids))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered
}

func UserRecordToEntity(m *models.User) *entity.User {
	if m == nil {
		return nil
	}

	return &entity.User{
		ID:            m.ID,
		Username:      m.Username,
		Email:         m.Email,
		FullName:      m.FullName,
		Avatar:        m.Avatar,
		AvatarAssetID: m.AvatarAssetID,
		CoverImage:    m.CoverImage,
		CoverAssetID:  m.CoverAssetID,
		Password:      m.Password,
		RefreshToken:  m.RefreshToken,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func UserEntityToRecord(e *entity.User) *models.User {
	if e == nil {
		return nil
	}

	return &models.User{
		ID:            e.ID,
		Username:      e.Username,
		Email:         e.Email,
		FullName:      e.FullName,
		Avatar:        e.Avatar,
		AvatarAssetID: e.AvatarAssetID,
		CoverImage:    e.CoverImage,
		CoverAssetID:  e.CoverAssetID,
		Password:      e.Password,
		RefreshToken:  e.RefreshToken,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func VideoEntityToRecord(e *entity.Video) *models.Video {
	return &models.Video{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		VideoFile:   e.VideoFile,
		Thumbnail:   e.Thumbnail,
		Title:       e.Title,
		Description: e.Description,
		Duration:    e.Duration,
		Views:       e.Views,
		IsPublished: e.IsPublished,
	}
}
