package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"vidtube/pkg/apperror"
	"vidtube/pkg/logger"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/repo/persistent"

	"golang.org/x/sync/singleflight"
)

// channelFillTimeout bounds a shared store lookup, which runs detached from
// the cancellation of the caller that started it.
const channelFillTimeout = 10 * time.Second

type ChannelUseCase interface {
	GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.Channel, error)
	GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchedVideo, error)
}

type channelUseCase struct {
	channelRepo persistent.ChannelRepository
	cache       ChannelCache
	group       singleflight.Group
	logger      *logger.Logger
}

func NewChannelUseCase(channelRepo persistent.ChannelRepository, cache ChannelCache, logger *logger.Logger) ChannelUseCase {
	return &channelUseCase{
		channelRepo: channelRepo,
		cache:       cache,
		logger:      logger,
	}
}

func (uc *channelUseCase) GetChannelProfile(ctx context.Context, username, viewerID string) (*entity.Channel, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperror.BadRequest("Username is missing")
	}

	if uc.cache != nil {
		channel, found, err := uc.cache.Get(ctx, username, viewerID)
		if err != nil {
			uc.logger.Warn("Channel cache read failed for %s: %v", username, err)
		} else if found {
			return channel, nil
		}
	}

	v, err, _ := uc.group.Do(username+"|"+viewerID, func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), channelFillTimeout)
		defer cancel()

		channel, err := uc.channelRepo.GetChannelProfile(fillCtx, username, viewerID)
		if err != nil {
			return nil, err
		}
		if uc.cache != nil {
			if err := uc.cache.Set(fillCtx, username, viewerID, channel); err != nil {
				uc.logger.Warn("Channel cache write failed for %s: %v", username, err)
			}
		}
		return channel, nil
	})
	if err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return nil, apperror.NotFound("Channel does not exist")
		}
		uc.logger.Error("Failed to load channel profile: %v", err)
		return nil, apperror.Internal("Something went wrong while loading the channel", err)
	}

	channel := *v.(*entity.Channel)
	return &channel, nil
}

func (uc *channelUseCase) GetWatchHistory(ctx context.Context, userID string) ([]entity.WatchedVideo, error) {
	history, err := uc.channelRepo.GetWatchHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return nil, apperror.NotFound("User not found")
		}
		uc.logger.Error("Failed to load watch history: %v", err)
		return nil, apperror.Internal("Something went wrong while loading watch history", err)
	}
	if history == nil {
		history = []entity.WatchedVideo{}
	}
	return history, nil
}
