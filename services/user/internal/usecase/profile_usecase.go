package usecase

import (
	"context"
	"errors"
	"strings"

	"vidtube/pkg/apperror"
	"vidtube/pkg/logger"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/repo/persistent"
)

type ProfileUseCase interface {
	GetCurrentUser(ctx context.Context, userID string) (*entity.User, error)
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*entity.User, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*entity.User, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*entity.User, error)
}

type profileUseCase struct {
	userRepo persistent.UserRepository
	media    MediaStorage
	cache    ChannelCache
	logger   *logger.Logger
}

func NewProfileUseCase(
	userRepo persistent.UserRepository,
	media MediaStorage,
	cache ChannelCache,
	logger *logger.Logger,
) ProfileUseCase {
	return &profileUseCase{
		userRepo: userRepo,
		media:    media,
		cache:    cache,
		logger:   logger,
	}
}

func (uc *profileUseCase) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, uc.lookupError(err)
	}
	return user.Public(), nil
}

func (uc *profileUseCase) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*entity.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return nil, apperror.BadRequest("All fields are required")
	}

	user, err := uc.userRepo.UpdateAccount(ctx, userID, fullName, email)
	if err != nil {
		if errors.Is(err, persistent.ErrDuplicate) {
			return nil, apperror.Conflict("Email is already in use")
		}
		return nil, uc.lookupError(err)
	}

	uc.invalidate(ctx, user.Username)
	return user.Public(), nil
}

func (uc *profileUseCase) UpdateAvatar(ctx context.Context, userID, localPath string) (*entity.User, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("Avatar file is missing")
	}
	return uc.replaceImage(ctx, userID, localPath, entity.ImageAvatar)
}

func (uc *profileUseCase) UpdateCoverImage(ctx context.Context, userID, localPath string) (*entity.User, error) {
	if localPath == "" {
		return nil, apperror.BadRequest("Cover image file is missing")
	}
	return uc.replaceImage(ctx, userID, localPath, entity.ImageCover)
}

func (uc *profileUseCase) replaceImage(ctx context.Context, userID, localPath string, slot entity.ImageSlot) (*entity.User, error) {
	current, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, uc.lookupError(err)
	}

	uploaded := uc.media.Upload(ctx, localPath)
	if uploaded.Failed {
		return nil, apperror.Internal("Error while uploading "+string(slot), uploaded.Err)
	}

	user, err := uc.userRepo.UpdateImage(ctx, userID, slot, uploaded.URL, uploaded.AssetID)
	if err != nil {
		uc.deleteAsset(ctx, uploaded.AssetID)
		return nil, uc.lookupError(err)
	}

	previous := current.AvatarAssetID
	if slot == entity.ImageCover {
		previous = current.CoverAssetID
	}
	uc.deleteAsset(ctx, previous)

	uc.invalidate(ctx, user.Username)
	return user.Public(), nil
}

func (uc *profileUseCase) lookupError(err error) error {
	if errors.Is(err, persistent.ErrNotFound) {
		return apperror.NotFound("User not found")
	}
	uc.logger.Error("User store failure: %v", err)
	return apperror.Internal("Something went wrong while updating the profile", err)
}

func (uc *profileUseCase) deleteAsset(ctx context.Context, assetID string) {
	if assetID == "" {
		return
	}
	if err := uc.media.Delete(ctx, assetID); err != nil {
		uc.logger.Warn("Failed to delete asset %s: %v", assetID, err)
	}
}

func (uc *profileUseCase) invalidate(ctx context.Context, username string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, username); err != nil {
		uc.logger.Warn("Failed to invalidate cached channel %s: %v", username, err)
	}
}
