package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"vidtube/pkg/apperror"
	"vidtube/pkg/jwt"
	"vidtube/pkg/logger"
	"vidtube/pkg/password"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/repo/persistent"
)

type RegisterInput struct {
	FullName       string
	Username       string
	Email          string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

type LoginInput struct {
	Email    string
	Username string
	Password string
}

type LoginResult struct {
	User   *entity.User     `json:"user"`
	Tokens entity.TokenPair `json:"-"`
}

type SessionUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*entity.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// Refresh returns an error only for internal faults. Every client-side
	// problem with the token is a Rejected result.
	Refresh(ctx context.Context, refreshToken string) (entity.RefreshResult, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type sessionUseCase struct {
	userRepo   persistent.UserRepository
	jwtService *jwt.Service
	hasher     password.Hasher
	media      MediaStorage
	logger     *logger.Logger
}

func NewSessionUseCase(
	userRepo persistent.UserRepository,
	jwtService *jwt.Service,
	hasher password.Hasher,
	media MediaStorage,
	logger *logger.Logger,
) SessionUseCase {
	return &sessionUseCase{
		userRepo:   userRepo,
		jwtService: jwtService,
		hasher:     hasher,
		media:      media,
		logger:     logger,
	}
}

func (uc *sessionUseCase) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if fullName == "" || username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperror.BadRequest("All fields are required")
	}

	_, err := uc.userRepo.FindByEmailOrUsername(ctx, email, username)
	switch {
	case err == nil:
		return nil, apperror.Conflict("User with email or username already exists")
	case !errors.Is(err, persistent.ErrNotFound):
		uc.logger.Error("Failed to check existing user: %v", err)
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}

	if in.AvatarPath == "" {
		return nil, apperror.BadRequest("Avatar file is required")
	}

	avatar := uc.media.Upload(ctx, in.AvatarPath)
	if avatar.Failed {
		return nil, apperror.Internal("Failed to upload avatar", avatar.Err)
	}

	user := &entity.User{
		FullName:      fullName,
		Username:      username,
		Email:         email,
		Avatar:        avatar.URL,
		AvatarAssetID: avatar.AssetID,
	}

	if in.CoverImagePath != "" {
		cover := uc.media.Upload(ctx, in.CoverImagePath)
		if cover.Failed {
			uc.logger.Warn("Cover image upload failed for %s, continuing without it: %v", username, cover.Err)
		} else {
			user.CoverImage = cover.URL
			user.CoverAssetID = cover.AssetID
		}
	}

	hashed, err := uc.hasher.Hash(in.Password)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		uc.discardAssets(ctx, user.AvatarAssetID, user.CoverAssetID)
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}
	user.Password = hashed

	if err := uc.userRepo.Create(ctx, user); err != nil {
		uc.discardAssets(ctx, user.AvatarAssetID, user.CoverAssetID)
		if errors.Is(err, persistent.ErrDuplicate) {
			return nil, apperror.Conflict("User with email or username already exists")
		}
		uc.logger.Error("Failed to create user: %v", err)
		return nil, apperror.Internal("Something went wrong while registering the user", err)
	}

	uc.logger.Info("User registered: %s", user.ID)
	return user.Public(), nil
}

func (uc *sessionUseCase) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if email == "" && username == "" {
		return nil, apperror.BadRequest("Username or email is required")
	}

	user, err := uc.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return nil, apperror.NotFound("User does not exist")
		}
		uc.logger.Error("Failed to look up user: %v", err)
		return nil, apperror.Internal("Something went wrong while logging in", err)
	}

	if err := uc.hasher.Compare(user.Password, in.Password); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, apperror.Unauthorized("Invalid user credentials")
		}
		uc.logger.Error("Failed to verify password: %v", err)
		return nil, apperror.Internal("Something went wrong while logging in", err)
	}

	tokens, err := uc.issueTokens(user)
	if err != nil {
		return nil, err
	}
	if err := uc.userRepo.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		uc.logger.Error("Failed to store refresh token: %v", err)
		return nil, apperror.Internal("Something went wrong while generating refresh and access token", err)
	}

	return &LoginResult{User: user.Public(), Tokens: tokens}, nil
}

func (uc *sessionUseCase) Refresh(ctx context.Context, refreshToken string) (entity.RefreshResult, error) {
	if refreshToken == "" {
		return entity.Rejected{Reason: entity.RejectMissing}, nil
	}

	userID, err := uc.jwtService.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return entity.Rejected{Reason: entity.RejectExpired}, nil
		}
		return entity.Rejected{Reason: entity.RejectInvalid}, nil
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return entity.Rejected{Reason: entity.RejectUnknownUser}, nil
		}
		uc.logger.Error("Failed to load user for refresh: %v", err)
		return nil, apperror.Internal("Something went wrong while refreshing the session", err)
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(refreshToken)) != 1 {
		return entity.Rejected{Reason: entity.RejectSuperseded}, nil
	}

	tokens, err := uc.issueTokens(user)
	if err != nil {
		return nil, err
	}

	rotated, err := uc.userRepo.RotateRefreshToken(ctx, user.ID, refreshToken, tokens.RefreshToken)
	if err != nil {
		uc.logger.Error("Failed to rotate refresh token: %v", err)
		return nil, apperror.Internal("Something went wrong while refreshing the session", err)
	}
	if !rotated {
		// Another refresh with the same token won the write.
		return entity.Rejected{Reason: entity.RejectSuperseded}, nil
	}

	return entity.Rotated{Tokens: tokens}, nil
}

func (uc *sessionUseCase) Logout(ctx context.Context, userID string) error {
	err := uc.userRepo.SetRefreshToken(ctx, userID, "")
	if err != nil && !errors.Is(err, persistent.ErrNotFound) {
		uc.logger.Error("Failed to clear refresh token: %v", err)
		return apperror.Internal("Something went wrong while logging out", err)
	}
	return nil
}

func (uc *sessionUseCase) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(oldPassword) == "" || strings.TrimSpace(newPassword) == "" {
		return apperror.BadRequest("Old and new password are required")
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, persistent.ErrNotFound) {
			return apperror.NotFound("User not found")
		}
		uc.logger.Error("Failed to load user: %v", err)
		return apperror.Internal("Something went wrong while changing password", err)
	}

	if err := uc.hasher.Compare(user.Password, oldPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return apperror.Unauthorized("Invalid old password")
		}
		uc.logger.Error("Failed to verify password: %v", err)
		return apperror.Internal("Something went wrong while changing password", err)
	}

	hashed, err := uc.hasher.Hash(newPassword)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return apperror.Internal("Something went wrong while changing password", err)
	}

	if err := uc.userRepo.SetPassword(ctx, user.ID, hashed); err != nil {
		uc.logger.Error("Failed to store password: %v", err)
		return apperror.Internal("Something went wrong while changing password", err)
	}
	return nil
}

func (uc *sessionUseCase) issueTokens(user *entity.User) (entity.TokenPair, error) {
	access, err := uc.jwtService.GenerateAccessToken(jwt.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		uc.logger.Error("Failed to generate access token: %v", err)
		return entity.TokenPair{}, apperror.Internal("Something went wrong while generating refresh and access token", err)
	}

	refresh, err := uc.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		uc.logger.Error("Failed to generate refresh token: %v", err)
		return entity.TokenPair{}, apperror.Internal("Something went wrong while generating refresh and access token", err)
	}

	return entity.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// discardAssets removes uploads that no record ended up referencing.
func (uc *sessionUseCase) discardAssets(ctx context.Context, assetIDs ...string) {
	for _, id := range assetIDs {
		if id == "" {
			continue
		}
		if err := uc.media.Delete(ctx, id); err != nil {
			uc.logger.Warn("Failed to delete orphaned asset %s: %v", id, err)
		}
	}
}
