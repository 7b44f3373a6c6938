package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vidtube/pkg/apperror"
	"vidtube/pkg/logger"
	"vidtube/pkg/middleware"
	"vidtube/pkg/response"
	"vidtube/services/user/internal/entity"
	"vidtube/services/user/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RefreshTokenCookie = "refreshToken"

type Options struct {
	UploadDir      string
	MaxUploadBytes int64
	CookieDomain   string
	CookieSecure   bool
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
}

type UserHandler struct {
	sessions usecase.SessionUseCase
	profiles usecase.ProfileUseCase
	channels usecase.ChannelUseCase
	opts     Options
	logger   *logger.Logger
}

func NewUserHandler(
	sessions usecase.SessionUseCase,
	profiles usecase.ProfileUseCase,
	channels usecase.ChannelUseCase,
	opts Options,
	logger *logger.Logger,
) *UserHandler {
	return &UserHandler{
		sessions: sessions,
		profiles: profiles,
		channels: channels,
		opts:     opts,
		logger:   logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	UserName string `json:"userName" example:"alice"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	User         *entity.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Register godoc
// @Summary      Register a new user
// @Description  Create an account. The avatar file is required, the cover image is optional.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName    formData  string  true   "Display name"
// @Param        userName    formData  string  true   "Unique username"
// @Param        email       formData  string  true   "Unique email"
// @Param        password    formData  string  true   "Password"
// @Param        avatar      formData  file    true   "Avatar image"
// @Param        coverImage  formData  file    false  "Cover image"
// @Success      201  {object}  response.APIResponse{data=entity.User}
// @Failure      400  {object}  response.APIError
// @Failure      409  {object}  response.APIError
// @Failure      500  {object}  response.APIError
// @Router       /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	avatarPath, err := h.saveUpload(c, "avatar")
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.cleanup(avatarPath)

	coverPath, err := h.saveUpload(c, "coverImage")
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.cleanup(coverPath)

	user, err := h.sessions.Register(c.Request.Context(), usecase.RegisterInput{
		FullName:       c.PostForm("fullName"),
		Username:       c.PostForm("userName"),
		Email:          c.PostForm("email"),
		Password:       c.PostForm("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, user, "User registered successfully")
}

// Login godoc
// @Summary      Log in
// @Description  Authenticate with email or username and password. Sets accessToken and refreshToken cookies.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200  {object}  response.APIResponse{data=LoginResponse}
// @Failure      400  {object}  response.APIError
// @Failure      401  {object}  response.APIError
// @Failure      404  {object}  response.APIError
// @Router       /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.BadRequest("Invalid request body"))
		return
	}

	result, err := h.sessions.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Username: req.UserName,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.setSessionCookies(c, result.Tokens)
	response.Success(c, http.StatusOK, LoginResponse{
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}, "User logged in successfully")
}

// Logout godoc
// @Summary      Log out
// @Description  Invalidate the stored refresh token and clear both session cookies.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.APIResponse
// @Failure      401  {object}  response.APIError
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), userID); err != nil {
		h.fail(c, err)
		return
	}

	h.clearSessionCookies(c)
	response.Success(c, http.StatusOK, nil, "User logged out successfully")
}

// RefreshToken godoc
// @Summary      Refresh the session
// @Description  Rotate the refresh token read from the refreshToken cookie or the request body.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  false  "Refresh token when no cookie is sent"
// @Success      200  {object}  response.APIResponse{data=entity.TokenPair}
// @Failure      401  {object}  response.APIError
// @Failure      500  {object}  response.APIError
// @Router       /users/refresh-token [post]
func (h *UserHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}

	result, err := h.sessions.Refresh(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch r := result.(type) {
	case entity.Rotated:
		h.setSessionCookies(c, r.Tokens)
		response.Success(c, http.StatusOK, r.Tokens, "Access token refreshed")
	case entity.Rejected:
		h.logger.Debug("Refresh rejected: %s", r.Reason)
		h.fail(c, apperror.Unauthorized(r.Reason.Message()))
	default:
		h.fail(c, apperror.Internal("internal server error", nil))
	}
}

// ChangePassword godoc
// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ChangePasswordRequest  true  "Old and new password"
// @Success      200  {object}  response.APIResponse
// @Failure      400  {object}  response.APIError
// @Failure      401  {object}  response.APIError
// @Router       /users/change-password [post]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.BadRequest("Old and new password are required"))
		return
	}

	if err := h.sessions.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, nil, "Password changed successfully")
}

// GetCurrentUser godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.APIResponse{data=entity.User}
// @Failure      401  {object}  response.APIError
// @Failure      404  {object}  response.APIError
// @Router       /users/current-user [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	user, err := h.profiles.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount godoc
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      UpdateAccountRequest  true  "New full name and email"
// @Success      200  {object}  response.APIResponse{data=entity.User}
// @Failure      400  {object}  response.APIError
// @Failure      409  {object}  response.APIError
// @Router       /users/update-account [patch]
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperror.BadRequest("Invalid request body"))
		return
	}

	user, err := h.profiles.UpdateAccountDetails(c.Request.Context(), userID, req.FullName, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar godoc
// @Summary      Replace avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200  {object}  response.APIResponse{data=entity.User}
// @Failure      400  {object}  response.APIError
// @Failure      500  {object}  response.APIError
// @Router       /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	h.replaceImage(c, "avatar", h.profiles.UpdateAvatar, "Avatar updated successfully")
}

// UpdateCoverImage godoc
// @Summary      Replace cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200  {object}  response.APIResponse{data=entity.User}
// @Failure      400  {object}  response.APIError
// @Failure      500  {object}  response.APIError
// @Router       /users/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	h.replaceImage(c, "coverImage", h.profiles.UpdateCoverImage, "Cover image updated successfully")
}

// GetChannelProfile godoc
// @Summary      Channel profile
// @Description  Public profile with subscriber counts. isSubscribed reflects the caller when authenticated.
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Channel username"
// @Success      200  {object}  response.APIResponse{data=entity.Channel}
// @Failure      400  {object}  response.APIError
// @Failure      404  {object}  response.APIError
// @Router       /users/c/{username} [get]
func (h *UserHandler) GetChannelProfile(c *gin.Context) {
	viewerID, _ := middleware.UserID(c)

	channel, err := h.channels.GetChannelProfile(c.Request.Context(), c.Param("username"), viewerID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, channel, "User channel fetched successfully")
}

// GetWatchHistory godoc
// @Summary      Watch history
// @Description  Watched videos in stored order, each with its owner's public profile.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.APIResponse{data=[]entity.WatchedVideo}
// @Failure      401  {object}  response.APIError
// @Router       /users/history [get]
func (h *UserHandler) GetWatchHistory(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	history, err := h.channels.GetWatchHistory(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, history, "Watch history fetched successfully")
}

type imageUpdater func(ctx context.Context, userID, localPath string) (*entity.User, error)

func (h *UserHandler) replaceImage(c *gin.Context, field string, update imageUpdater, message string) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	localPath, err := h.saveUpload(c, field)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer h.cleanup(localPath)

	user, err := update(c.Request.Context(), userID, localPath)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, user, message)
}

func (h *UserHandler) requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.fail(c, apperror.Unauthorized("Unauthorized request"))
	}
	return userID, ok
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	appErr := response.Error(c, err)
	if appErr.Type == apperror.TypeInternal {
		h.logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
}

// saveUpload stores the multipart file under field in the upload directory
// and returns its path. A missing file yields an empty path and no error.
func (h *UserHandler) saveUpload(c *gin.Context, field string) (string, error) {
	if c.Request.MultipartForm == nil && h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes(h.opts.MaxUploadBytes))
	}

	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", apperror.BadRequest("Request exceeds the maximum upload size")
		}
		return "", apperror.BadRequest("Invalid multipart form")
	}

	if h.opts.MaxUploadBytes > 0 && file.Size > h.opts.MaxUploadBytes {
		return "", apperror.BadRequest(fmt.Sprintf("%s exceeds the maximum upload size", field))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", apperror.BadRequest(fmt.Sprintf("%s must be an image", field))
	}

	if err := os.MkdirAll(h.opts.UploadDir, 0o755); err != nil {
		return "", apperror.Internal("Failed to store upload", err)
	}

	dst := filepath.Join(h.opts.UploadDir, uuid.NewString()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", apperror.Internal("Failed to store upload", err)
	}
	return dst, nil
}

func (h *UserHandler) cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("Failed to remove temp upload %s: %v", path, err)
	}
}

func (h *UserHandler) setSessionCookies(c *gin.Context, tokens entity.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, int(h.opts.AccessTTL.Seconds()), "/", h.opts.CookieDomain, h.opts.CookieSecure, true)
	c.SetCookie(RefreshTokenCookie, tokens.RefreshToken, int(h.opts.RefreshTTL.Seconds()), "/", h.opts.CookieDomain, h.opts.CookieSecure, true)
}

func (h *UserHandler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.opts.CookieDomain, h.opts.CookieSecure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", h.opts.CookieDomain, h.opts.CookieSecure, true)
}

// maxRequestBytes caps a whole multipart request: every image slot at full
// size plus room for the text fields.
func maxRequestBytes(perFile int64) int64 {
	return perFile*maxImageSlots + 1<<20
}

const maxImageSlots = 2

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}
