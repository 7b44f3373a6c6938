package middleware

import (
	"errors"
	"strings"

	"vidtube/pkg/apperror"
	"vidtube/pkg/jwt"
	"vidtube/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenCookie = "accessToken"

	ContextUserID   = "user_id"
	ContextEmail    = "user_email"
	ContextUsername = "user_name"
	ContextFullName = "user_full_name"
)

// AuthMiddleware requires a valid access token from the accessToken cookie or
// an Authorization: Bearer header.
func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			response.Abort(c, apperror.Unauthorized("Unauthorized request"))
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				response.Abort(c, apperror.Unauthorized("Access token expired"))
				return
			}
			response.Abort(c, apperror.Unauthorized("Invalid access token"))
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches the caller's identity when a valid access token is
// present and lets anonymous or invalid requests through unchanged.
func OptionalAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := accessToken(c); token != "" {
			if claims, err := jwtService.ValidateAccessToken(token); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, if any.
func UserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setIdentity(c *gin.Context, claims *jwt.AccessClaims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextEmail, claims.Email)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextFullName, claims.FullName)
}
