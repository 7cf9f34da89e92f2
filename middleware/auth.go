package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"house-price-api/auth"
	"house-price-api/logging"
	"house-price-api/models"
	"house-price-api/repository"
	"house-price-api/services"

	"github.com/gin-gonic/gin"
)

type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator resolves bearer tokens into identities.
type Authenticator struct {
	tokens *services.AuthService
	users  UserLookup
}

func NewAuthenticator(tokens *services.AuthService, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Resolve validates tokenStr and checks the user still exists and is active.
func (a *Authenticator) Resolve(ctx context.Context, tokenStr string) (auth.Authenticated, error) {
	claims, err := a.tokens.ValidateToken(tokenStr)
	if err != nil {
		return auth.Authenticated{}, auth.ErrUnauthorized
	}
	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.Error().Err(err).Uint("user_id", claims.UserID).Msg("user lookup failed")
			return auth.Authenticated{}, err
		}
		return auth.Authenticated{}, auth.ErrUnauthorized
	}
	if !user.IsActive {
		return auth.Authenticated{}, auth.ErrUnauthorized
	}
	return auth.Authenticated{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role(),
	}, nil
}

// OptionalAuth marks requests without an Authorization header as anonymous.
// A header that is present but not a valid bearer token is rejected.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			auth.SetIdentity(c, auth.Anonymous{})
			c.Next()
			return
		}
		a.authenticate(c, header)
	}
}

// RequireAuth rejects anonymous requests.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c, c.GetHeader("Authorization"))
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := auth.Caller(c)
		if !ok || !caller.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "admin privileges required"})
			return
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, header string) {
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenStr) == "" {
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return
	}

	id, err := a.Resolve(c.Request.Context(), strings.TrimSpace(tokenStr))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": auth.ErrUnauthorized.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
		return
	}
	auth.SetIdentity(c, id)
	c.Next()
}
