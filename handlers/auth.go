package handlers

import (
	"errors"
	"net/http"
	"time"

	"house-price-api/auth"
	"house-price-api/models"
	"house-price-api/repository"
	"house-price-api/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users       *repository.UserRepository
	authService *services.AuthService
}

func NewAuthHandler(users *repository.UserRepository, authService *services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		respondInternal(c, "failed to hash password", err)
		return
	}

	user := models.User{Email: req.Email, Username: req.Username, Password: hash, IsActive: true}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"detail": "email or username already registered"})
			return
		}
		respondInternal(c, "failed to create user", err)
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		respondInternal(c, "failed to generate token", err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{AccessToken: token, TokenType: "bearer", User: user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
			return
		}
		respondInternal(c, "failed to load user", err)
		return
	}

	if !user.IsActive || !h.authService.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "invalid credentials"})
		return
	}

	now := time.Now().UTC()
	if err := h.users.TouchLastLogin(c.Request.Context(), user.ID, now); err != nil {
		respondInternal(c, "failed to record login", err)
		return
	}
	user.LastLogin = &now

	token, err := h.authService.GenerateToken(*user)
	if err != nil {
		respondInternal(c, "failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{AccessToken: token, TokenType: "bearer", User: *user})
}

// Logout is stateless; clients drop their token.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := auth.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "user not found"})
			return
		}
		respondInternal(c, "failed to load user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
