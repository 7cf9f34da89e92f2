package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"house-price-api/auth"
	"house-price-api/models"
	"house-price-api/repository"

	"github.com/gin-gonic/gin"
)

type HistoryHandler struct {
	repo *repository.PredictionRepository
}

func NewHistoryHandler(repo *repository.PredictionRepository) *HistoryHandler {
	return &HistoryHandler{repo: repo}
}

type FavoriteRequest struct {
	PredictionID uint    `json:"prediction_id" binding:"required"`
	Notes        *string `json:"notes" binding:"omitempty,max=500"`
}

// List pages through the caller's predictions, newest first.
func (h *HistoryHandler) List(c *gin.Context) {
	caller, _ := auth.Caller(c)
	p, err := ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	rows, err := h.repo.ListByUser(c.Request.Context(), caller.UserID, p.Limit+1, p.After)
	if err != nil {
		respondInternal(c, "failed to load predictions", err)
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}
	if rows == nil {
		rows = []models.PredictionRecord{}
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = EncodeCursor(repository.CursorFor(rows[len(rows)-1]))
	}

	c.JSON(http.StatusOK, CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore})
}

func (h *HistoryHandler) Get(c *gin.Context) {
	caller, _ := auth.Caller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	rec, err := h.repo.GetForUser(c.Request.Context(), caller.UserID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "prediction not found"})
			return
		}
		respondInternal(c, "failed to load prediction", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *HistoryHandler) AddFavorite(c *gin.Context) {
	caller, _ := auth.Caller(c)
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	fav, err := h.repo.AddFavorite(c.Request.Context(), caller.UserID, req.PredictionID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"detail": "prediction not found"})
		case errors.Is(err, repository.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"detail": "prediction already in favorites"})
		default:
			respondInternal(c, "failed to save favorite", err)
		}
		return
	}
	c.JSON(http.StatusCreated, fav)
}

func (h *HistoryHandler) ListFavorites(c *gin.Context) {
	caller, _ := auth.Caller(c)
	favs, err := h.repo.ListFavorites(c.Request.Context(), caller.UserID)
	if err != nil {
		respondInternal(c, "failed to load favorites", err)
		return
	}
	if favs == nil {
		favs = []models.FavoritePrediction{}
	}
	c.JSON(http.StatusOK, favs)
}

func (h *HistoryHandler) DeleteFavorite(c *gin.Context) {
	caller, _ := auth.Caller(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.repo.DeleteFavorite(c.Request.Context(), caller.UserID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "favorite not found"})
			return
		}
		respondInternal(c, "failed to delete favorite", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid id"})
		return 0, false
	}
	return uint(id), true
}
