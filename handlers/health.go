package handlers

import (
	"net/http"

	"house-price-api/estimator"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	model *estimator.Forest
}

func NewHealthHandler(model *estimator.Forest) *HealthHandler {
	return &HealthHandler{model: model}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to House Predictor API"})
}

func (h *HealthHandler) Health(c *gin.Context) {
	if h.model == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Model health check failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Model is loaded and ready",
		"model": gin.H{
			"features": h.model.NumFeatures(),
			"trees":    h.model.NumTrees(),
		},
	})
}
