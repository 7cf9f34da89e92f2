package handlers

import (
	"net/http"

	"house-price-api/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	svc *services.AnalyticsService
}

func NewAnalyticsHandler(svc *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) FeatureImportance(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.FeatureImportance(c.Request.Context()))
}

func (h *AnalyticsHandler) PriceTrends(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.PriceTrends())
}

func (h *AnalyticsHandler) PredictionAccuracy(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.PredictionAccuracy())
}
