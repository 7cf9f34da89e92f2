package handlers

import (
	"context"
	"errors"
	"net/http"

	"house-price-api/auth"
	"house-price-api/features"
	"house-price-api/logging"
	"house-price-api/services"

	"github.com/gin-gonic/gin"
)

type Predictor interface {
	Predict(ctx context.Context, fs features.FeatureSet, id auth.Identity) (services.PredictionResult, error)
}

type PredictionHandler struct {
	svc Predictor
}

func NewPredictionHandler(svc Predictor) *PredictionHandler {
	return &PredictionHandler{svc: svc}
}

type PredictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	PredictionID   *uint   `json:"prediction_id,omitempty"`
}

func (h *PredictionHandler) Predict(c *gin.Context) {
	fs, err := features.DecodeFeatureSet(c.Request.Body)
	if err != nil {
		respondValidation(c, err)
		return
	}

	id := auth.FromContext(c)
	logging.Info().Str("request_id", c.GetString("request_id")).Interface("features", fs).Msg("prediction request")

	res, err := h.svc.Predict(c.Request.Context(), fs, id)
	if err != nil {
		var verr *features.ValidationError
		switch {
		case errors.As(err, &verr):
			respondValidation(c, err)
		case errors.Is(err, services.ErrPersistence):
			respondInternal(c, "failed to save prediction", err)
		default:
			respondInternal(c, "prediction failed", err)
		}
		return
	}

	c.JSON(http.StatusOK, PredictResponse{PredictedPrice: res.Price, PredictionID: res.RecordID})
}
