package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"house-price-api/auth"
	"house-price-api/estimator"
	"house-price-api/features"
	"house-price-api/logging"
	"house-price-api/metrics"
	"house-price-api/models"
)

var (
	// ErrPrediction covers failures while vectorising input or running the model.
	ErrPrediction = errors.New("prediction failed")
	// ErrPersistence means the prediction could not be recorded; no price is returned.
	ErrPersistence = errors.New("failed to save prediction")
)

// Regressor is the read-only model handle.
type Regressor interface {
	Predict(x []float64) (float64, error)
	TargetTransform() string
}

type PredictionStore interface {
	Create(ctx context.Context, userID uint, fs features.FeatureSet, price float64) (*models.PredictionRecord, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

type PredictionResult struct {
	Price    float64
	RecordID *uint
}

// PredictionEvent is published to the owner's channel after a record commits.
type PredictionEvent struct {
	PredictionID   uint      `json:"prediction_id"`
	PredictedPrice float64   `json:"predicted_price"`
	CreatedAt      time.Time `json:"created_at"`
}

type PredictionService struct {
	model  Regressor
	layout features.Layout
	store  PredictionStore
	events EventPublisher
}

func NewPredictionService(model Regressor, layout features.Layout, store PredictionStore, events EventPublisher) *PredictionService {
	return &PredictionService{model: model, layout: layout, store: store, events: events}
}

// Predict maps fs, runs the model and returns the price on the original
// scale. Authenticated callers get exactly one stored record; anonymous
// callers never touch the store.
func (s *PredictionService) Predict(ctx context.Context, fs features.FeatureSet, id auth.Identity) (PredictionResult, error) {
	price, err := s.Price(fs)
	if err != nil {
		return PredictionResult{}, err
	}

	switch caller := id.(type) {
	case auth.Anonymous:
		metrics.PredictionsTotal.WithLabelValues(metrics.IdentityAnonymous).Inc()
		return PredictionResult{Price: price}, nil

	case auth.Authenticated:
		rec, err := s.store.Create(ctx, caller.UserID, fs, price)
		if err != nil {
			metrics.PredictionsFailed.WithLabelValues(metrics.KindPersistence).Inc()
			logging.Error().Err(err).Uint("user_id", caller.UserID).Msg("failed to persist prediction")
			return PredictionResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		metrics.PredictionsStored.Inc()
		metrics.PredictionsTotal.WithLabelValues(metrics.IdentityAuthenticated).Inc()
		s.publish(ctx, caller.UserID, rec)

		recordID := rec.ID
		return PredictionResult{Price: price, RecordID: &recordID}, nil

	default:
		return PredictionResult{}, fmt.Errorf("%w: unsupported identity %T", ErrPrediction, id)
	}
}

// Price runs the model without any side effects.
func (s *PredictionService) Price(fs features.FeatureSet) (float64, error) {
	vec, err := s.layout.Map(fs)
	if err != nil {
		metrics.PredictionsFailed.WithLabelValues(metrics.KindValidation).Inc()
		return 0, err
	}

	raw, err := s.model.Predict(vec)
	if err != nil {
		metrics.PredictionsFailed.WithLabelValues(metrics.KindModel).Inc()
		logging.Error().Err(err).Interface("features", fs).Msg("model prediction failed")
		return 0, fmt.Errorf("%w: %w", ErrPrediction, err)
	}

	price := InverseTransform(s.model.TargetTransform(), raw)
	if math.IsNaN(price) || math.IsInf(price, 0) {
		metrics.PredictionsFailed.WithLabelValues(metrics.KindModel).Inc()
		logging.Error().Float64("raw", raw).Interface("features", fs).Msg("model produced a non-finite price")
		return 0, fmt.Errorf("%w: non-finite output", ErrPrediction)
	}

	logging.Debug().Float64("raw", raw).Float64("price", price).Msg("prediction computed")
	metrics.PredictedPrice.Observe(price)
	return price, nil
}

// InverseTransform maps a raw model output back to a price. log1p targets
// are inverted with expm1 so small values keep their precision. Prices are
// never negative.
func InverseTransform(transform string, raw float64) float64 {
	price := raw
	if transform == estimator.TransformLog1p {
		price = math.Expm1(raw)
	}
	if price < 0 {
		return 0
	}
	return price
}

func (s *PredictionService) publish(ctx context.Context, userID uint, rec *models.PredictionRecord) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	ev := PredictionEvent{PredictionID: rec.ID, PredictedPrice: rec.PredictedPrice, CreatedAt: rec.CreatedAt}
	if err := s.events.Publish(pubCtx, PredictionChannel(userID), ev); err != nil {
		logging.Warn().Err(err).Uint("prediction_id", rec.ID).Msg("failed to publish prediction event")
		return
	}
	metrics.PredictionEventsPublished.Inc()
}
