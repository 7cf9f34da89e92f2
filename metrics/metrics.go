package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "houseprice_predictions_total",
		Help: "Total number of price predictions served, by caller identity.",
	}, []string{"identity"})

	PredictionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "houseprice_predictions_failed_total",
		Help: "Total number of prediction requests that failed, by error kind.",
	}, []string{"kind"})

	PredictionsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "houseprice_predictions_stored_total",
		Help: "Total number of prediction records persisted.",
	})

	PredictionEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "houseprice_prediction_events_published_total",
		Help: "Total number of prediction events published to Redis.",
	})

	ContactSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "houseprice_contact_submissions_total",
		Help: "Total number of contact form submissions stored.",
	})

	PredictedPrice = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "houseprice_predicted_price_dollars",
		Help:    "Distribution of predicted prices on the original scale.",
		Buckets: []float64{100e3, 250e3, 500e3, 750e3, 1e6, 2e6, 5e6},
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "houseprice_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	WarmCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "houseprice_analytics_warm_cycle_duration_seconds",
		Help:    "Duration of a full analytics cache refresh.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5},
	})

	WarmCyclesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "houseprice_analytics_warm_cycles_failed_total",
		Help: "Total number of analytics cache refreshes that failed.",
	})

	ModelInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "houseprice_model_info",
		Help: "Loaded model metadata; value is the number of trees.",
	}, []string{"layout", "features"})
)

// Identity labels.
const (
	IdentityAnonymous     = "anonymous"
	IdentityAuthenticated = "authenticated"
)

// Failure kinds.
const (
	KindValidation  = "validation"
	KindModel       = "model"
	KindPersistence = "persistence"
)
