package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"house-price-api/logging"
)

const (
	featureImportancePrefix = "analytics:feature-importance:"
	featureImportanceTTL    = 10 * time.Minute
)

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

type PriceTrendPoint struct {
	Month    string  `json:"month"`
	AvgPrice float64 `json:"avgPrice"`
	Zipcode  string  `json:"zipcode"`
}

type AccuracyPoint struct {
	Date     string  `json:"date"`
	Accuracy float64 `json:"accuracy"`
}

type PredictionAccuracy struct {
	MAE           float64         `json:"mae"`
	MSE           float64         `json:"mse"`
	R2Score       float64         `json:"r2_score"`
	AccuracyTrend []AccuracyPoint `json:"accuracy_trend"`
}

type ImportanceSource interface {
	FeatureImportances() []float64
	Fingerprint() string
}

type AnalyticsService struct {
	names         []string
	model         ImportanceSource
	cache         *CacheService
	seed          uint64
	importanceKey string
}

// NewAnalyticsService pairs names (in training order) with the model's
// importance scores. seed fixes the simulated trend series.
func NewAnalyticsService(names []string, model ImportanceSource, cache *CacheService, seed uint64) *AnalyticsService {
	return &AnalyticsService{
		names:         names,
		model:         model,
		cache:         cache,
		seed:          seed,
		importanceKey: importanceCacheKey(names, model.Fingerprint()),
	}
}

// importanceCacheKey scopes the cached ranking to one layout and artifact,
// so replicas serving different models never read each other's entries.
func importanceCacheKey(names []string, fingerprint string) string {
	sum := sha256.Sum256([]byte(strings.Join(names, ",") + "|" + fingerprint))
	return featureImportancePrefix + hex.EncodeToString(sum[:8])
}

// FeatureImportance lists features by descending importance, rounded to
// four decimals. Equal scores are ordered by name.
func (s *AnalyticsService) FeatureImportance(ctx context.Context) []FeatureImportance {
	var cached []FeatureImportance
	if found, err := s.cache.Get(ctx, s.importanceKey, &cached); err == nil && found {
		return cached
	}

	out := s.rankImportances()
	if err := s.cache.Set(ctx, s.importanceKey, out, featureImportanceTTL); err != nil {
		logging.Warn().Err(err).Msg("failed to cache feature importance")
	}
	return out
}

// RefreshFeatureImportance recomputes the ranking and overwrites the cached
// copy. It is a no-op without Redis.
func (s *AnalyticsService) RefreshFeatureImportance(ctx context.Context) error {
	if !s.cache.Available() {
		return nil
	}
	return s.cache.Set(ctx, s.importanceKey, s.rankImportances(), featureImportanceTTL)
}

func (s *AnalyticsService) rankImportances() []FeatureImportance {
	scores := s.model.FeatureImportances()
	out := make([]FeatureImportance, 0, len(scores))
	for i, score := range scores {
		if i >= len(s.names) {
			break
		}
		out = append(out, FeatureImportance{
			Feature:    s.names[i],
			Importance: decimal.NewFromFloat(score).Round(4).InexactFloat64(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Feature < out[j].Feature
	})
	return out
}

// PriceTrends returns a simulated monthly average price series for 2023.
// The figures are illustrative and not derived from stored data.
func (s *AnalyticsService) PriceTrends() []PriceTrendPoint {
	noise := distuv.Normal{Mu: 0, Sigma: 50000, Src: rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15)}

	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	base := 500000.0
	trends := make([]PriceTrendPoint, 0, 12)
	for i := 0; i < 12; i++ {
		month := start.AddDate(0, i, 0)
		price := base + noise.Rand()
		trends = append(trends, PriceTrendPoint{
			Month:    month.Format("2006-01"),
			AvgPrice: decimal.NewFromFloat(price).Round(2).InexactFloat64(),
			Zipcode:  "98101",
		})
		base += 5000
	}
	return trends
}

// PredictionAccuracy returns fixed illustrative accuracy metrics.
func (s *AnalyticsService) PredictionAccuracy() PredictionAccuracy {
	return PredictionAccuracy{
		MAE:     45000.0,
		MSE:     3500000.0,
		R2Score: 0.85,
		AccuracyTrend: []AccuracyPoint{
			{Date: "2023-Q1", Accuracy: 0.82},
			{Date: "2023-Q2", Accuracy: 0.84},
			{Date: "2023-Q3", Accuracy: 0.85},
			{Date: "2023-Q4", Accuracy: 0.85},
		},
	}
}
