package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-price-api/auth"
	"house-price-api/features"
	"house-price-api/repository"
	"house-price-api/services"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

func TestParsePagination(t *testing.T) {
	cur := repository.Cursor{CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC), ID: 42}
	tests := []struct {
		name      string
		query     string
		wantLimit int
		wantAfter *repository.Cursor
		wantErr   bool
	}{
		{"defaults", "", DefaultLimit, nil, false},
		{"custom limit", "limit=5", 5, nil, false},
		{"capped limit", "limit=1000", MaxLimit, nil, false},
		{"negative limit", "limit=-3", DefaultLimit, nil, false},
		{"bad limit", "limit=ten", DefaultLimit, nil, false},
		{"cursor", "cursor=" + EncodeCursor(cur), DefaultLimit, &cur, false},
		{"not base64", "cursor=%25%25", 0, nil, true},
		{"no id", "cursor=" + base64.RawURLEncoding.EncodeToString([]byte("2024-05-01T12:00:00Z")), 0, nil, true},
		{"bad time", "cursor=" + base64.RawURLEncoding.EncodeToString([]byte("yesterday|4")), 0, nil, true},
		{"zero id", "cursor=" + base64.RawURLEncoding.EncodeToString([]byte("2024-05-01T12:00:00Z|0")), 0, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			p, err := ParsePagination(c)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, p.Limit)
			if tt.wantAfter == nil {
				assert.Nil(t, p.After)
			} else {
				require.NotNil(t, p.After)
				assert.Equal(t, tt.wantAfter.ID, p.After.ID)
				assert.True(t, tt.wantAfter.CreatedAt.Equal(p.After.CreatedAt))
			}
		})
	}
}

type stubPredictor struct {
	res services.PredictionResult
	err error
	got auth.Identity
}

func (s *stubPredictor) Predict(_ context.Context, _ features.FeatureSet, id auth.Identity) (services.PredictionResult, error) {
	s.got = id
	return s.res, s.err
}

func postPredict(h *PredictionHandler, body string) *httptest.ResponseRecorder {
	r := gin.New()
	r.POST("/predict", h.Predict)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body)))
	return rec
}

func TestPredictHandlerErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"persistence", services.ErrPersistence, http.StatusInternalServerError, `{"detail":"failed to save prediction"}`},
		{"model", services.ErrPrediction, http.StatusInternalServerError, `{"detail":"prediction failed"}`},
		{"validation", &features.ValidationError{Field: "bedrooms", Reason: "value is null"}, http.StatusUnprocessableEntity, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postPredict(NewPredictionHandler(&stubPredictor{err: tt.err}), `{"bedrooms": 3}`)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotContains(t, rec.Body.String(), "predicted_price")
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestPredictHandlerDefaultsToAnonymous(t *testing.T) {
	stub := &stubPredictor{res: services.PredictionResult{Price: 450000}}
	rec := postPredict(NewPredictionHandler(stub), `{"bedrooms": 3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"predicted_price":450000}`, rec.Body.String())
	assert.Equal(t, auth.Anonymous{}, stub.got)
}

func TestRespondValidationFieldErrors(t *testing.T) {
	r := gin.New()
	r.POST("/contact", func(c *gin.Context) {
		var form ContactForm
		respondValidation(c, c.ShouldBindJSON(&form))
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"x","email":"nope","subject":"s","message":"m"}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"detail":"validation failed","errors":[{"field":"email","message":"value is not a valid email address"}]}`,
		rec.Body.String())
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	r := gin.New()
	r.POST("/favorites", func(c *gin.Context) {
		var req FavoriteRequest
		respondValidation(c, c.ShouldBindJSON(&req))
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/favorites", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t,
		`{"detail":"validation failed","errors":[{"field":"prediction_id","message":"field required"}]}`,
		rec.Body.String())
}

func TestContactFormRejectsBlankFields(t *testing.T) {
	r := gin.New()
	r.POST("/contact", func(c *gin.Context) {
		var form ContactForm
		respondValidation(c, c.ShouldBindJSON(&form))
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/contact",
		strings.NewReader(`{"name":"   ","email":"a@example.com","subject":"\t\n","message":" "}`)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"detail":"validation failed","errors":[
		{"field":"name","message":"must not be blank"},
		{"field":"subject","message":"must not be blank"},
		{"field":"message","message":"must not be blank"}]}`,
		rec.Body.String())
}

func TestBindingErrorBodyNonValidatorError(t *testing.T) {
	assert.Equal(t, gin.H{"detail": "invalid request body"}, bindingErrorBody(errors.New("unexpected EOF")))
}

func TestHealthWithoutModel(t *testing.T) {
	r := gin.New()
	r.GET("/health", NewHealthHandler(nil).Health)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Model health check failed"}`, rec.Body.String())
}

type stubResolver struct{ err error }

func (s stubResolver) Resolve(context.Context, string) (auth.Authenticated, error) {
	return auth.Authenticated{}, s.err
}

func TestPredictionFeedAuthErrors(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		err      error
		wantCode int
		wantBody string
	}{
		{"missing token", "", nil, http.StatusUnauthorized, `{"detail":"missing token query parameter"}`},
		{"rejected token", "?token=abc", auth.ErrUnauthorized, http.StatusUnauthorized, `{"detail":"invalid or expired token"}`},
		{"lookup failure", "?token=abc", errors.New("connection refused"), http.StatusInternalServerError, `{"detail":"failed to authenticate websocket"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/ws", PredictionFeed(nil, stubResolver{err: tt.err}))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
