package estimator

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"house-price-api/features"
)

func loadFixture(t *testing.T, name string) *Forest {
	t.Helper()
	f, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return f
}

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFixture(t *testing.T) {
	f := loadFixture(t, "forest15.json")

	assert.Equal(t, 15, f.NumFeatures())
	assert.Equal(t, 2, f.NumTrees())
	assert.Equal(t, TransformLog1p, f.TargetTransform())
	assert.Equal(t, features.Layout15.Fields, f.FeatureNames())
	assert.Len(t, f.FeatureImportances(), 15)
	assert.NoError(t, f.ValidateLayout(features.Layout15))
}

func TestFingerprint(t *testing.T) {
	a := loadFixture(t, "forest15.json")
	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), loadFixture(t, "forest15.json").Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), loadFixture(t, "forest18.json").Fingerprint())
}

func TestPredict(t *testing.T) {
	f := loadFixture(t, "forest15.json")

	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"all zero", make([]float64, 15), (12.0 + 12.2) / 2},
		{"large new house", []float64{3, 2, 2000, 0, 0, 0, 0, 0, 0, 0, 0, 2010, 0, 0, 0}, (13.0 + 12.8) / 2},
		{"large old house", []float64{3, 2, 2000, 0, 0, 0, 0, 0, 0, 0, 0, 1990, 0, 0, 0}, (12.5 + 12.8) / 2},
		{"threshold goes left", []float64{2.5, 0, 1500, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, (12.0 + 12.2) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Predict(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPredictRepeatable(t *testing.T) {
	f := loadFixture(t, "forest15.json")
	x := []float64{3, 2, 2000, 0, 0, 0, 0, 0, 0, 0, 0, 2010, 0, 0, 0}

	first, err := f.Predict(x)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.Predict(x)
			assert.NoError(t, err)
			assert.Equal(t, first, got)
		}()
	}
	wg.Wait()
}

func TestPredictWidthMismatch(t *testing.T) {
	f := loadFixture(t, "forest15.json")
	_, err := f.Predict(make([]float64, 18))
	assert.Error(t, err)
}

func TestValidateLayoutMismatch(t *testing.T) {
	f15 := loadFixture(t, "forest15.json")
	err := f15.ValidateLayout(features.Layout18)
	var loadErr *ArtifactLoadError
	require.True(t, errors.As(err, &loadErr))

	f18 := loadFixture(t, "forest18.json")
	assert.NoError(t, f18.ValidateLayout(features.Layout18))
	assert.Error(t, f18.ValidateLayout(features.Layout15))
	assert.Nil(t, f18.FeatureNames())
	// Missing target_transform defaults to log1p.
	assert.Equal(t, TransformLog1p, f18.TargetTransform())
}

func TestValidateLayoutNameOrder(t *testing.T) {
	body := strings.Replace(mustRead(t, "forest15.json"), `"bedrooms", "bathrooms"`, `"bathrooms", "bedrooms"`, 1)
	f, err := Load(writeArtifact(t, body))
	require.NoError(t, err)
	assert.Error(t, f.ValidateLayout(features.Layout15))
}

func TestImportancesAreCopied(t *testing.T) {
	f := loadFixture(t, "forest15.json")
	imp := f.FeatureImportances()
	imp[0] = 99
	assert.NotEqual(t, 99.0, f.FeatureImportances()[0])
}

func TestLoadFailures(t *testing.T) {
	valid := mustRead(t, "forest15.json")

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"truncated", func(t *testing.T) string { return filepath.Join("testdata", "truncated.json") }},
		{"pickle bytes", func(t *testing.T) string { return writeArtifact(t, "\x80\x04\x95 not json") }},
		{"wrong format", func(t *testing.T) string {
			return writeArtifact(t, strings.Replace(valid, FormatV1, "joblib", 1))
		}},
		{"unknown field", func(t *testing.T) string {
			return writeArtifact(t, strings.Replace(valid, `"format"`, `"extra": 1, "format"`, 1))
		}},
		{"importance width", func(t *testing.T) string {
			return writeArtifact(t, strings.Replace(valid, "0.051, ", "", 1))
		}},
		{"negative importance", func(t *testing.T) string {
			return writeArtifact(t, strings.Replace(valid, "0.051", "-0.051", 1))
		}},
		{"bad transform", func(t *testing.T) string {
			return writeArtifact(t, strings.Replace(valid, `"log1p"`, `"sqrt"`, 1))
		}},
		{"no trees", func(t *testing.T) string {
			return writeArtifact(t, `{"format":"forest-json/v1","n_features_in":1,"feature_importances":[1],"trees":[]}`)
		}},
		{"child out of range", func(t *testing.T) string {
			return writeArtifact(t, `{"format":"forest-json/v1","n_features_in":1,"feature_importances":[1],
				"trees":[{"children_left":[1,-1],"children_right":[5,-1],"feature":[0,-2],"threshold":[0,0],"value":[1,1]}]}`)
		}},
		{"child points backwards", func(t *testing.T) string {
			return writeArtifact(t, `{"format":"forest-json/v1","n_features_in":1,"feature_importances":[1],
				"trees":[{"children_left":[0,-1],"children_right":[1,-1],"feature":[0,-2],"threshold":[0,0],"value":[1,1]}]}`)
		}},
		{"split feature out of range", func(t *testing.T) string {
			return writeArtifact(t, `{"format":"forest-json/v1","n_features_in":1,"feature_importances":[1],
				"trees":[{"children_left":[1,-1,-1],"children_right":[2,-1,-1],"feature":[3,-2,-2],"threshold":[0,0,0],"value":[1,1,1]}]}`)
		}},
		{"ragged arrays", func(t *testing.T) string {
			return writeArtifact(t, `{"format":"forest-json/v1","n_features_in":1,"feature_importances":[1],
				"trees":[{"children_left":[-1],"children_right":[-1],"feature":[-2],"threshold":[],"value":[1]}]}`)
		}},
		{"single child", func(t *testing.T) string {
			return writeArtifact(t, `{"format":"forest-json/v1","n_features_in":1,"feature_importances":[1],
				"trees":[{"children_left":[1,-1],"children_right":[-1,-1],"feature":[0,-2],"threshold":[0,0],"value":[1,1]}]}`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			var loadErr *ArtifactLoadError
			assert.True(t, errors.As(err, &loadErr), "got %T", err)
		})
	}
}

func TestLoadMissingFileWrapsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPredictIsFinite(t *testing.T) {
	f := loadFixture(t, "forest15.json")
	got, err := f.Predict([]float64{1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9, 1e9})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(got))
}

func mustRead(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}
