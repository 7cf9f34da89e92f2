package features

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSparseInput(t *testing.T) {
	fs := FeatureSet{
		"bedrooms":    3,
		"bathrooms":   2,
		"sqft_living": 2000,
		"yr_built":    2010,
	}

	vec, err := Layout15.Map(fs)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2, 2000, 0, 0, 0, 0, 0, 0, 0, 0, 2010, 0, 0, 0}, vec)
}

func TestMapEveryMissingSubset(t *testing.T) {
	full := FeatureSet{}
	for i, name := range Layout15.Fields {
		full[name] = float64(i + 1)
	}

	// Drop each field in turn and then all of them.
	for _, drop := range Layout15.Fields {
		t.Run(drop, func(t *testing.T) {
			fs := FeatureSet{}
			for k, v := range full {
				if k != drop {
					fs[k] = v
				}
			}
			vec, err := Layout15.Map(fs)
			require.NoError(t, err)
			require.Len(t, vec, Layout15.Width())
			for i, name := range Layout15.Fields {
				if name == drop {
					assert.Zero(t, vec[i])
				} else {
					assert.Equal(t, float64(i+1), vec[i])
				}
			}
		})
	}

	t.Run("empty", func(t *testing.T) {
		vec, err := Layout15.Map(FeatureSet{})
		require.NoError(t, err)
		assert.Equal(t, make([]float64, 15), vec)
	})
}

func TestMapLayout18(t *testing.T) {
	vec, err := Layout18.Map(FeatureSet{"long": -122.2, "sqft_lot15": 5000, "bedrooms": 4})
	require.NoError(t, err)
	require.Len(t, vec, 18)
	assert.Equal(t, 4.0, vec[0])
	assert.Equal(t, -122.2, vec[15])
	assert.Equal(t, 0.0, vec[16])
	assert.Equal(t, 5000.0, vec[17])
}

func TestMapIgnoresUnknownKeys(t *testing.T) {
	vec, err := Layout15.Map(FeatureSet{"garage": "yes", "long": 12, "bedrooms": 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, vec[0])
	assert.Len(t, vec, 15)
}

func TestMapCoercion(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"json number", json.Number("98103"), 98103},
		{"float", 1.5, 1.5},
		{"int", 7, 7},
		{"numeric string", " 2.25 ", 2.25},
		{"true", true, 1},
		{"false", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := Layout15.Map(FeatureSet{"bathrooms": tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.want, vec[1])
		})
	}
}

func TestMapRejectsNonNumeric(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"word", "three"},
		{"null", nil},
		{"object", map[string]any{"a": 1}},
		{"array", []any{1, 2}},
		{"nan string", "NaN"},
		{"inf string", "inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Layout15.Map(FeatureSet{"grade": tt.value})
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "grade", verr.Field)
		})
	}
}

func TestLayoutByName(t *testing.T) {
	l, err := LayoutByName("")
	require.NoError(t, err)
	assert.Equal(t, Layout15.Name, l.Name)

	l, err = LayoutByName("KC_HOUSE_18")
	require.NoError(t, err)
	assert.Equal(t, 18, l.Width())

	_, err = LayoutByName("positional")
	assert.Error(t, err)
}

func TestLayout18DoesNotAliasLayout15(t *testing.T) {
	assert.Len(t, Layout15.Fields, 15)
	assert.Equal(t, Layout15.Fields, Layout18.Fields[:15])
}

func TestDecodeFeatureSet(t *testing.T) {
	fs, err := DecodeFeatureSet(strings.NewReader(`{"bedrooms": 3, "zipcode": 98103, "note": "x"}`))
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), fs["bedrooms"])

	_, err = DecodeFeatureSet(strings.NewReader(`[1,2,3]`))
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = DecodeFeatureSet(strings.NewReader(`{bad`))
	assert.True(t, errors.As(err, &verr))
}

func TestDecodeFeatureSetRejectsTrailingData(t *testing.T) {
	for _, body := range []string{
		`{"bedrooms": 3} {"sqft_living": "oops"}`,
		`{"bedrooms": 3} trailing`,
		`{"bedrooms": 3}]`,
	} {
		_, err := DecodeFeatureSet(strings.NewReader(body))
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), body)
		assert.Equal(t, "request body must contain a single JSON object", verr.Reason)
	}

	fs, err := DecodeFeatureSet(strings.NewReader("{\"bedrooms\": 3}\n  \n"))
	require.NoError(t, err)
	assert.Equal(t, json.Number("3"), fs["bedrooms"])
}

func TestKnown(t *testing.T) {
	got := Layout15.Known(FeatureSet{"lat": 47.5, "other": 1, "bedrooms": 2})
	assert.Equal(t, []string{"bedrooms", "lat"}, got)
}
