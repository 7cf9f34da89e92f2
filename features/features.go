// Package features turns loosely typed housing attributes into the fixed-order
// numeric vector the price regressor was trained on.
//
// Absent attributes are filled with 0.0. This is a silent default, not an
// error: the deployed model tolerates sparse input, and a missing field is
// therefore indistinguishable from a genuine zero once mapped.
package features

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// FeatureSet is the named attribute mapping submitted for a prediction.
type FeatureSet map[string]any

// Layout is an ordered list of attribute names matching the columns the
// regressor was fit on.
type Layout struct {
	Name   string
	Fields []string
}

var (
	// Layout15 is the canonical ordering used by the prediction API.
	Layout15 = Layout{
		Name: "kc_house_15",
		Fields: []string{
			"bedrooms", "bathrooms", "sqft_living", "sqft_lot", "floors",
			"waterfront", "view", "condition", "grade", "sqft_above",
			"sqft_basement", "yr_built", "yr_renovated", "zipcode", "lat",
		},
	}

	// Layout18 extends Layout15 with location and neighbourhood columns.
	// It is not interchangeable with a model fit on Layout15.
	Layout18 = Layout{
		Name: "kc_house_18",
		Fields: append(append([]string{}, Layout15.Fields...),
			"long", "sqft_living15", "sqft_lot15"),
	}
)

// LayoutByName resolves a configured layout name.
func LayoutByName(name string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Layout15.Name, "15":
		return Layout15, nil
	case Layout18.Name, "18":
		return Layout18, nil
	default:
		return Layout{}, fmt.Errorf("unknown feature layout %q", name)
	}
}

// Width is the length of the vector produced by Map.
func (l Layout) Width() int {
	return len(l.Fields)
}

// Map builds the ordered vector for fs. Unknown keys are ignored.
func (l Layout) Map(fs FeatureSet) ([]float64, error) {
	vec := make([]float64, len(l.Fields))
	for i, name := range l.Fields {
		raw, ok := fs[name]
		if !ok {
			continue
		}
		v, err := toFloat(raw)
		if err != nil {
			return nil, &ValidationError{Field: name, Value: raw, Reason: err.Error()}
		}
		vec[i] = v
	}
	return vec, nil
}

// Known reports which recognised attributes are present in fs.
func (l Layout) Known(fs FeatureSet) []string {
	var present []string
	for _, name := range l.Fields {
		if _, ok := fs[name]; ok {
			present = append(present, name)
		}
	}
	return present
}

// DecodeFeatureSet reads a JSON object from r. Numbers are kept as
// json.Number so large integers such as zip codes survive untouched.
func DecodeFeatureSet(r io.Reader) (FeatureSet, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ValidationError{Reason: "request body must be a JSON object: " + err.Error()}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &ValidationError{Reason: "request body must be a JSON object"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Reason: "request body must contain a single JSON object"}
	}
	return FeatureSet(obj), nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number")
		}
		f = parsed
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint64:
		f = float64(t)
	case bool:
		if t {
			f = 1
		}
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %q to a number", t)
		}
		f = parsed
	case nil:
		return 0, fmt.Errorf("value is null")
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value must be finite")
	}
	return f, nil
}
