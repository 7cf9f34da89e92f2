// Package estimator loads a fitted random-forest regressor exported as JSON
// and evaluates it. A loaded Forest is immutable and safe for concurrent use.
package estimator

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"house-price-api/features"
)

// FormatV1 identifies the artifact layout understood by Load.
const FormatV1 = "forest-json/v1"

// Supported target transforms.
const (
	TransformNone  = "none"
	TransformLog1p = "log1p"
)

const leaf = -1

type artifact struct {
	Format             string         `json:"format"`
	NFeaturesIn        int            `json:"n_features_in"`
	FeatureNames       []string       `json:"feature_names,omitempty"`
	FeatureImportances []float64      `json:"feature_importances"`
	TargetTransform    string         `json:"target_transform"`
	Trees              []treeArtifact `json:"trees"`
}

type treeArtifact struct {
	ChildrenLeft  []int     `json:"children_left"`
	ChildrenRight []int     `json:"children_right"`
	Feature       []int     `json:"feature"`
	Threshold     []float64 `json:"threshold"`
	Value         []float64 `json:"value"`
}

type tree struct {
	left      []int
	right     []int
	feature   []int
	threshold []float64
	value     []float64
}

// Forest is an ensemble of regression trees whose prediction is the mean of
// the leaf values reached by each tree.
type Forest struct {
	path        string
	fingerprint string
	nFeatures   int
	names       []string
	importances []float64
	transform   string
	trees       []tree
}

// Load reads and validates the artifact at path. Any problem is reported as
// an *ArtifactLoadError.
func Load(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	f, err := parse(data)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	f.path = path
	sum := sha256.Sum256(data)
	f.fingerprint = hex.EncodeToString(sum[:])
	return f, nil
}

func parse(data []byte) (*Forest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var a artifact
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if a.Format != FormatV1 {
		return nil, fmt.Errorf("unsupported format %q", a.Format)
	}
	if a.NFeaturesIn <= 0 {
		return nil, errors.New("n_features_in must be positive")
	}
	if len(a.FeatureNames) != 0 && len(a.FeatureNames) != a.NFeaturesIn {
		return nil, fmt.Errorf("feature_names has %d entries, want %d", len(a.FeatureNames), a.NFeaturesIn)
	}
	if len(a.FeatureImportances) != a.NFeaturesIn {
		return nil, fmt.Errorf("feature_importances has %d entries, want %d", len(a.FeatureImportances), a.NFeaturesIn)
	}
	if floats.HasNaN(a.FeatureImportances) {
		return nil, errors.New("feature_importances contains NaN")
	}
	if floats.Min(a.FeatureImportances) < 0 {
		return nil, errors.New("feature_importances must be non-negative")
	}
	switch a.TargetTransform {
	case "":
		a.TargetTransform = TransformLog1p
	case TransformLog1p, TransformNone:
	default:
		return nil, fmt.Errorf("unsupported target_transform %q", a.TargetTransform)
	}
	if len(a.Trees) == 0 {
		return nil, errors.New("ensemble has no trees")
	}

	f := &Forest{
		nFeatures:   a.NFeaturesIn,
		names:       a.FeatureNames,
		importances: a.FeatureImportances,
		transform:   a.TargetTransform,
		trees:       make([]tree, 0, len(a.Trees)),
	}
	for i, ta := range a.Trees {
		t, err := buildTree(ta, a.NFeaturesIn)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		f.trees = append(f.trees, t)
	}
	return f, nil
}

func buildTree(ta treeArtifact, nFeatures int) (tree, error) {
	n := len(ta.ChildrenLeft)
	if n == 0 {
		return tree{}, errors.New("no nodes")
	}
	if len(ta.ChildrenRight) != n || len(ta.Feature) != n || len(ta.Threshold) != n || len(ta.Value) != n {
		return tree{}, errors.New("node arrays differ in length")
	}
	for i := 0; i < n; i++ {
		l, r := ta.ChildrenLeft[i], ta.ChildrenRight[i]
		if l == leaf || r == leaf {
			if l != r {
				return tree{}, fmt.Errorf("node %d has a single child", i)
			}
			continue
		}
		// Children always follow their parent in the exported arrays, which
		// also rules out cycles.
		if l <= i || l >= n || r <= i || r >= n {
			return tree{}, fmt.Errorf("node %d has out-of-range children (%d, %d)", i, l, r)
		}
		if ta.Feature[i] < 0 || ta.Feature[i] >= nFeatures {
			return tree{}, fmt.Errorf("node %d splits on feature %d outside [0, %d)", i, ta.Feature[i], nFeatures)
		}
	}
	return tree{
		left:      ta.ChildrenLeft,
		right:     ta.ChildrenRight,
		feature:   ta.Feature,
		threshold: ta.Threshold,
		value:     ta.Value,
	}, nil
}

func (t tree) eval(x []float64) float64 {
	node := 0
	for t.left[node] != leaf {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.value[node]
}

// Predict returns the raw ensemble output for x, in the model's target space.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("expected %d features, got %d", f.nFeatures, len(x))
	}
	outs := make([]float64, len(f.trees))
	for i, t := range f.trees {
		outs[i] = t.eval(x)
	}
	return stat.Mean(outs, nil), nil
}

// ValidateLayout fails when the layout cannot feed this model.
func (f *Forest) ValidateLayout(l features.Layout) error {
	if l.Width() != f.nFeatures {
		return &ArtifactLoadError{
			Path: f.path,
			Err:  fmt.Errorf("layout %s has %d features but the model expects %d", l.Name, l.Width(), f.nFeatures),
		}
	}
	if len(f.names) != 0 && !slices.Equal(f.names, l.Fields) {
		return &ArtifactLoadError{
			Path: f.path,
			Err:  fmt.Errorf("model feature names %v do not match layout %s", f.names, l.Name),
		}
	}
	return nil
}

func (f *Forest) NumFeatures() int { return f.nFeatures }

func (f *Forest) NumTrees() int { return len(f.trees) }

func (f *Forest) Path() string { return f.path }

// Fingerprint is the hex sha256 of the artifact bytes.
func (f *Forest) Fingerprint() string { return f.fingerprint }

func (f *Forest) TargetTransform() string { return f.transform }

// FeatureNames returns the training column names, or nil if the artifact
// did not record them.
func (f *Forest) FeatureNames() []string {
	return slices.Clone(f.names)
}

// FeatureImportances returns a copy aligned with the training feature order.
func (f *Forest) FeatureImportances() []float64 {
	return slices.Clone(f.importances)
}
