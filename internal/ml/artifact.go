package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"exoclass/internal/common"
)

// Supported artifact kinds.
const (
	KindLogistic = "logistic"
	KindForest   = "forest"
)

// ModelMetadata contains information about the loaded model
type ModelMetadata struct {
	Version       string    `json:"version"`
	TrainedAt     time.Time `json:"trained_at"`
	Features      []string  `json:"features"`
	Accuracy      float64   `json:"accuracy"`
	ValidationAcc float64   `json:"validation_accuracy"`
	TrainingRows  int       `json:"training_rows"`
}

// Artifact is the on-disk classifier: metadata, the ordered input columns,
// and exactly one model body matching Kind.
type Artifact struct {
	ModelMetadata
	Kind     string          `json:"kind"`
	Classes  []string        `json:"classes,omitempty"`
	Logistic *LogisticParams `json:"logistic,omitempty"`
	Forest   *ForestParams   `json:"forest,omitempty"`
}

// LogisticParams is a standardised logistic regression. Means and Scales
// are optional; when given, each input is transformed to (x-mean)/scale
// before the dot product.
type LogisticParams struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
	Means        []float64 `json:"means,omitempty"`
	Scales       []float64 `json:"scales,omitempty"`
}

// ForestParams is an ensemble of binary decision trees. The forest
// probability of CONFIRMED is the mean of the leaf values reached.
type ForestParams struct {
	Trees []Tree `json:"trees"`
}

// Tree is a flat node array rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Node is a split (x[Feature] <= Threshold goes Left) or, when Left and
// Right are both -1, a leaf whose Value is P(CONFIRMED).
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n Node) leaf() bool { return n.Left == -1 && n.Right == -1 }

// ArtifactLoadError reports a classifier artifact that is missing, corrupt
// or unusable. It is fatal at startup.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load classifier artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

// ReadArtifact reads and validates an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	a, err := DecodeArtifact(data)
	if err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: err}
	}
	return a, nil
}

// DecodeArtifact parses and validates an artifact from JSON.
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks the artifact for internal consistency.
func (a *Artifact) Validate() error {
	if len(a.Features) == 0 {
		return errors.New("artifact declares no input features")
	}
	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if f == "" {
			return errors.New("artifact declares an empty feature name")
		}
		if seen[f] {
			return fmt.Errorf("artifact declares feature %q twice", f)
		}
		seen[f] = true
	}

	if len(a.Classes) > 0 {
		if len(a.Classes) != 2 || a.Classes[0] != common.LabelFalsePositive || a.Classes[1] != common.LabelConfirmed {
			return fmt.Errorf("artifact classes %q do not match [%q %q]",
				a.Classes, common.LabelFalsePositive, common.LabelConfirmed)
		}
	}

	switch a.Kind {
	case KindLogistic:
		if a.Logistic == nil {
			return errors.New("logistic artifact has no logistic body")
		}
		return a.Logistic.validate(len(a.Features))
	case KindForest:
		if a.Forest == nil {
			return errors.New("forest artifact has no forest body")
		}
		return a.Forest.validate(len(a.Features))
	case "":
		return errors.New("artifact kind is empty")
	}
	return fmt.Errorf("unsupported artifact kind %q", a.Kind)
}

func (l *LogisticParams) validate(n int) error {
	if len(l.Coefficients) != n {
		return fmt.Errorf("logistic: %d coefficients for %d features", len(l.Coefficients), n)
	}
	if !finite(l.Intercept) {
		return errors.New("logistic: intercept is not finite")
	}
	for i, c := range l.Coefficients {
		if !finite(c) {
			return fmt.Errorf("logistic: coefficient %d is not finite", i)
		}
	}
	if l.Means != nil && len(l.Means) != n {
		return fmt.Errorf("logistic: %d means for %d features", len(l.Means), n)
	}
	if l.Scales != nil && len(l.Scales) != n {
		return fmt.Errorf("logistic: %d scales for %d features", len(l.Scales), n)
	}
	for i, m := range l.Means {
		if !finite(m) {
			return fmt.Errorf("logistic: mean %d is not finite", i)
		}
	}
	for i, s := range l.Scales {
		if !finite(s) || s == 0 {
			return fmt.Errorf("logistic: scale %d must be finite and non-zero", i)
		}
	}
	return nil
}

func (f *ForestParams) validate(n int) error {
	if len(f.Trees) == 0 {
		return errors.New("forest: no trees")
	}
	for ti, t := range f.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("forest: tree %d has no nodes", ti)
		}
		for ni, node := range t.Nodes {
			if node.leaf() {
				if !finite(node.Value) || node.Value < 0 || node.Value > 1 {
					return fmt.Errorf("forest: tree %d leaf %d value %v outside [0,1]", ti, ni, node.Value)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= n {
				return fmt.Errorf("forest: tree %d node %d splits on feature %d of %d", ti, ni, node.Feature, n)
			}
			if !finite(node.Threshold) {
				return fmt.Errorf("forest: tree %d node %d threshold is not finite", ti, ni)
			}
			// Children always follow their parent, so traversal terminates.
			for _, child := range []int{node.Left, node.Right} {
				if child <= ni || child >= len(t.Nodes) {
					return fmt.Errorf("forest: tree %d node %d has invalid child %d", ti, ni, child)
				}
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
