package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"exoclass/internal/features"
)

// MetricsInterface defines metrics methods needed by the predictor
type MetricsInterface interface {
	MLPredictionsInc()
	MLFailuresInc()
	MLSchemaMismatchInc()
	MLLatencyObserve(float64)
	MLModelAgeSet(float64)
	MLPredictionScoresObserve(float64)
}

// ErrInvalidFeature is returned when a feature value is NaN or infinite.
var ErrInvalidFeature = errors.New("invalid feature value")

// SchemaMismatchError means the engineered vector does not carry every
// column the classifier was trained on. It indicates a deployment or
// versioning problem, not a client error.
type SchemaMismatchError struct {
	ModelVersion string
	Missing      []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature vector does not match classifier %s input: missing columns [%s]",
		e.ModelVersion, strings.Join(e.Missing, ", "))
}

// Predictor scores feature vectors with a loaded artifact.
type Predictor struct {
	meta         ModelMetadata
	kind         string
	columns      []string
	model        scorer
	metrics      MetricsInterface
	modelPath    string
	modelCreated time.Time
	loadedAt     time.Time

	predictions atomic.Int64
	errors      atomic.Int64
}

// Load reads the artifact at path and returns a ready predictor. Any
// problem, including a failed health check, is an *ArtifactLoadError; the
// caller must not serve without a model.
func Load(path string, metrics MetricsInterface) (*Predictor, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}

	p := New(a, metrics)
	p.modelPath = path
	if info, err := os.Stat(path); err == nil {
		p.modelCreated = info.ModTime()
	}

	if err := p.healthCheck(); err != nil {
		return nil, &ArtifactLoadError{Path: path, Err: fmt.Errorf("health check: %w", err)}
	}

	if p.metrics != nil && !p.modelCreated.IsZero() {
		p.metrics.MLModelAgeSet(time.Since(p.modelCreated).Seconds())
	}

	log.Info().
		Str("model_path", path).
		Str("model_version", a.Version).
		Str("kind", a.Kind).
		Int("features", len(a.Features)).
		Msg("classifier artifact loaded")
	return p, nil
}

// New wraps an already validated artifact.
func New(a *Artifact, metrics MetricsInterface) *Predictor {
	meta := a.ModelMetadata
	meta.Features = append([]string(nil), a.Features...)
	return &Predictor{
		meta:     meta,
		kind:     a.Kind,
		columns:  append([]string(nil), a.Features...),
		model:    newScorer(a),
		metrics:  metrics,
		loadedAt: time.Now(),
	}
}

// Metadata returns a copy of the artifact metadata.
func (p *Predictor) Metadata() ModelMetadata {
	meta := p.meta
	meta.Features = append([]string(nil), p.meta.Features...)
	return meta
}

// Kind returns the artifact kind.
func (p *Predictor) Kind() string { return p.kind }

// Predict scores vec. The vector is laid out by column name in the order
// the model expects; columns the model does not use are not read.
func (p *Predictor) Predict(ctx context.Context, vec features.Vector) (Prediction, error) {
	if p == nil {
		return Prediction{}, fmt.Errorf("predictor is nil")
	}

	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.MLLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}

	x, err := p.layout(vec)
	if err != nil {
		p.recordError(err)
		return Prediction{}, err
	}

	pred, err := p.score(x)
	if err != nil {
		p.recordError(err)
		return Prediction{}, err
	}

	p.predictions.Add(1)
	if p.metrics != nil {
		p.metrics.MLPredictionsInc()
		p.metrics.MLPredictionScoresObserve(pred.Probabilities[1])
	}
	return pred, nil
}

func (p *Predictor) layout(vec features.Vector) ([]float64, error) {
	x := make([]float64, len(p.columns))
	var missing []string
	for i, col := range p.columns {
		v, ok := vec.Get(col)
		if !ok {
			missing = append(missing, col)
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s = %v", ErrInvalidFeature, col, v)
		}
		x[i] = v
	}
	if len(missing) > 0 {
		return nil, &SchemaMismatchError{ModelVersion: p.meta.Version, Missing: missing}
	}
	return x, nil
}

func (p *Predictor) score(x []float64) (Prediction, error) {
	p1 := p.model.score(x)
	if math.IsNaN(p1) || p1 < 0 || p1 > 1 {
		return Prediction{}, fmt.Errorf("invalid probability %v", p1)
	}
	pred := Prediction{Probabilities: [2]float64{1 - p1, p1}}
	if pred.Probabilities[1] > pred.Probabilities[0] {
		pred.Class = 1
	}
	return pred, nil
}

func (p *Predictor) recordError(err error) {
	p.errors.Add(1)
	if p.metrics == nil {
		return
	}
	var mismatch *SchemaMismatchError
	if errors.As(err, &mismatch) {
		p.metrics.MLSchemaMismatchInc()
	}
	p.metrics.MLFailuresInc()
}

// healthCheck scores a neutral input and checks the output is usable.
func (p *Predictor) healthCheck() error {
	_, err := p.score(make([]float64, len(p.columns)))
	return err
}

// HealthStatus summarises the predictor for the /health endpoint.
type HealthStatus struct {
	Healthy         bool      `json:"healthy"`
	LastCheck       time.Time `json:"last_check"`
	ModelLoaded     bool      `json:"model_loaded"`
	ModelVersion    string    `json:"model_version"`
	PredictionCount int64     `json:"prediction_count"`
	ErrorCount      int64     `json:"error_count"`
	ErrorRate       float64   `json:"error_rate"`
	UptimeSeconds   float64   `json:"uptime_seconds"`
}

// Health reports the current predictor state. A loaded predictor is always
// healthy: request errors are counted but never disable the model.
func (p *Predictor) Health() HealthStatus {
	if p == nil {
		return HealthStatus{LastCheck: time.Now()}
	}
	predictions := p.predictions.Load()
	errs := p.errors.Load()

	var errorRate float64
	if total := predictions + errs; total > 0 {
		errorRate = float64(errs) / float64(total)
	}

	return HealthStatus{
		Healthy:         p.model != nil,
		LastCheck:       time.Now(),
		ModelLoaded:     p.model != nil,
		ModelVersion:    p.meta.Version,
		PredictionCount: predictions,
		ErrorCount:      errs,
		ErrorRate:       errorRate,
		UptimeSeconds:   time.Since(p.loadedAt).Seconds(),
	}
}

// ModelAge is the time since the artifact file was last modified, or zero
// when the predictor was not loaded from a file.
func (p *Predictor) ModelAge() time.Duration {
	if p.modelCreated.IsZero() {
		return 0
	}
	return time.Since(p.modelCreated)
}
