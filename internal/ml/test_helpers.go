package ml

import (
	"sync"
	"time"

	"exoclass/internal/common"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         int
	schemaMismatches int
	latencySum       float64
	modelAge         float64
	predictionScores []float64
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLSchemaMismatchInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemaMismatches++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
}

func (m *MockMetrics) MLModelAgeSet(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge = v
}

func (m *MockMetrics) MLPredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionScores = append(m.predictionScores, v)
}

// Counts returns predictions, failures and schema mismatches recorded so far.
func (m *MockMetrics) Counts() (predictions, failures, mismatches int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions, m.failures, m.schemaMismatches
}

// TestArtifact returns a small logistic artifact over the given columns with
// unit coefficients. It is meant for tests in dependent packages.
func TestArtifact(columns ...string) *Artifact {
	coef := make([]float64, len(columns))
	for i := range coef {
		coef[i] = 1
	}
	return &Artifact{
		ModelMetadata: ModelMetadata{
			Version:   "test",
			TrainedAt: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			Features:  columns,
		},
		Kind:     KindLogistic,
		Classes:  []string{common.LabelFalsePositive, common.LabelConfirmed},
		Logistic: &LogisticParams{Intercept: -1, Coefficients: coef},
	}
}
