package ml

import (
	"context"
	"errors"
	"sync"
	"testing"

	"exoclass/internal/features"
	"exoclass/internal/schema"
)

// TestPredictor_IntegrationWithBundledModel runs raw observations through
// feature engineering and the shipped artifact.
func TestPredictor_IntegrationWithBundledModel(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	metrics := &MockMetrics{}
	predictor, err := Load(bundledArtifact, metrics)
	if err != nil {
		t.Fatalf("Failed to load bundled artifact: %v", err)
	}

	observations := []map[string]float64{
		// small planet, shallow transit
		{
			schema.PeriodDays: 10, schema.DurationHours: 3, schema.DepthPPM: 500, schema.Ror: 0.02,
			schema.RadiusRe: 1.5, schema.InsolationSe: 1.0, schema.TeqK: 300, schema.StTeffK: 5500,
			schema.StLoggCgs: 4.4, schema.StRadRe: 1.0,
		},
		// grazing eclipsing binary signature
		{
			schema.PeriodDays: 0.8, schema.DurationHours: 1.2, schema.DepthPPM: 40000, schema.Ror: 0.9,
			schema.RadiusRe: 60, schema.InsolationSe: 4000, schema.TeqK: 2200, schema.StTeffK: 6100,
			schema.StLoggCgs: 4.1, schema.StRadRe: 1.4,
		},
		// optional fields present
		{
			schema.PeriodDays: 365, schema.DurationHours: 13, schema.DepthPPM: 84, schema.Ror: 0.009,
			schema.RadiusRe: 1.0, schema.InsolationSe: 1.0, schema.TeqK: 255, schema.StTeffK: 5772,
			schema.StLoggCgs: 4.44, schema.StRadRe: 1.0, schema.StMassMs: 1.0, schema.SemiMajorAxisAU: 1.0,
		},
	}

	for i, values := range observations {
		vec := features.Transform(schema.NewObservation(values))
		pred, err := predictor.Predict(context.Background(), vec)
		if err != nil {
			t.Fatalf("observation %d: predict failed: %v", i, err)
		}
		if pred.Class != 0 && pred.Class != 1 {
			t.Errorf("observation %d: unexpected class %d", i, pred.Class)
		}
		if pred.Probabilities[1] > pred.Probabilities[0] && pred.Class != 1 {
			t.Errorf("observation %d: class %d disagrees with probabilities %v", i, pred.Class, pred.Probabilities)
		}
	}

	predictions, failures, mismatches := metrics.Counts()
	if predictions != len(observations) {
		t.Errorf("Expected %d predictions to be tracked, got %d", len(observations), predictions)
	}
	if failures != 0 || mismatches != 0 {
		t.Errorf("Expected no failures, got %d failures and %d mismatches", failures, mismatches)
	}

	// Concurrent access shares one read-only predictor.
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(values map[string]float64) {
			defer wg.Done()
			if _, err := predictor.Predict(context.Background(), features.Transform(schema.NewObservation(values))); err != nil {
				t.Errorf("concurrent predict failed: %v", err)
			}
		}(observations[i%len(observations)])
	}
	wg.Wait()

	if predictions, _, _ := metrics.Counts(); predictions != len(observations)+5 {
		t.Errorf("Expected %d predictions, got %d", len(observations)+5, predictions)
	}
}

// TestPredictor_MissingColumnsCounted checks that an incomplete vector is
// rejected and counted without disabling the model.
func TestPredictor_MissingColumnsCounted(t *testing.T) {
	metrics := &MockMetrics{}
	predictor, err := Load(bundledArtifact, metrics)
	if err != nil {
		t.Fatalf("Failed to load bundled artifact: %v", err)
	}

	// No teq_k, so teq_ratio and log_teq are never derived.
	vec := features.Transform(schema.NewObservation(map[string]float64{
		schema.PeriodDays: 10, schema.DurationHours: 3, schema.DepthPPM: 500, schema.Ror: 0.02,
		schema.RadiusRe: 1.5, schema.InsolationSe: 1.0, schema.StTeffK: 5500,
		schema.StLoggCgs: 4.4, schema.StRadRe: 1.0,
	}))

	_, err = predictor.Predict(context.Background(), vec)
	var mismatch *SchemaMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Expected SchemaMismatchError, got %v", err)
	}
	if len(mismatch.Missing) == 0 {
		t.Error("Expected missing columns to be listed")
	}

	if _, _, mismatches := metrics.Counts(); mismatches != 1 {
		t.Errorf("Expected 1 schema mismatch, got %d", mismatches)
	}

	health := predictor.Health()
	if !health.Healthy {
		t.Error("Predictor should stay healthy after a request error")
	}
	if health.ErrorCount != 1 {
		t.Errorf("Expected error count 1, got %d", health.ErrorCount)
	}
}
