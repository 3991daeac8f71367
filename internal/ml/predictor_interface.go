// Package ml is the boundary around the externally trained disposition
// classifier. It loads a versioned model artifact once, checks that it is
// usable, and scores engineered feature vectors laid out in the column
// order the model was trained on.
//
// A Predictor is immutable after Load and safe for concurrent use without
// locking. It never transforms features itself and never substitutes a
// default prediction when scoring is impossible.
package ml

import (
	"context"

	"exoclass/internal/features"
)

// PredictorInterface is the scoring contract consumed by the prediction
// service.
type PredictorInterface interface {
	// Predict scores one engineered feature vector. It fails with a
	// *SchemaMismatchError when the vector lacks a column the model expects.
	Predict(ctx context.Context, vec features.Vector) (Prediction, error)

	// Metadata describes the loaded artifact.
	Metadata() ModelMetadata
}

// Prediction is the raw classifier output: the predicted class index and
// one probability per class, indexed the same way.
type Prediction struct {
	Class         int
	Probabilities [2]float64
}
