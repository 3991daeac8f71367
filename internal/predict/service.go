// Package predict composes validation, feature engineering and scoring into
// the disposition prediction returned to API consumers.
package predict

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"exoclass/internal/features"
	"exoclass/internal/ml"
	"exoclass/internal/schema"
)

// MetricsInterface defines metrics methods needed by the service
type MetricsInterface interface {
	features.MetricsTracker
	PredictionLabelInc(label string)
	ValidationErrorsInc()
}

// Result is the response payload of a prediction. Both probabilities are
// always present and keyed by label.
type Result struct {
	Label         string             `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// Service is stateless apart from the shared read-only predictor.
type Service struct {
	predictor ml.PredictorInterface
	metrics   MetricsInterface
	parallel  int
}

// NewService creates a prediction service. parallel bounds concurrent
// scoring within one batch; values below 1 mean 1.
func NewService(predictor ml.PredictorInterface, metrics MetricsInterface, parallel int) *Service {
	if parallel < 1 {
		parallel = 1
	}
	return &Service{predictor: predictor, metrics: metrics, parallel: parallel}
}

// Model returns the metadata of the classifier in use.
func (s *Service) Model() ml.ModelMetadata {
	return s.predictor.Metadata()
}

// Predict validates obs against sc, derives features and scores them.
func (s *Service) Predict(ctx context.Context, sc schema.Schema, obs schema.Observation) (Result, error) {
	if err := sc.Validate(obs); err != nil {
		s.validationFailed()
		return Result{}, err
	}
	return s.score(ctx, obs)
}

// PredictJSON parses a JSON observation body and predicts it.
func (s *Service) PredictJSON(ctx context.Context, sc schema.Schema, body []byte) (Result, error) {
	obs, err := sc.Parse(body)
	if err != nil {
		s.validationFailed()
		return Result{}, err
	}
	return s.score(ctx, obs)
}

// Explain validates obs and returns its engineered feature vector without
// scoring it.
func (s *Service) Explain(sc schema.Schema, obs schema.Observation) (features.Vector, error) {
	if err := sc.Validate(obs); err != nil {
		s.validationFailed()
		return features.Vector{}, err
	}
	return s.transform(obs), nil
}

func (s *Service) score(ctx context.Context, obs schema.Observation) (Result, error) {
	vec := s.transform(obs)

	pred, err := s.predictor.Predict(ctx, vec)
	if err != nil {
		return Result{}, fmt.Errorf("score observation: %w", err)
	}

	label, err := LabelFor(pred.Class)
	if err != nil {
		return Result{}, err
	}
	res := Result{
		Label: label,
		Probabilities: map[string]float64{
			labels[0]: pred.Probabilities[0],
			labels[1]: pred.Probabilities[1],
		},
	}

	if s.metrics != nil {
		s.metrics.PredictionLabelInc(label)
	}
	log.Debug().
		Str("mission", obs.Mission).
		Int("columns", vec.Len()).
		Str("prediction", label).
		Float64("p_confirmed", pred.Probabilities[1]).
		Msg("prediction complete")
	return res, nil
}

func (s *Service) transform(obs schema.Observation) features.Vector {
	if s.metrics != nil {
		return features.TransformWithMetrics(obs, s.metrics)
	}
	return features.Transform(obs)
}

func (s *Service) validationFailed() {
	if s.metrics != nil {
		s.metrics.ValidationErrorsInc()
	}
}

// BatchItem is the outcome for one observation of a batch. Exactly one of
// Result and Error is set.
type BatchItem struct {
	Index  int
	Result *Result
	Error  error
}

// PredictBatch scores JSON observation bodies concurrently and returns one
// item per body in input order. Validation failures are reported per item;
// any other failure (schema mismatch, cancellation) aborts the batch.
func (s *Service) PredictBatch(ctx context.Context, sc schema.Schema, bodies [][]byte) ([]BatchItem, error) {
	items := make([]BatchItem, len(bodies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, body := range bodies {
		i, body := i, body
		g.Go(func() error {
			res, err := s.PredictJSON(gctx, sc, body)
			items[i].Index = i
			if err != nil {
				if IsClientError(err) {
					items[i].Error = err
					return nil
				}
				return fmt.Errorf("observation %d: %w", i, err)
			}
			items[i].Result = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// IsClientError reports whether err was caused by the submitted observation
// rather than by the service or its model.
func IsClientError(err error) bool {
	var verr *schema.ValidationError
	return errors.As(err, &verr) || errors.Is(err, schema.ErrMalformed)
}
