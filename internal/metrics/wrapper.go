package metrics

import (
	"strconv"
	"time"
)

// MetricsWrapper adapts Metrics to the narrow interfaces the predictor,
// feature transformer, prediction service and ingestion layer depend on.
// A wrapper around nil metrics is a no-op.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) MLPredictionsInc() {
	if w.m != nil {
		w.m.MLPredictions.Inc()
	}
}

func (w *MetricsWrapper) MLFailuresInc() {
	if w.m != nil {
		w.m.MLFailures.Inc()
	}
}

func (w *MetricsWrapper) MLSchemaMismatchInc() {
	if w.m != nil {
		w.m.SchemaMismatches.Inc()
	}
}

func (w *MetricsWrapper) MLLatencyObserve(v float64) {
	if w.m != nil {
		w.m.MLLatency.Observe(v)
	}
}

func (w *MetricsWrapper) MLModelAgeSet(v float64) {
	if w.m != nil {
		w.m.MLModelAge.Set(v)
	}
}

func (w *MetricsWrapper) MLPredictionScoresObserve(v float64) {
	if w.m != nil {
		w.m.MLPredictionScores.Observe(v)
	}
}

func (w *MetricsWrapper) FeatureVectorsInc() {
	if w.m != nil {
		w.m.FeatureVectors.Inc()
	}
}

func (w *MetricsWrapper) FeatureRuleSkipped(rule string) {
	if w.m != nil {
		w.m.FeatureRulesSkipped.WithLabelValues(rule).Inc()
	}
}

func (w *MetricsWrapper) PredictionLabelInc(label string) {
	if w.m != nil {
		w.m.Predictions.WithLabelValues(label).Inc()
	}
}

func (w *MetricsWrapper) ValidationErrorsInc() {
	if w.m != nil {
		w.m.ValidationErrors.Inc()
	}
}

func (w *MetricsWrapper) IngestedRecordsAdd(dataset string, n int) {
	if w.m != nil {
		w.m.IngestedRecords.WithLabelValues(dataset).Add(float64(n))
	}
}

// HTTPRequestObserve records one finished request.
func (w *MetricsWrapper) HTTPRequestObserve(route, method string, status int, d time.Duration) {
	if w.m == nil {
		return
	}
	w.m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	w.m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (w *MetricsWrapper) WSConnectionsAdd(delta float64) {
	if w.m != nil {
		w.m.WSConnections.Add(delta)
	}
}
