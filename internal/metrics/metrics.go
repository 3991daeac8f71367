// Package metrics provides Prometheus metrics collection for the exoplanet
// classifier service. It defines the prediction, feature engineering,
// ingestion and HTTP metrics exposed on the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Prediction metrics
	Predictions        *prometheus.CounterVec // Predictions served, by label
	MLPredictions      prometheus.Counter     // Vectors scored by the classifier
	MLFailures         prometheus.Counter     // Scoring failures of any kind
	SchemaMismatches   prometheus.Counter     // Vectors missing classifier columns
	ValidationErrors   prometheus.Counter     // Observations rejected by schema validation
	MLModelAge         prometheus.Gauge       // Age of the loaded artifact in seconds
	MLLatency          prometheus.Histogram   // Scoring latency in seconds
	MLPredictionScores prometheus.Histogram   // Distribution of P(CONFIRMED)

	// Feature engineering metrics
	FeatureVectors      prometheus.Counter     // Engineered vectors built
	FeatureRulesSkipped *prometheus.CounterVec // Derived columns omitted, by rule

	// Ingestion metrics
	IngestedRecords *prometheus.CounterVec // Records acknowledged, by dataset

	// HTTP metrics
	HTTPRequests        *prometheus.CounterVec   // Requests by route, method and status
	HTTPRequestDuration *prometheus.HistogramVec // Request duration by route
	WSConnections       prometheus.Gauge         // Open /ws/predict connections
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exoclass_predictions_total",
			Help: "Total number of predictions served, by predicted label",
		}, []string{"label"}),
		MLPredictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoclass_ml_predictions_total",
			Help: "Total number of feature vectors scored by the classifier",
		}),
		MLFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoclass_ml_failures_total",
			Help: "Total number of classifier scoring failures",
		}),
		SchemaMismatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoclass_schema_mismatches_total",
			Help: "Total number of feature vectors missing columns the classifier expects",
		}),
		ValidationErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoclass_validation_errors_total",
			Help: "Total number of observations rejected by schema validation",
		}),
		MLModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exoclass_ml_model_age_seconds",
			Help: "Age of the loaded classifier artifact in seconds",
		}),
		MLLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exoclass_ml_latency_seconds",
			Help:    "Classifier scoring latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		MLPredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exoclass_ml_prediction_scores",
			Help:    "Distribution of the CONFIRMED probability",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		FeatureVectors: factory.NewCounter(prometheus.CounterOpts{
			Name: "exoclass_feature_vectors_total",
			Help: "Total number of engineered feature vectors built",
		}),
		FeatureRulesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exoclass_feature_rules_skipped_total",
			Help: "Derived feature columns omitted because an input was absent",
		}, []string{"rule"}),
		IngestedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exoclass_ingested_records_total",
			Help: "Total number of mission records acknowledged, by dataset",
		}, []string{"dataset"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exoclass_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"route", "method", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exoclass_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"route"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "exoclass_ws_connections",
			Help: "Number of open prediction websocket connections",
		}),
	}
}
