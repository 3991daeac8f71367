// Package server exposes the classifier over HTTP with gin: the raw mission
// ingestion endpoints, the two prediction endpoints and their batch,
// explain and websocket variants, plus health, model info and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"exoclass/internal/cfg"
	"exoclass/internal/common"
	"exoclass/internal/ingest"
	"exoclass/internal/metrics"
	"exoclass/internal/ml"
	"exoclass/internal/predict"
	"exoclass/internal/schema"
)

// Model is the loaded classifier as seen by the server.
type Model interface {
	ml.PredictorInterface
	Health() ml.HealthStatus
}

// Options configures a Server. Metrics, Gatherer and Archive are optional.
type Options struct {
	Settings cfg.Settings
	Model    Model
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Archive  ingest.Archiver
}

// Server serves the classifier API.
type Server struct {
	settings cfg.Settings
	model    Model
	service  *predict.Service
	ack      *ingest.Acknowledger
	mw       *metrics.MetricsWrapper
	gatherer prometheus.Gatherer
	engine   *gin.Engine
	http     *http.Server
}

// New builds the router and HTTP server. The model must already be loaded.
func New(opts Options) (*Server, error) {
	if opts.Model == nil {
		return nil, errors.New("server requires a loaded model")
	}

	mw := metrics.NewWrapper(opts.Metrics)
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		settings: opts.Settings,
		model:    opts.Model,
		service:  predict.NewService(opts.Model, mw, opts.Settings.BatchParallel),
		ack:      ingest.NewAcknowledger(opts.Archive, mw),
		mw:       mw,
		gatherer: gatherer,
	}

	gin.SetMode(opts.Settings.GinMode)
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:         opts.Settings.Addr(),
		Handler:      s.engine,
		ReadTimeout:  opts.Settings.ReadTimeout,
		WriteTimeout: opts.Settings.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(), withRequestID(), requestLogger(s.mw))

	r.POST("/tess", ingestHandler[ingest.TESSRecord](s, common.DatasetTESS))
	r.POST("/kepler", ingestHandler[ingest.KeplerRecord](s, common.DatasetKepler))
	r.POST("/k2", ingestHandler[ingest.K2Record](s, common.DatasetK2))

	r.POST("/predict", s.handlePredict(schema.Basic))

	api := r.Group("/api")
	{
		api.POST("/predict", s.handlePredict(schema.MissionSchema))
		api.POST("/predict/batch", s.handlePredictBatch)
		api.POST("/features", s.handleFeatures)
	}

	r.GET("/ws/predict", s.handleWebsocket)

	r.GET("/health", s.handleHealth)
	r.GET("/model/info", s.handleModelInfo)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		RespondWithError(c, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully within the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", s.http.Addr).Msg("starting classifier server")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.settings.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down classifier server")
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
		return nil
	})

	return g.Wait()
}
