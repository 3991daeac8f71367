package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"exoclass/internal/cfg"
	"exoclass/internal/ingest"
	"exoclass/internal/metrics"
	"exoclass/internal/ml"
	"exoclass/internal/server"
	"exoclass/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the classifier artifact and serve the HTTP API",
	Long: `Loads configuration from CONFIG_FILE or the environment, loads the
classifier artifact and serves the prediction and ingestion endpoints.

The process exits non-zero when the artifact cannot be loaded; it never
serves without a model. SIGINT or SIGTERM trigger a graceful shutdown.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := setupLogging(settings.LogLevel, settings.LogFormat, cmd.ErrOrStderr()); err != nil {
		return err
	}

	srv, closeStore, err := buildServer(settings, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
	}()
	return srv.Run(ctx)
}

// buildServer wires metrics, the classifier and the optional ingestion
// archive into a server. The returned func releases the archive.
func buildServer(settings cfg.Settings, reg prometheus.Registerer, gatherer prometheus.Gatherer) (*server.Server, func(), error) {
	m := metrics.NewWithRegistry(reg)
	mw := metrics.NewWrapper(m)

	model, err := ml.Load(settings.ModelPath, mw)
	if err != nil {
		return nil, nil, fmt.Errorf("classifier load failed: %w", err)
	}

	opts := server.Options{
		Settings: settings,
		Model:    model,
		Metrics:  m,
		Gatherer: gatherer,
	}

	closeStore := func() {}
	if store := initializeStorage(settings); store != nil {
		// Only a non-nil store may become the Archiver.
		opts.Archive = store
		closeStore = func() {
			if err := store.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close ingestion archive")
			}
		}
	}

	srv, err := server.New(opts)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return srv, closeStore, nil
}

// initializeStorage opens the ingestion archive if DATA_PATH is configured.
func initializeStorage(settings cfg.Settings) *storage.Store {
	if settings.DataPath == "" {
		return nil
	}
	store, err := storage.New(settings.DataPath, ingest.Names()...)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	log.Info().Str("path", store.Path()).Msg("ingestion archive opened")
	return store
}

// compile-time check that the server sees the loaded predictor as a Model.
var _ server.Model = (*ml.Predictor)(nil)
