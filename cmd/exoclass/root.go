package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"exoclass/internal/common"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configFile string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "exoclass",
	Short: "Classify transiting exoplanet candidates as CONFIRMED or FALSE POSITIVE",
	Long: "exoclass serves a pre-trained disposition classifier over HTTP and\n" +
		"exposes the same feature engineering and prediction from the command line.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: applyRootFlags,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configFile, "config", "", "YAML config file (sets "+common.EnvConfigFile+")")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.Version = version
}

// applyRootFlags exports the persistent flags as their environment
// equivalents so cfg.Load sees them, then configures logging.
func applyRootFlags(cmd *cobra.Command, _ []string) error {
	if rootFlags.configFile != "" {
		if err := os.Setenv(common.EnvConfigFile, rootFlags.configFile); err != nil {
			return err
		}
	}
	if rootFlags.logLevel != "" {
		if err := os.Setenv(common.EnvLogLevel, rootFlags.logLevel); err != nil {
			return err
		}
	}

	level := os.Getenv(common.EnvLogLevel)
	if level == "" {
		level = common.DefaultLogLevel
	}
	return setupLogging(level, os.Getenv(common.EnvLogFormat), cmd.ErrOrStderr())
}

// setupLogging points the global zerolog logger at w. Logs never go to
// stdout, which carries command output.
func setupLogging(level, format string, w io.Writer) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
		return nil
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}
