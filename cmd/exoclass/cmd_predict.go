package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"exoclass/internal/cfg"
	"exoclass/internal/metrics"
	"exoclass/internal/ml"
	"exoclass/internal/predict"
	"exoclass/internal/schema"
	"exoclass/pkg/client"
)

var predictFlags struct {
	file    string
	schema  string
	remote  string
	model   string
	timeout time.Duration
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Classify one observation locally or against a running service",
	Long: `Reads one JSON observation from a file or stdin and prints the predicted
disposition with both class probabilities.

Without --remote the classifier artifact is loaded from --model, or from
MODEL_PATH / the config file. With --remote the observation is posted to
/predict (basic schema) or /api/predict (mission schema) of that service.`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVarP(&predictFlags.file, "file", "f", "", "observation JSON file (default stdin)")
	f.StringVar(&predictFlags.schema, "schema", schema.Basic.Name, "input schema: basic or mission")
	f.StringVar(&predictFlags.remote, "remote", "", "base URL of a running exoclass service")
	f.StringVar(&predictFlags.model, "model", "", "classifier artifact path for local prediction")
	f.DurationVar(&predictFlags.timeout, "timeout", 10*time.Second, "prediction timeout")
}

func runPredict(cmd *cobra.Command, _ []string) error {
	sc, err := schema.ByName(predictFlags.schema)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, predictFlags.file)
	if err != nil {
		return err
	}

	if predictFlags.remote != "" {
		return predictRemote(cmd, sc, data)
	}
	return predictLocal(cmd, sc, data)
}

func predictLocal(cmd *cobra.Command, sc schema.Schema, data []byte) error {
	path := predictFlags.model
	if path == "" {
		settings, err := cfg.Load()
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		path = settings.ModelPath
	}

	model, err := ml.Load(path, nil)
	if err != nil {
		return fmt.Errorf("classifier load failed: %w", err)
	}
	svc := predict.NewService(model, metrics.NewWrapper(nil), 1)

	ctx, cancel := contextWithTimeout(cmd, predictFlags.timeout)
	defer cancel()

	res, err := svc.PredictJSON(ctx, sc, data)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) || errors.Is(err, schema.ErrMalformed) {
			return fmt.Errorf("invalid observation: %w", err)
		}
		return err
	}
	return writeJSON(cmd.OutOrStdout(), res)
}

func predictRemote(cmd *cobra.Command, sc schema.Schema, data []byte) error {
	c := client.New(predictFlags.remote, predictFlags.timeout)

	ctx, cancel := contextWithTimeout(cmd, predictFlags.timeout)
	defer cancel()

	var (
		pred *client.Prediction
		err  error
	)
	if sc.Name == schema.MissionSchema.Name {
		pred, err = c.PredictMission(ctx, data)
	} else {
		pred, err = c.Predict(ctx, data)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), pred)
}
