package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"exoclass/internal/features"
	"exoclass/internal/schema"
	"exoclass/internal/server"
)

var featuresFlags struct {
	file   string
	schema string
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Print the engineered feature vector for an observation",
	Long: `Reads one JSON observation from a file or stdin, validates it against the
chosen schema and prints the raw and derived feature columns in the order the
classifier receives them.`,
	Args: cobra.NoArgs,
	RunE: runFeatures,
}

func init() {
	f := featuresCmd.Flags()
	f.StringVarP(&featuresFlags.file, "file", "f", "", "observation JSON file (default stdin)")
	f.StringVar(&featuresFlags.schema, "schema", schema.Basic.Name, "input schema: basic or mission")
}

func runFeatures(cmd *cobra.Command, _ []string) error {
	sc, err := schema.ByName(featuresFlags.schema)
	if err != nil {
		return err
	}
	data, err := readInput(cmd, featuresFlags.file)
	if err != nil {
		return err
	}

	obs, err := sc.Parse(data)
	if err != nil {
		return fmt.Errorf("invalid observation: %w", err)
	}
	vec := features.Transform(obs)

	encoded, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), server.FeaturesResponse{
		Schema:   sc.Name,
		Columns:  vec.Len(),
		Features: encoded,
	})
}
