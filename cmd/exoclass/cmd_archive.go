package main

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"exoclass/internal/cfg"
	"exoclass/internal/ingest"
	"exoclass/internal/storage"
)

var archiveFlags struct {
	dataset string
	since   time.Duration
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the ingestion archive under DATA_PATH",
	Long: `Without --dataset, prints the number of archived ingestion batches per
dataset. With --dataset, prints the batches of that dataset received within
--since, oldest first.

The archive is locked while a server holds it open.`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func init() {
	f := archiveCmd.Flags()
	f.StringVar(&archiveFlags.dataset, "dataset", "", "dataset to list: TESS, Kepler or K2")
	f.DurationVar(&archiveFlags.since, "since", 24*time.Hour, "window for --dataset listing")
}

func runArchive(cmd *cobra.Command, _ []string) error {
	settings, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if settings.DataPath == "" {
		return errors.New("DATA_PATH is not set; the ingestion archive is disabled")
	}

	store, err := storage.New(settings.DataPath, ingest.Names()...)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if archiveFlags.dataset == "" {
		stats, err := store.Stats()
		if err != nil {
			return fmt.Errorf("read archive stats: %w", err)
		}
		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "%-8s %d\n", name, stats[name])
		}
		return nil
	}

	end := time.Now()
	batches, err := store.Batches(archiveFlags.dataset, end.Add(-archiveFlags.since), end)
	if err != nil {
		return err
	}
	if batches == nil {
		batches = []storage.Batch{}
	}
	return writeJSON(out, batches)
}
