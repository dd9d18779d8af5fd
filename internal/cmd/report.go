package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/masahif/focuscrawl/internal/config"
	"github.com/masahif/focuscrawl/internal/report"
	"github.com/masahif/focuscrawl/internal/scraper"
	"github.com/masahif/focuscrawl/internal/stats"
	"github.com/masahif/focuscrawl/internal/storage"
)

// reportCmd prints the statistics of the last checkpoint without crawling
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the report of the crawl stored in the database",
	Long: `Report reads the statistics checkpointed in the database by a finished
or interrupted crawl and writes the report without fetching anything.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	snap, err := loadSnapshot(cfg)
	if err != nil {
		return err
	}
	return writeReport(cfg, snap, cmd.OutOrStdout())
}

// loadSnapshot rebuilds the statistics from the checkpoint in the database
func loadSnapshot(cfg *config.CrawlConfig) (stats.Snapshot, error) {
	store, err := openExisting(cfg.DatabasePath)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer func() { _ = store.Close() }()

	state, err := store.LoadState()
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if at, err := store.CheckpointTime(); err == nil && !at.IsZero() {
		slog.Info("Loaded checkpoint", "taken_at", at, "visited", len(state.Visited))
	}

	acc, err := scraper.NewAccumulator(cfg.Scope)
	if err != nil {
		return stats.Snapshot{}, err
	}
	acc.Restore(state)
	return acc.Snapshot(cfg.Scope.TopWords), nil
}

// openExisting opens a database left by an earlier crawl. Unlike a crawl,
// it never creates one.
func openExisting(path string) (*storage.SQLiteStorage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no database found at %s: %w", path, err)
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return store, nil
}

// writeReport writes snap in the configured format to the report path, or
// to stdout when no path is set
func writeReport(cfg *config.CrawlConfig, snap stats.Snapshot, stdout io.Writer) error {
	out := stdout
	if cfg.ReportPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.ReportPath), 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		f, err := os.Create(cfg.ReportPath)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	w, err := report.NewWriter(cfg.ReportFormat, out)
	if err != nil {
		return err
	}
	if err := w.Write(snap); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.ReportPath != "" {
		slog.Info("Report written", "path", cfg.ReportPath, "format", cfg.ReportFormat)
	}
	return nil
}
