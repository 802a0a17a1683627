package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/config"
	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/stations"
	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/transform"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/logging"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

var (
	cfg config.Config

	dbURL        string
	stationsPath string
	outDir       string
	dryRun       bool
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load Wrocław city-bike ride exports into the warehouse",
	Long: `Ingest downloads the newest daily rides export from the city open-data portal,
cleans it, joins station coordinates, writes a cleaned CSV and appends the rides
to the warehouse. Settings come from the environment (or .env); flags override them.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "warehouse url, postgres:// or sqlite:// (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&stationsPath, "stations", "", "station catalog CSV (overrides STATIONS_FILE)")
	rootCmd.PersistentFlags().StringVar(&outDir, "out-dir", "", "directory for cleaned CSV files (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "skip warehouse writes and publishing (overrides DRY_RUN)")
}

// loadConfig reads the environment and applies explicitly set flags on top.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Init(loaded.LogLevel); err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		loaded.DatabaseURL = dbURL
	}
	if flags.Changed("stations") {
		loaded.StationsFile = stationsPath
	}
	if flags.Changed("out-dir") {
		loaded.OutputDir = outDir
	}
	if flags.Changed("dry-run") {
		loaded.DryRun = dryRun
	}

	cfg = loaded
	return nil
}

func loadCatalog() (stations.Catalog, error) {
	catalog, err := stations.LoadFile(cfg.StationsFile)
	if err != nil {
		return nil, fmt.Errorf("loading stations: %w", err)
	}
	log.WithFields(log.Fields{
		"file":     cfg.StationsFile,
		"stations": len(catalog),
	}).Debug("loaded station catalog")
	return catalog, nil
}

// writeCleaned saves rides as OUTPUT_DIR/<base of fileName> and returns the path.
func writeCleaned(fileName string, rides []ride.RideEvent) (string, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(cfg.OutputDir, filepath.Base(fileName))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := transform.WriteCSV(f, rides); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}

	fields := log.Fields{"path": path, "rides": humanize.Comma(int64(len(rides)))}
	if info, err := os.Stat(path); err == nil {
		fields["size"] = humanize.Bytes(uint64(info.Size()))
	}
	log.WithFields(fields).Info("wrote cleaned CSV")
	return path, nil
}

func logCleaning(res transform.Result) {
	log.WithFields(log.Fields{
		"rides":     humanize.Comma(int64(len(res.Rides))),
		"dropped":   humanize.Comma(int64(res.Dropped)),
		"unlocated": humanize.Comma(int64(res.Unlocated)),
	}).Info("cleaned export")
}
