package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/opendata"
	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/publisher"
	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/transform"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/db"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/pricing"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/stats"
)

var allowStale bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download today's export and load it into the warehouse",
	Long: `Scrapes the resource history page for the newest export, refuses it unless it is
dated today, cleans it, writes the cleaned CSV, appends the rides to the warehouse and,
when MQTT_BROKER is set, publishes the metrics of the latest stored day.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&allowStale, "allow-stale", false, "load the newest export even if it is not dated today")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.DryRun && cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required (or pass --db or --dry-run)")
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}

	res, err := opendata.LatestResource(ctx, client, cfg.SourceURL)
	if err != nil {
		return fmt.Errorf("locating latest export: %w", err)
	}

	fileDate, err := opendata.CheckFresh(res.FileName, time.Now().In(cfg.Location))
	if err != nil {
		if !allowStale || !errors.Is(err, opendata.ErrStaleSource) {
			return err
		}
		log.WithError(err).Warn("loading stale export (--allow-stale)")
	}
	log.WithFields(log.Fields{
		"file":      res.FileName,
		"file_date": fileDate.Format(time.DateOnly),
		"url":       res.URL,
	}).Info("found export")

	catalog, err := loadCatalog()
	if err != nil {
		return err
	}

	body, err := opendata.Download(ctx, client, res)
	if err != nil {
		return err
	}
	defer body.Close()

	result, err := transform.ReadRides(body, catalog, cfg.DistanceMethod)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", res.FileName, err)
	}
	logCleaning(result)

	if _, err := writeCleaned(res.FileName, result.Rides); err != nil {
		return err
	}

	if cfg.DryRun {
		log.Infof("dry-run: skipping warehouse append (%s candidates)", humanize.Comma(int64(len(result.Rides))))
		return nil
	}
	return loadAndPublish(ctx, result.Rides)
}

func loadAndPublish(ctx context.Context, rides []ride.RideEvent) error {
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening warehouse: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	inserted, err := store.AppendRides(ctx, rides)
	if err != nil {
		return fmt.Errorf("appending rides: %w", err)
	}
	log.WithFields(log.Fields{
		"inserted": humanize.Comma(int64(inserted)),
		"skipped":  humanize.Comma(int64(len(rides) - inserted)),
	}).Info("appended rides")

	if !cfg.MQTT.Enabled() {
		return nil
	}
	return publishLatest(ctx, store)
}

func publishLatest(ctx context.Context, store db.Reader) error {
	policy, err := pricing.LoadPolicy(cfg.PricingPolicyFile)
	if err != nil {
		return fmt.Errorf("loading pricing policy: %w", err)
	}

	latest, err := store.LatestAvailableDate(ctx)
	if err != nil {
		return fmt.Errorf("querying latest date: %w", err)
	}
	start, end := ride.Window(latest)
	window, err := store.FetchRides(ctx, start, end)
	if err != nil {
		return fmt.Errorf("fetching rides: %w", err)
	}
	m := stats.ComputeMetrics(window, latest, policy)

	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return err
	}
	defer pub.Close()

	if err := pub.PublishDaily(m); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"topic":       pub.Topic(m.Date),
		"total_rides": m.TotalRides,
	}).Info("published daily metrics")
	return nil
}
