package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/wroclaw-bike-stats/bikestats/services/api/config"
	httpserver "github.com/wroclaw-bike-stats/bikestats/services/api/http"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/db"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/logging"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	if err := logging.Init(cfg.LogLevel); err != nil {
		logrus.Fatalf("logger error: %v", err)
	}

	policy, err := pricing.LoadPolicy(cfg.PricingPolicyFile)
	if err != nil {
		logrus.Fatalf("pricing policy error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("db connection error: %v", err)
	}
	defer store.Close()

	srv := httpserver.New(cfg, db.NewInstrumented(store, "api"), policy)
	logrus.WithFields(logrus.Fields{
		"addr":     cfg.ListenAddr(),
		"min_date": cfg.MinDate.Format("2006-01-02"),
		"currency": cfg.Currency,
	}).Info("REST API listening")

	if err := srv.Run(ctx); err != nil {
		logrus.Fatalf("server error: %v", err)
	}
}
