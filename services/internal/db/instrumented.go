package db

import (
	"context"
	"time"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/metrics"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// Instrumented wraps a Reader and records query metrics for service.
type Instrumented struct {
	next    Reader
	service string
}

// NewInstrumented returns a Reader recording Prometheus metrics around next.
func NewInstrumented(next Reader, service string) *Instrumented {
	return &Instrumented{next: next, service: service}
}

func (i *Instrumented) FetchRides(ctx context.Context, start, end time.Time) ([]ride.RideEvent, error) {
	began := time.Now()
	rides, err := i.next.FetchRides(ctx, start, end)
	metrics.RecordDatabaseQuery(i.service, "fetch_rides", err, time.Since(began))
	if err == nil {
		metrics.RecordRidesFetched(i.service, len(rides))
	}
	return rides, err
}

func (i *Instrumented) LatestAvailableDate(ctx context.Context) (time.Time, error) {
	began := time.Now()
	latest, err := i.next.LatestAvailableDate(ctx)
	metrics.RecordDatabaseQuery(i.service, "latest_available_date", err, time.Since(began))
	return latest, err
}
