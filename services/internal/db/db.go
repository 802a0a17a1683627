// Package db reads and appends ride events in the warehouse table.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// ErrNoRides is returned when the table holds no rides at all.
var ErrNoRides = errors.New("no rides stored")

// Reader is the query side used by the API.
type Reader interface {
	// FetchRides returns rides with start_time in [start, end], ordered by start_time.
	FetchRides(ctx context.Context, start, end time.Time) ([]ride.RideEvent, error)
	// LatestAvailableDate returns the date of the most recent ride.
	LatestAvailableDate(ctx context.Context) (time.Time, error)
}

// Writer is the append side used by the ingest job.
type Writer interface {
	// AppendRides inserts rides, skipping uids already stored, and reports how many were new.
	AppendRides(ctx context.Context, rides []ride.RideEvent) (int, error)
}

// Store is a warehouse connection.
type Store interface {
	Reader
	Writer
	// EnsureSchema creates the rides table when it does not exist yet.
	EnsureSchema(ctx context.Context) error
	Close() error
}

const rideColumns = `uid, bike_number, start_time, end_time, rental_place, return_place,
	duration, lat_start, lon_start, lat_end, lon_end, distance`

// Open connects to the warehouse named by url: postgres://, postgresql:// or sqlite://path.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgres(ctx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return NewSQLite(strings.TrimPrefix(url, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", url)
	}
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
