package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// Postgres wraps a pgx pool over the citybike schema.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store backed by a pgx pool.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Postgres) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

var postgresSchema = []string{
	`CREATE SCHEMA IF NOT EXISTS citybike`,
	`CREATE TABLE IF NOT EXISTS citybike.bike_rides (
		uid          TEXT PRIMARY KEY,
		bike_number  TEXT NOT NULL,
		start_time   TIMESTAMP NOT NULL,
		end_time     TIMESTAMP NOT NULL,
		rental_place TEXT NOT NULL,
		return_place TEXT NOT NULL,
		duration     INTEGER,
		lat_start    DOUBLE PRECISION,
		lon_start    DOUBLE PRECISION,
		lat_end      DOUBLE PRECISION,
		lon_end      DOUBLE PRECISION,
		distance     DOUBLE PRECISION
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bike_rides_start_time ON citybike.bike_rides (start_time)`,
}

// EnsureSchema creates the rides table when it does not exist yet.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

const fetchRidesSQL = `
    SELECT ` + rideColumns + `
    FROM citybike.bike_rides
    WHERE start_time >= $1 AND start_time <= $2
    ORDER BY start_time
`

// FetchRides returns rides with start_time in [start, end].
func (s *Postgres) FetchRides(ctx context.Context, start, end time.Time) ([]ride.RideEvent, error) {
	rows, err := s.pool.Query(ctx, fetchRidesSQL, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rides := make([]ride.RideEvent, 0)
	for rows.Next() {
		var r ride.RideEvent
		if err := rows.Scan(
			&r.UID,
			&r.BikeNumber,
			&r.StartTime,
			&r.EndTime,
			&r.RentalPlace,
			&r.ReturnPlace,
			&r.Duration,
			&r.LatStart,
			&r.LonStart,
			&r.LatEnd,
			&r.LonEnd,
			&r.Distance,
		); err != nil {
			return nil, err
		}
		rides = append(rides, r)
	}
	return rides, rows.Err()
}

const latestStartSQL = `
    SELECT start_time
    FROM citybike.bike_rides
    ORDER BY start_time DESC
    LIMIT 1
`

// LatestAvailableDate returns the date of the most recent ride.
func (s *Postgres) LatestAvailableDate(ctx context.Context) (time.Time, error) {
	var ts time.Time
	if err := s.pool.QueryRow(ctx, latestStartSQL).Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrNoRides
		}
		return time.Time{}, err
	}
	return dayOf(ts), nil
}

const insertRideSQL = `INSERT INTO citybike.bike_rides (` + rideColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (uid) DO NOTHING`

// AppendRides inserts rides in one batch, skipping uids already stored.
func (s *Postgres) AppendRides(ctx context.Context, rides []ride.RideEvent) (int, error) {
	if len(rides) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rides {
		batch.Queue(insertRideSQL,
			r.UID, r.BikeNumber, r.StartTime, r.EndTime, r.RentalPlace, r.ReturnPlace,
			r.Duration, r.LatStart, r.LonStart, r.LatEnd, r.LonEnd, r.Distance)
	}

	res := s.pool.SendBatch(ctx, batch)
	defer res.Close()

	inserted := 0
	for range rides {
		tag, err := res.Exec()
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
