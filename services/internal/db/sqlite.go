package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLite is a single-file warehouse for local runs.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (creating if needed) the database file and initializes the schema.
func NewSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLite{conn: conn}
	if err := s.EnsureSchema(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// EnsureSchema creates the rides table when it does not exist yet.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS bike_rides (
		uid TEXT PRIMARY KEY,
		bike_number TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		rental_place TEXT NOT NULL,
		return_place TEXT NOT NULL,
		duration INTEGER,
		lat_start REAL,
		lon_start REAL,
		lat_end REAL,
		lon_end REAL,
		distance REAL
	);
	CREATE INDEX IF NOT EXISTS idx_bike_rides_start_time ON bike_rides(start_time);
	`
	_, err := s.conn.ExecContext(ctx, schema)
	return err
}

// FetchRides returns rides with start_time in [start, end].
func (s *SQLite) FetchRides(ctx context.Context, start, end time.Time) ([]ride.RideEvent, error) {
	query := `SELECT ` + rideColumns + `
	FROM bike_rides
	WHERE start_time >= ? AND start_time <= ?
	ORDER BY start_time`

	rows, err := s.conn.QueryContext(ctx, query, start.Format(sqliteTimeLayout), end.Format(sqliteTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("querying rides: %w", err)
	}
	defer rows.Close()

	rides := make([]ride.RideEvent, 0)
	for rows.Next() {
		var r ride.RideEvent
		var startStr, endStr string
		var duration sql.NullInt64
		var latStart, lonStart, latEnd, lonEnd, distance sql.NullFloat64

		if err := rows.Scan(
			&r.UID, &r.BikeNumber, &startStr, &endStr, &r.RentalPlace, &r.ReturnPlace,
			&duration, &latStart, &lonStart, &latEnd, &lonEnd, &distance,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if r.StartTime, err = time.Parse(sqliteTimeLayout, startStr); err != nil {
			return nil, fmt.Errorf("parsing start_time: %w", err)
		}
		if r.EndTime, err = time.Parse(sqliteTimeLayout, endStr); err != nil {
			return nil, fmt.Errorf("parsing end_time: %w", err)
		}
		if duration.Valid {
			d := int(duration.Int64)
			r.Duration = &d
		}
		r.LatStart = nullFloat(latStart)
		r.LonStart = nullFloat(lonStart)
		r.LatEnd = nullFloat(latEnd)
		r.LonEnd = nullFloat(lonEnd)
		r.Distance = nullFloat(distance)

		rides = append(rides, r)
	}
	return rides, rows.Err()
}

// LatestAvailableDate returns the date of the most recent ride.
func (s *SQLite) LatestAvailableDate(ctx context.Context) (time.Time, error) {
	var startStr string
	err := s.conn.QueryRowContext(ctx, `SELECT start_time FROM bike_rides ORDER BY start_time DESC LIMIT 1`).Scan(&startStr)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNoRides
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("querying latest ride: %w", err)
	}

	ts, err := time.Parse(sqliteTimeLayout, startStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing start_time: %w", err)
	}
	return dayOf(ts), nil
}

// AppendRides inserts rides in one transaction, ignoring duplicate uids.
func (s *SQLite) AppendRides(ctx context.Context, rides []ride.RideEvent) (int, error) {
	if len(rides) == 0 {
		return 0, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO bike_rides (`+rideColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range rides {
		res, err := stmt.ExecContext(ctx,
			r.UID, r.BikeNumber,
			r.StartTime.Format(sqliteTimeLayout), r.EndTime.Format(sqliteTimeLayout),
			r.RentalPlace, r.ReturnPlace,
			intArg(r.Duration), floatArg(r.LatStart), floatArg(r.LonStart),
			floatArg(r.LatEnd), floatArg(r.LonEnd), floatArg(r.Distance),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting ride %s: %w", r.UID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rides: %w", err)
	}
	return inserted, nil
}

func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
