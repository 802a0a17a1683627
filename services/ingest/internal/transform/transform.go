// Package transform cleans a raw daily rides export into ride events.
package transform

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/stations"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/geo"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// ErrMissingColumn is returned when the export header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Source column names of the open-data export.
const (
	ColUID         = "UID wynajmu"
	ColBikeNumber  = "Numer roweru"
	ColStartTime   = "Data wynajmu"
	ColEndTime     = "Data zwrotu"
	ColRentalPlace = "Stacja wynajmu"
	ColReturnPlace = "Stacja zwrotu"
	ColDuration    = "Czas trwania"
)

var sourceColumns = []string{ColUID, ColBikeNumber, ColStartTime, ColEndTime, ColRentalPlace, ColReturnPlace, ColDuration}

// cleanedHeader is the column order of the cleaned CSV, matching the warehouse table.
var cleanedHeader = []string{
	"uid", "bike_number", "start_time", "end_time", "rental_place", "return_place",
	"duration", "lat_start", "lon_start", "lat_end", "lon_end", "distance",
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

const outputTimeLayout = "2006-01-02 15:04:05"

// Result is the outcome of cleaning one export.
type Result struct {
	Rides []ride.RideEvent
	// Dropped counts rows removed because a station name starts with '#'.
	Dropped int
	// Unlocated counts rides missing coordinates for either station.
	Unlocated int
}

// ReadRides parses the export, cleans station names, drops placeholder rows,
// joins station coordinates from catalog and computes distances with method.
func ReadRides(r io.Reader, catalog stations.Catalog, method geo.Method) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("reading header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("reading line %d: %w", line, err)
		}
		if len(rec) < len(header) {
			return Result{}, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(rec))
		}

		rental := CleanStationName(rec[idx[ColRentalPlace]])
		returned := CleanStationName(rec[idx[ColReturnPlace]])
		if isPlaceholder(rental) || isPlaceholder(returned) {
			res.Dropped++
			continue
		}

		ev := ride.RideEvent{
			UID:         strings.TrimSpace(rec[idx[ColUID]]),
			BikeNumber:  strings.TrimSpace(rec[idx[ColBikeNumber]]),
			RentalPlace: rental,
			ReturnPlace: returned,
		}
		if ev.StartTime, err = ParseTimestamp(rec[idx[ColStartTime]]); err != nil {
			return Result{}, fmt.Errorf("line %d: %s: %w", line, ColStartTime, err)
		}
		if ev.EndTime, err = ParseTimestamp(rec[idx[ColEndTime]]); err != nil {
			return Result{}, fmt.Errorf("line %d: %s: %w", line, ColEndTime, err)
		}
		if ev.Duration, err = ParseDuration(rec[idx[ColDuration]]); err != nil {
			return Result{}, fmt.Errorf("line %d: %s: %w", line, ColDuration, err)
		}

		ev.LatStart, ev.LonStart = catalog.Lookup(rental)
		ev.LatEnd, ev.LonEnd = catalog.Lookup(returned)
		ev.Distance = method.DistanceKm(ev.LatStart, ev.LonStart, ev.LatEnd, ev.LonEnd)
		if ev.Distance == nil {
			res.Unlocated++
		}

		res.Rides = append(res.Rides, ev)
	}
	return res, nil
}

// CleanStationName removes non-breaking spaces and trailing whitespace.
func CleanStationName(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", "")
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// ParseTimestamp parses an export timestamp as a naive wall-clock time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ParseDuration parses whole minutes. Empty input is a missing duration.
func ParseDuration(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil, fmt.Errorf("invalid duration %q", s)
	}
	n := int(f)
	return &n, nil
}

// WriteCSV writes rides in the cleaned column layout. Missing values are empty.
func WriteCSV(w io.Writer, rides []ride.RideEvent) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(cleanedHeader); err != nil {
		return err
	}
	for _, r := range rides {
		rec := []string{
			r.UID,
			r.BikeNumber,
			r.StartTime.Format(outputTimeLayout),
			r.EndTime.Format(outputTimeLayout),
			r.RentalPlace,
			r.ReturnPlace,
			intString(r.Duration),
			floatString(r.LatStart),
			floatString(r.LonStart),
			floatString(r.LatEnd),
			floatString(r.LonEnd),
			floatString(r.Distance),
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range sourceColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return idx, nil
}

func isPlaceholder(station string) bool {
	return strings.HasPrefix(station, "#")
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func floatString(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
