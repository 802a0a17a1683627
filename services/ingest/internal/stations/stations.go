// Package stations loads the bike station coordinate catalog.
package stations

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when the catalog header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Coord is a station position in degrees.
type Coord struct {
	Lat float64
	Lon float64
}

// Catalog maps station names to positions.
type Catalog map[string]Coord

// Lookup returns the coordinates of name, or nils for an unknown station.
func (c Catalog) Lookup(name string) (lat, lon *float64) {
	coord, ok := c[name]
	if !ok {
		return nil, nil
	}
	return &coord.Lat, &coord.Lon
}

// Load reads a station_name,lat,lon CSV. The first entry for a name wins.
func Load(r io.Reader) (Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, col := range []string{"station_name", "lat", "lon"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	catalog := make(Catalog)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		name := rec[idx["station_name"]]
		if _, seen := catalog[name]; seen {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["lat"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lat: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["lon"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid lon: %w", line, err)
		}
		catalog[name] = Coord{Lat: lat, Lon: lon}
	}
	return catalog, nil
}

// LoadFile reads the catalog from path.
func LoadFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stations file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
