package stats

import (
	"cmp"
	"slices"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// StationRow is one line of the station ranking.
type StationRow struct {
	Station     string `json:"bike_station"`
	RentalCount int    `json:"rental_count"`
	ReturnCount int    `json:"return_count"`
	Diff        int    `json:"diff"`
}

// StationTable counts rentals and returns per station for the given day's
// rides. Only stations with at least one rental appear; the outside-station
// marker is dropped. Rows are ordered by rental count, then by name.
func StationTable(dayRides []ride.RideEvent) []StationRow {
	rentals := make(map[string]int)
	returns := make(map[string]int)
	for _, r := range dayRides {
		rentals[r.RentalPlace]++
		returns[r.ReturnPlace]++
	}

	rows := make([]StationRow, 0, len(rentals))
	for station, rented := range rentals {
		if station == ride.OutsideStation {
			continue
		}
		returned := returns[station]
		rows = append(rows, StationRow{
			Station:     station,
			RentalCount: rented,
			ReturnCount: returned,
			Diff:        returned - rented,
		})
	}

	slices.SortFunc(rows, func(a, b StationRow) int {
		if c := cmp.Compare(b.RentalCount, a.RentalCount); c != 0 {
			return c
		}
		return cmp.Compare(a.Station, b.Station)
	})
	return rows
}
