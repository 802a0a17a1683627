package stats

import (
	"cmp"
	"slices"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// HourCount is the number of rentals started within one hour of the day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// HourlyRentals counts rentals per start hour. Hours without rentals are omitted.
func HourlyRentals(dayRides []ride.RideEvent) []HourCount {
	var counts [24]int
	for _, r := range dayRides {
		counts[r.StartTime.Hour()]++
	}

	out := make([]HourCount, 0, len(counts))
	for hour, n := range counts {
		if n > 0 {
			out = append(out, HourCount{Hour: hour, Count: n})
		}
	}
	return out
}

// StationActivity is the number of rentals at one station during one hour,
// with the station's position for plotting.
type StationActivity struct {
	Hour    int     `json:"hour"`
	Station string  `json:"rental_place"`
	Count   int     `json:"count"`
	Lat     float64 `json:"lat_start"`
	Lon     float64 `json:"lon_start"`
}

type stationHour struct {
	hour    int
	station string
}

// ComputeStationActivity groups a day's rides by (hour, rental station).
// Rides whose rental station has no coordinates cannot be plotted and are skipped.
// The coordinates of the first ride seen in a group are used.
func ComputeStationActivity(dayRides []ride.RideEvent) []StationActivity {
	groups := make(map[stationHour]*StationActivity)
	for _, r := range dayRides {
		if r.LatStart == nil || r.LonStart == nil {
			continue
		}
		key := stationHour{hour: r.StartTime.Hour(), station: r.RentalPlace}
		g, ok := groups[key]
		if !ok {
			g = &StationActivity{
				Hour:    key.hour,
				Station: key.station,
				Lat:     *r.LatStart,
				Lon:     *r.LonStart,
			}
			groups[key] = g
		}
		g.Count++
	}

	out := make([]StationActivity, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b StationActivity) int {
		if c := cmp.Compare(a.Hour, b.Hour); c != 0 {
			return c
		}
		return cmp.Compare(a.Station, b.Station)
	})
	return out
}
