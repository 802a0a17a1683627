// Package stats derives the single-day dashboard figures from raw ride events.
//
// Every function here is a pure transformation of its arguments and is safe to
// call concurrently. Aggregates over empty partitions are NaN, never an error.
package stats

import (
	"math"
	"time"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/pricing"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// minValidValue is the exclusive lower bound for a duration (minutes) or a
// distance (km) to count toward averages and loop rides.
const minValidValue = 1

// DailyMetrics is everything the single-day dashboard shows for one date.
type DailyMetrics struct {
	Date             string
	TotalRides       int
	TotalRidesDelta  int
	AvgDuration      float64
	AvgDurationDelta float64
	AvgDistance      float64
	AvgDistanceDelta float64
	Hourly           []HourCount
	Stations         []StationRow
	Summary          Summary
}

// ComputeMetrics aggregates rides for date. rides must cover date and at least
// the day before; every ride starting before date forms the comparison partition,
// so deltas are relative to the whole prior part of the supplied window.
func ComputeMetrics(rides []ride.RideEvent, date time.Time, policy pricing.Policy) DailyMetrics {
	day, prior := partition(rides, date)

	m := DailyMetrics{
		Date:       ride.DayKey(date),
		TotalRides: len(day),
	}
	m.TotalRidesDelta = m.TotalRides - len(prior)

	m.AvgDuration = roundTo(meanDuration(day), 1)
	m.AvgDurationDelta = roundTo(m.AvgDuration-roundTo(meanDuration(prior), 1), 1)

	m.AvgDistance = roundTo(meanDistance(day), 2)
	m.AvgDistanceDelta = roundTo(m.AvgDistance-roundTo(meanDistance(prior), 2), 2)

	m.Hourly = HourlyRentals(day)
	m.Stations = StationTable(day)
	m.Summary = ComputeSummary(day, policy)
	return m
}

// DayRides returns the rides that started on date.
func DayRides(rides []ride.RideEvent, date time.Time) []ride.RideEvent {
	day, _ := partition(rides, date)
	return day
}

func partition(rides []ride.RideEvent, date time.Time) (day, prior []ride.RideEvent) {
	key := ride.DayKey(date)
	for _, r := range rides {
		switch k := ride.DayKey(r.StartTime); {
		case k == key:
			day = append(day, r)
		case k < key:
			prior = append(prior, r)
		}
	}
	return day, prior
}

func meanDuration(rides []ride.RideEvent) float64 {
	var sum float64
	var n int
	for _, r := range rides {
		if validDuration(r.Duration) {
			sum += float64(*r.Duration)
			n++
		}
	}
	return mean(sum, n)
}

func meanDistance(rides []ride.RideEvent) float64 {
	var sum float64
	var n int
	for _, r := range rides {
		if r.Distance != nil && *r.Distance > minValidValue {
			sum += *r.Distance
			n++
		}
	}
	return mean(sum, n)
}

func validDuration(d *int) bool {
	return d != nil && *d > minValidValue
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
