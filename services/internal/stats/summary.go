package stats

import (
	"github.com/wroclaw-bike-stats/bikestats/services/internal/pricing"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

// Summary holds the miscellaneous figures for one day.
type Summary struct {
	OutsideCount  int
	OutsideRatio  float64
	Fine          int
	TotalDistance float64
	LoopCount     int
	TotalRevenue  int
}

// ComputeSummary derives the summary from the rides of a single day.
// OutsideRatio is NaN when there are no rides.
func ComputeSummary(dayRides []ride.RideEvent, policy pricing.Policy) Summary {
	var s Summary
	var distance float64
	for _, r := range dayRides {
		if r.ReturnedOutside() {
			s.OutsideCount++
		}
		if r.Distance != nil {
			distance += *r.Distance
		}
		if isLoop(r) {
			s.LoopCount++
		}
		s.TotalRevenue += policy.RideRevenue(r.Duration)
	}

	total := float64(len(dayRides))
	s.OutsideRatio = roundTo(float64(s.OutsideCount)/total*100, 1)
	s.Fine = policy.Fine(s.OutsideCount)
	s.TotalDistance = roundTo(distance, 2)
	return s
}

// isLoop reports a ride that came back to the station it left from.
func isLoop(r ride.RideEvent) bool {
	return r.RentalPlace == r.ReturnPlace &&
		r.RentalPlace != ride.OutsideStation &&
		validDuration(r.Duration)
}
