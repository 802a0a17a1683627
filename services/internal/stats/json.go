package stats

import (
	"encoding/json"
	"math"
)

// nullable maps NaN and infinities to nil so they encode as JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type metricsJSON struct {
	Date             string       `json:"date"`
	TotalRides       int          `json:"total_rides"`
	TotalRidesDelta  int          `json:"total_rides_delta"`
	AvgDuration      *float64     `json:"avg_duration"`
	AvgDurationDelta *float64     `json:"avg_duration_delta"`
	AvgDistance      *float64     `json:"avg_distance"`
	AvgDistanceDelta *float64     `json:"avg_distance_delta"`
	Hourly           []HourCount  `json:"hourly"`
	Stations         []StationRow `json:"stations"`
	Summary          Summary      `json:"summary"`
}

// MarshalJSON encodes undefined averages as null.
func (m DailyMetrics) MarshalJSON() ([]byte, error) {
	hourly, stations := m.Hourly, m.Stations
	if hourly == nil {
		hourly = []HourCount{}
	}
	if stations == nil {
		stations = []StationRow{}
	}
	return json.Marshal(metricsJSON{
		Date:             m.Date,
		TotalRides:       m.TotalRides,
		TotalRidesDelta:  m.TotalRidesDelta,
		AvgDuration:      nullable(m.AvgDuration),
		AvgDurationDelta: nullable(m.AvgDurationDelta),
		AvgDistance:      nullable(m.AvgDistance),
		AvgDistanceDelta: nullable(m.AvgDistanceDelta),
		Hourly:           hourly,
		Stations:         stations,
		Summary:          m.Summary,
	})
}

type summaryJSON struct {
	OutsideCount  int      `json:"outside_count"`
	OutsideRatio  *float64 `json:"outside_ratio"`
	Fine          int      `json:"fine"`
	TotalDistance *float64 `json:"total_distance"`
	LoopCount     int      `json:"loop_count"`
	TotalRevenue  int      `json:"total_revenue"`
}

// MarshalJSON encodes an undefined ratio as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		OutsideCount:  s.OutsideCount,
		OutsideRatio:  nullable(s.OutsideRatio),
		Fine:          s.Fine,
		TotalDistance: nullable(s.TotalDistance),
		LoopCount:     s.LoopCount,
		TotalRevenue:  s.TotalRevenue,
	})
}
