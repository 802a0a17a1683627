package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MetricCard is a headline figure with its change against the comparison partition.
type MetricCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Delta string `json:"delta"`
}

// SummaryLine is a labelled row of the summary table.
type SummaryLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FormatMetrics renders the headline figures as dashboard labels.
func FormatMetrics(m DailyMetrics) []MetricCard {
	return []MetricCard{
		{Label: "Total rides", Value: strconv.Itoa(m.TotalRides), Delta: strconv.Itoa(m.TotalRidesDelta)},
		{Label: "Avg. ride time", Value: displayFloat(m.AvgDuration) + " m", Delta: displayFloat(m.AvgDurationDelta)},
		{Label: "Avg. ride distance", Value: displayFloat(m.AvgDistance) + " km", Delta: displayFloat(m.AvgDistanceDelta)},
	}
}

// FormatSummary renders the summary table rows using currency for amounts.
func FormatSummary(s Summary, currency string) []SummaryLine {
	return []SummaryLine{
		{Label: "Bikes returned out of bike stations", Value: fmt.Sprintf("%d (%s %%)", s.OutsideCount, displayFloat(s.OutsideRatio))},
		{Label: "Total fine for returning bike out of bike station", Value: fmt.Sprintf("%d %s", s.Fine, currency)},
		{Label: "Total distance", Value: displayFloat(s.TotalDistance) + " km"},
		{Label: "Total loops (same rental/return station)", Value: strconv.Itoa(s.LoopCount)},
		{Label: "Estimated total revenue", Value: fmt.Sprintf("%d %s", s.TotalRevenue, currency)},
	}
}

// displayFloat prints the shortest representation, always with a fractional part.
func displayFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
