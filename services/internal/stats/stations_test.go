package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wroclaw-bike-stats/bikestats/services/internal/pricing"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

func stationFixture() []ride.RideEvent {
	return []ride.RideEvent{
		trip("1", at(14, 7, 0), "A", "B", intp(30), floatp(1.2)),
		trip("2", at(14, 7, 20), "A", ride.OutsideStation, intp(61), nil),
		trip("3", at(14, 8, 0), "A", "A", intp(15), floatp(0.0)),
		trip("4", at(14, 9, 0), "B", "A", intp(721), floatp(1.3)),
		trip("5", at(14, 10, 0), ride.OutsideStation, "C", nil, nil),
		trip("6", at(14, 11, 0), "D", "B", intp(20), floatp(2.5)),
	}
}

func TestStationTable(t *testing.T) {
	rows := StationTable(stationFixture())

	require.Equal(t, []StationRow{
		{Station: "A", RentalCount: 3, ReturnCount: 2, Diff: -1},
		{Station: "B", RentalCount: 1, ReturnCount: 2, Diff: 1},
		{Station: "D", RentalCount: 1, ReturnCount: 0, Diff: -1},
	}, rows)
}

func TestStationTableOutsideReturnKeepsRentalStation(t *testing.T) {
	rows := StationTable([]ride.RideEvent{
		trip("1", at(14, 7, 0), "E", ride.OutsideStation, intp(30), nil),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, StationRow{Station: "E", RentalCount: 1, ReturnCount: 0, Diff: -1}, rows[0])
}

func TestComputeSummary(t *testing.T) {
	s := ComputeSummary(stationFixture(), pricing.DefaultPolicy)

	assert.Equal(t, 1, s.OutsideCount)
	assert.Equal(t, 16.7, s.OutsideRatio)
	assert.Equal(t, 5, s.Fine)
	assert.Equal(t, 5.0, s.TotalDistance)
	assert.Equal(t, 1, s.LoopCount)
	// 2 + 6 + 0 + 350 + 0 + 0
	assert.Equal(t, 358, s.TotalRevenue)
}

func TestComputeSummaryLoopExcludesOutsideAndShortRides(t *testing.T) {
	s := ComputeSummary([]ride.RideEvent{
		trip("1", at(14, 7, 0), ride.OutsideStation, ride.OutsideStation, intp(30), nil),
		trip("2", at(14, 7, 0), "A", "A", intp(1), nil),
		trip("3", at(14, 7, 0), "A", "A", nil, nil),
		trip("4", at(14, 7, 0), "A", "A", intp(2), nil),
	}, pricing.DefaultPolicy)

	assert.Equal(t, 1, s.LoopCount)
	assert.Equal(t, 1, s.OutsideCount)
	assert.Equal(t, 25.0, s.OutsideRatio)
}

func TestComputeSummaryUsesPolicy(t *testing.T) {
	policy := pricing.DefaultPolicy
	policy.OutsideStationFine = 10
	policy.BaseFee = 3

	s := ComputeSummary(stationFixture(), policy)
	assert.Equal(t, 10, s.Fine)
	assert.Equal(t, 3+7+0+351, s.TotalRevenue)
}

func TestFormatSummary(t *testing.T) {
	lines := FormatSummary(Summary{
		OutsideCount:  1,
		OutsideRatio:  16.7,
		Fine:          5,
		TotalDistance: 5,
		LoopCount:     1,
		TotalRevenue:  358,
	}, "PLN")

	values := make([]string, 0, len(lines))
	for _, l := range lines {
		values = append(values, l.Value)
	}
	assert.Equal(t, []string{"1 (16.7 %)", "5 PLN", "5.0 km", "1", "358 PLN"}, values)
}

func TestFormatSummaryEmptyDay(t *testing.T) {
	lines := FormatSummary(ComputeSummary(nil, pricing.DefaultPolicy), "PLN")
	assert.Equal(t, "0 (nan %)", lines[0].Value)
}

func TestFormatMetrics(t *testing.T) {
	cards := FormatMetrics(DailyMetrics{
		TotalRides:       120,
		TotalRidesDelta:  -14,
		AvgDuration:      17.5,
		AvgDurationDelta: 2,
		AvgDistance:      1.87,
		AvgDistanceDelta: -0.05,
	})

	require.Len(t, cards, 3)
	assert.Equal(t, MetricCard{Label: "Total rides", Value: "120", Delta: "-14"}, cards[0])
	assert.Equal(t, MetricCard{Label: "Avg. ride time", Value: "17.5 m", Delta: "2.0"}, cards[1])
	assert.Equal(t, MetricCard{Label: "Avg. ride distance", Value: "1.87 km", Delta: "-0.05"}, cards[2])
}
