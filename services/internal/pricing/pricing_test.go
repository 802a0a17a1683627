package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevenueTiers(t *testing.T) {
	tests := []struct {
		duration int
		want     int
	}{
		{-3, 0},
		{0, 0},
		{1, 0},
		{20, 0},
		{21, 2},
		{60, 2},
		{61, 6},
		{119, 6},
		{120, 10},
		{720, 50},
		{721, 350},
		{1500, 402},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultPolicy.Revenue(tt.duration), "duration=%d", tt.duration)
	}
}

func TestRevenueNonDecreasingAfterFirstHour(t *testing.T) {
	prev := DefaultPolicy.Revenue(61)
	for d := 62; d <= 2000; d++ {
		got := DefaultPolicy.Revenue(d)
		require.GreaterOrEqual(t, got, prev, "duration=%d", d)
		if d%60 == 0 {
			assert.Equal(t, 4, got-prev, "step at duration=%d", d)
		}
		prev = got
	}
}

func TestRevenueSurchargeStep(t *testing.T) {
	assert.Equal(t, 300, DefaultPolicy.Revenue(721)-DefaultPolicy.Revenue(720))
}

func TestRideRevenueMissingDuration(t *testing.T) {
	assert.Equal(t, 0, DefaultPolicy.RideRevenue(nil))
	d := 45
	assert.Equal(t, 2, DefaultPolicy.RideRevenue(&d))
}

func TestFine(t *testing.T) {
	assert.Equal(t, 0, DefaultPolicy.Fine(0))
	assert.Equal(t, 35, DefaultPolicy.Fine(7))
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_fee: 3\nsurcharge: 200\n"), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 3, p.BaseFee)
	assert.Equal(t, 200, p.Surcharge)
	assert.Equal(t, DefaultPolicy.HourlyFee, p.HourlyFee)
	assert.Equal(t, DefaultPolicy.OutsideStationFine, p.OutsideStationFine)
}

func TestLoadPolicyEmptyPath(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy, p)
}

func TestLoadPolicyInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("first_hourly_minute: 10\n"), 0o600))

	_, err := LoadPolicy(path)
	assert.ErrorContains(t, err, "first_hourly_minute")
}

func TestValidateDefault(t *testing.T) {
	assert.NoError(t, DefaultPolicy.Validate())
}
