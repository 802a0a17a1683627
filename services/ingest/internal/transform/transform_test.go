package transform

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wroclaw-bike-stats/bikestats/services/ingest/internal/stations"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/geo"
	"github.com/wroclaw-bike-stats/bikestats/services/internal/ride"
)

const exportHeader = "UID wynajmu,Numer roweru,Data wynajmu,Data zwrotu,Stacja wynajmu,Stacja zwrotu,Czas trwania\n"

var testCatalog = stations.Catalog{
	"Rynek":            {Lat: 51.11, Lon: 17.032},
	"Plac Grunwaldzki": {Lat: 51.1125, Lon: 17.0595},
}

func TestReadRides(t *testing.T) {
	input := exportHeader +
		"1001,650123,2023-05-14 08:00:00,2023-05-14 08:20:00,Rynek\u00a0 ,Plac Grunwaldzki,20\n" +
		"1002,650124,2023-05-14 09:00:00,2023-05-14 09:30:00,Rynek,Poza stacją,30\n" +
		"1003,650125,2023-05-14 10:00:00,2023-05-14 10:05:00,#Serwis,Rynek,5\n" +
		"1004,650126,2023-05-14 11:00:00,2023-05-14 11:40:00,Rynek,#Magazyn,40\n" +
		"1005,650127,2023-05-14 12:00,2023-05-14 12:10,Nieznana,Rynek,\n"

	res, err := ReadRides(strings.NewReader(input), testCatalog, geo.MethodGeodesic)
	require.NoError(t, err)
	require.Len(t, res.Rides, 3)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 2, res.Unlocated)

	first := res.Rides[0]
	assert.Equal(t, "1001", first.UID)
	assert.Equal(t, "Rynek", first.RentalPlace)
	assert.Equal(t, time.Date(2023, 5, 14, 8, 0, 0, 0, time.UTC), first.StartTime)
	require.NotNil(t, first.Duration)
	assert.Equal(t, 20, *first.Duration)
	require.NotNil(t, first.Distance)
	want := geo.DistanceKm(first.LatStart, first.LonStart, first.LatEnd, first.LonEnd)
	assert.Equal(t, *want, *first.Distance)
	assert.InDelta(t, 1.94, *first.Distance, 0.1)

	outside := res.Rides[1]
	assert.Equal(t, ride.OutsideStation, outside.ReturnPlace)
	assert.NotNil(t, outside.LatStart)
	assert.Nil(t, outside.LatEnd)
	assert.Nil(t, outside.Distance)

	unknown := res.Rides[2]
	assert.Nil(t, unknown.Duration)
	assert.Nil(t, unknown.LatStart)
	assert.NotNil(t, unknown.LatEnd)
	assert.Equal(t, time.Date(2023, 5, 14, 12, 10, 0, 0, time.UTC), unknown.EndTime)
}

func TestReadRidesColumnOrderAndHaversine(t *testing.T) {
	input := "Czas trwania,Stacja zwrotu,Stacja wynajmu,Data zwrotu,Data wynajmu,Numer roweru,UID wynajmu\n" +
		"20,Plac Grunwaldzki,Rynek,2023-05-14 08:20:00,2023-05-14 08:00:00,650123,1001\n"

	res, err := ReadRides(strings.NewReader(input), testCatalog, geo.MethodHaversine)
	require.NoError(t, err)
	require.Len(t, res.Rides, 1)
	r := res.Rides[0]
	assert.Equal(t, "1001", r.UID)
	assert.Equal(t, "Plac Grunwaldzki", r.ReturnPlace)
	require.NotNil(t, r.Distance)
	assert.Equal(t, *geo.MethodHaversine.DistanceKm(r.LatStart, r.LonStart, r.LatEnd, r.LonEnd), *r.Distance)
}

func TestReadRidesErrors(t *testing.T) {
	_, err := ReadRides(strings.NewReader("UID wynajmu,Numer roweru\n1,2\n"), testCatalog, geo.MethodGeodesic)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadRides(strings.NewReader(exportHeader+"1,2,yesterday,2023-05-14 08:20:00,Rynek,Rynek,20\n"), testCatalog, geo.MethodGeodesic)
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadRides(strings.NewReader(exportHeader+"1,2,2023-05-14 08:00:00,2023-05-14 08:20:00,Rynek,Rynek,twenty\n"), testCatalog, geo.MethodGeodesic)
	assert.ErrorContains(t, err, ColDuration)
}

func TestCleanStationName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Rynek", "Rynek"},
		{"Rynek\u00a0 ", "Rynek"},
		{"Ry\u00a0nek", "Rynek"},
		{"Plac Dominikański\u00a0\t", "Plac Dominikański"},
		{"  Leading", "  Leading"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanStationName(tt.in), "%q", tt.in)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("12")
	require.NoError(t, err)
	assert.Equal(t, 12, *d)

	d, err = ParseDuration("7.0")
	require.NoError(t, err)
	assert.Equal(t, 7, *d)

	d, err = ParseDuration(" ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDuration("7.5")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	input := exportHeader +
		"1002,650124,2023-05-14 09:00:00,2023-05-14 09:30:00,Rynek,Poza stacją,30\n" +
		"1005,650127,2023-05-14 12:00,2023-05-14 12:10,\"Nieznana, stara\",Rynek,\n"
	res, err := ReadRides(strings.NewReader(input), testCatalog, geo.MethodGeodesic)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Rides))
	assert.Equal(t,
		"uid,bike_number,start_time,end_time,rental_place,return_place,duration,lat_start,lon_start,lat_end,lon_end,distance\n"+
			"1002,650124,2023-05-14 09:00:00,2023-05-14 09:30:00,Rynek,Poza stacją,30,51.11,17.032,,,\n"+
			"1005,650127,2023-05-14 12:00:00,2023-05-14 12:10:00,\"Nieznana, stara\",Rynek,,,,51.11,17.032,\n",
		buf.String())
}
