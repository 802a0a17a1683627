// Package geo computes straight-line distances between bike stations.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/tidwall/geodesic"
	"github.com/umahmood/haversine"
)

// Method selects the distance formula.
type Method string

const (
	// MethodGeodesic is the WGS-84 ellipsoidal distance.
	MethodGeodesic Method = "geodesic"
	// MethodHaversine is the great-circle distance on a sphere.
	MethodHaversine Method = "haversine"
)

// ParseMethod maps a config value to a Method. Empty selects MethodGeodesic.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodGeodesic:
		return MethodGeodesic, nil
	case MethodHaversine:
		return MethodHaversine, nil
	default:
		return "", fmt.Errorf("unknown distance method %q", s)
	}
}

// DistanceKm returns the geodesic distance between two points in kilometers,
// or nil when a coordinate is missing or invalid.
func DistanceKm(lat1, lon1, lat2, lon2 *float64) *float64 {
	return MethodGeodesic.DistanceKm(lat1, lon1, lat2, lon2)
}

// DistanceKm computes the distance with m. It never panics; unusable input yields nil.
func (m Method) DistanceKm(lat1, lon1, lat2, lon2 *float64) *float64 {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return nil
	}
	if !validLat(*lat1) || !validLat(*lat2) || !finite(*lon1) || !finite(*lon2) {
		return nil
	}

	var km float64
	switch m {
	case MethodHaversine:
		_, km = haversine.Distance(
			haversine.Coord{Lat: *lat1, Lon: *lon1},
			haversine.Coord{Lat: *lat2, Lon: *lon2},
		)
	default:
		var meters float64
		geodesic.WGS84.Inverse(*lat1, *lon1, *lat2, *lon2, &meters, nil, nil)
		km = meters / 1000
	}

	if !finite(km) {
		return nil
	}
	return &km
}

func validLat(v float64) bool {
	return finite(v) && v >= -90 && v <= 90
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
