package geo

import (
	"math"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

// EarthRadiusMeters is the mean Earth radius used by the Haversine formula.
const EarthRadiusMeters = 6_371_000.0

// DefaultNearThresholdMeters is the default proximity threshold for Near.
const DefaultNearThresholdMeters = 100.0

// Distance returns the great-circle distance between a and b in meters.
// Non-finite inputs propagate as NaN; callers validate coordinate ranges.
func Distance(a, b types.Coordinates) float64 {
	lat1Rad := a.Latitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180
	dlat := (b.Latitude - a.Latitude) * math.Pi / 180
	dlon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Near reports whether a and b are within thresholdMeters of each other.
// The threshold is inclusive.
func Near(a, b types.Coordinates, thresholdMeters float64) bool {
	return Distance(a, b) <= thresholdMeters
}

// Valid reports whether c is a finite, in-range coordinate.
func Valid(c types.Coordinates) bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.IsInf(c.Latitude, 0) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}
