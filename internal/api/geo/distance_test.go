package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

// metersNorth returns a point d meters due north of p along the meridian.
func metersNorth(p types.Coordinates, d float64) types.Coordinates {
	return types.Coordinates{
		Latitude:  p.Latitude + (d/EarthRadiusMeters)*180/math.Pi,
		Longitude: p.Longitude,
	}
}

func TestDistance(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		p := types.Coordinates{Latitude: 35.6812, Longitude: 139.7671}
		assert.InDelta(t, 0, Distance(p, p), 1e-9)
	})

	t.Run("seoul to busan", func(t *testing.T) {
		seoul := types.Coordinates{Latitude: 37.5665, Longitude: 126.9780}
		busan := types.Coordinates{Latitude: 35.1796, Longitude: 129.0756}
		assert.InDelta(t, 325_000, Distance(seoul, busan), 5_000)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := types.Coordinates{Latitude: 35, Longitude: 139}
		b := types.Coordinates{Latitude: 35.01, Longitude: 139.02}
		assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
	})

	t.Run("NaN propagates", func(t *testing.T) {
		a := types.Coordinates{Latitude: math.NaN(), Longitude: 139}
		b := types.Coordinates{Latitude: 35, Longitude: 139}
		assert.True(t, math.IsNaN(Distance(a, b)))
	})
}

func TestNear(t *testing.T) {
	origin := types.Coordinates{Latitude: 35, Longitude: 139}

	assert.True(t, Near(origin, metersNorth(origin, 99.9), DefaultNearThresholdMeters))
	assert.True(t, Near(origin, metersNorth(origin, 100.0-1e-6), DefaultNearThresholdMeters))
	assert.False(t, Near(origin, metersNorth(origin, 100.1), DefaultNearThresholdMeters))
	assert.True(t, Near(origin, metersNorth(origin, 450), 500))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(types.Coordinates{Latitude: 90, Longitude: -180}))
	assert.False(t, Valid(types.Coordinates{Latitude: 91, Longitude: 0}))
	assert.False(t, Valid(types.Coordinates{Latitude: 0, Longitude: math.Inf(1)}))
}
