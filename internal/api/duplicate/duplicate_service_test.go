package duplicate

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

func ptr[T any](v T) *T { return &v }

func northOf(p types.Coordinates, meters float64) types.Coordinates {
	return types.Coordinates{Latitude: p.Latitude + (meters/geo.EarthRadiusMeters)*180/math.Pi, Longitude: p.Longitude}
}

func TestDetector_Check(t *testing.T) {
	cafe := types.DuplicateCandidate{
		ID:            uuid.New(),
		Name:          "Cafe A",
		Latitude:      35,
		Longitude:     139,
		GooglePlaceID: ptr("X"),
	}
	museum := types.DuplicateCandidate{ID: uuid.New(), Name: "Mori Art Museum", Latitude: 35.6605, Longitude: 139.7292}
	existing := []types.DuplicateCandidate{museum, cafe}
	d := NewDetector(100)

	t.Run("place id wins over name and coordinate mismatch", func(t *testing.T) {
		res := d.Check(Candidate{
			Name:          "Totally Different",
			GooglePlaceID: "X",
			Coordinates:   &types.Coordinates{Latitude: 10, Longitude: 10},
		}, existing)
		require.True(t, res.IsDuplicate)
		assert.Equal(t, cafe.ID, res.ExistingPlace.ID)
		assert.Equal(t, MatchedByPlaceID, res.MatchedBy)
	})

	t.Run("name match is case insensitive", func(t *testing.T) {
		res := d.Check(Candidate{Name: "  cafe a "}, existing)
		require.True(t, res.IsDuplicate)
		assert.Equal(t, cafe.ID, res.ExistingPlace.ID)
		assert.Equal(t, MatchedByName, res.MatchedBy)
	})

	t.Run("name match beats proximity to another place", func(t *testing.T) {
		near := types.Coordinates{Latitude: museum.Latitude, Longitude: museum.Longitude}
		res := d.Check(Candidate{Name: "CAFE A", Coordinates: &near}, existing)
		require.True(t, res.IsDuplicate)
		assert.Equal(t, cafe.ID, res.ExistingPlace.ID)
	})

	t.Run("proximity match", func(t *testing.T) {
		p := northOf(types.Coordinates{Latitude: 35, Longitude: 139}, 50)
		res := d.Check(Candidate{Name: "Other", Coordinates: &p}, existing)
		require.True(t, res.IsDuplicate)
		assert.Equal(t, MatchedByProximity, res.MatchedBy)
	})

	t.Run("candidate without id does not match nil ids", func(t *testing.T) {
		res := d.Check(Candidate{Name: "Nowhere"}, []types.DuplicateCandidate{museum})
		assert.False(t, res.IsDuplicate)
		assert.Nil(t, res.ExistingPlace)
	})

	t.Run("no match", func(t *testing.T) {
		far := types.Coordinates{Latitude: 37.5, Longitude: 127}
		res := d.Check(Candidate{Name: "Gyeongbokgung", GooglePlaceID: "Y", Coordinates: &far}, existing)
		assert.False(t, res.IsDuplicate)
	})
}

func TestDetector_ThresholdBoundary(t *testing.T) {
	origin := types.Coordinates{Latitude: 35, Longitude: 139}
	existing := []types.DuplicateCandidate{{ID: uuid.New(), Name: "A", Latitude: origin.Latitude, Longitude: origin.Longitude}}

	t.Run("distance equal to threshold is a duplicate", func(t *testing.T) {
		p := northOf(origin, 100)
		exact := geo.Distance(origin, p)
		res := NewDetector(exact).Check(Candidate{Name: "B", Coordinates: &p}, existing)
		assert.True(t, res.IsDuplicate)
	})

	t.Run("100.1m apart is not a duplicate at 100m", func(t *testing.T) {
		p := northOf(origin, 100.1)
		res := NewDetector(100).Check(Candidate{Name: "B", Coordinates: &p}, existing)
		assert.False(t, res.IsDuplicate)
	})

	t.Run("default threshold", func(t *testing.T) {
		p := northOf(origin, 99.5)
		res := NewDetector(0).Check(Candidate{Name: "B", Coordinates: &p}, existing)
		assert.True(t, res.IsDuplicate)
	})
}

func TestNameSet(t *testing.T) {
	s := NewNameSet()
	assert.False(t, s.Contains("Ichiran Ramen"))
	s.Add("Ichiran Ramen")
	assert.True(t, s.Contains("ichiran ramen"))
	assert.True(t, s.Contains(" ICHIRAN RAMEN"))
	assert.False(t, s.Contains("Afuri"))
}
