package tools

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	PaceRelaxed  = "relaxed"
	PaceModerate = "moderate"
	PacePacked   = "packed"

	MaxItineraryDays = 30
	dayStartHour     = 10
	slotHours        = 2
)

var paceCaps = map[string]int{
	PaceRelaxed:  3,
	PaceModerate: 4,
	PacePacked:   6,
}

// stop is one schedulable place of an itinerary preview.
type stop struct {
	placeID  *uuid.UUID
	name     string
	category types.PlaceCategory
	coords   *types.Coordinates
}

// buildItinerary lays stops out over [start, end] without persisting
// anything. Accommodations are not scheduled as visits. Stops are ordered by
// nearest neighbour from the first stop and spread evenly over the days,
// capped by pace; whatever does not fit is reported as unplaced.
func buildItinerary(start, end time.Time, pace string, stops []stop) types.ItineraryPreviewData {
	if _, ok := paceCaps[pace]; !ok {
		pace = PaceModerate
	}
	dayCount := int(end.Sub(start).Hours()/24) + 1

	visits := make([]stop, 0, len(stops))
	for _, s := range stops {
		if s.category == types.CategoryAccommodation {
			continue
		}
		visits = append(visits, s)
	}
	ordered := nearestNeighbour(visits)

	perDay := 0
	if len(ordered) > 0 {
		perDay = min(paceCaps[pace], int(math.Ceil(float64(len(ordered))/float64(dayCount))))
	}

	out := types.ItineraryPreviewData{
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.Format(time.DateOnly),
		Pace:      pace,
		Days:      make([]types.ItineraryPreviewDay, 0, dayCount),
	}
	next := 0
	for d := 0; d < dayCount; d++ {
		day := types.ItineraryPreviewDay{
			DayNumber: d + 1,
			Date:      start.AddDate(0, 0, d).Format(time.DateOnly),
			Items:     []types.ItineraryPreviewItem{},
		}
		for slot := 0; slot < perDay && next < len(ordered); slot++ {
			s := ordered[next]
			next++
			item := types.ItineraryPreviewItem{
				PlaceID:   s.placeID,
				PlaceName: s.name,
				Category:  s.category,
				Order:     slot + 1,
				StartTime: fmt.Sprintf("%02d:00", dayStartHour+slot*slotHours),
			}
			if s.coords != nil {
				lat, lng := s.coords.Latitude, s.coords.Longitude
				item.Latitude, item.Longitude = &lat, &lng
			}
			day.Items = append(day.Items, item)
		}
		out.Days = append(out.Days, day)
	}
	for ; next < len(ordered); next++ {
		out.Unplaced = append(out.Unplaced, ordered[next].name)
	}
	return out
}

// nearestNeighbour orders located stops greedily from the first one. Stops
// without coordinates keep their relative order after the located ones.
func nearestNeighbour(stops []stop) []stop {
	var located, unlocated []stop
	for _, s := range stops {
		if s.coords != nil && geo.Valid(*s.coords) {
			located = append(located, s)
		} else {
			unlocated = append(unlocated, s)
		}
	}
	if len(located) <= 2 {
		return append(located, unlocated...)
	}

	ordered := make([]stop, 0, len(stops))
	used := make([]bool, len(located))
	cur := 0
	used[0] = true
	ordered = append(ordered, located[0])
	for len(ordered) < len(located) {
		best, bestDist := -1, math.Inf(1)
		for i, s := range located {
			if used[i] {
				continue
			}
			if d := geo.Distance(*located[cur].coords, *s.coords); d < bestDist {
				best, bestDist = i, d
			}
		}
		used[best] = true
		ordered = append(ordered, located[best])
		cur = best
	}
	return append(ordered, unlocated...)
}
