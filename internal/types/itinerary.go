package types

import "github.com/google/uuid"

// ItinerarySummary is the slice of an existing itinerary the assistant sees.
type ItinerarySummary struct {
	ID        uuid.UUID `json:"id"`
	StartDate string    `json:"startDate"`
	EndDate   string    `json:"endDate"`
	DayCount  int       `json:"dayCount"`
	ItemCount int       `json:"itemCount"`
}

// ItineraryPreviewData is an unsaved day-by-day skeleton.
type ItineraryPreviewData struct {
	StartDate string                `json:"startDate"`
	EndDate   string                `json:"endDate"`
	Pace      string                `json:"pace"`
	Days      []ItineraryPreviewDay `json:"days"`
	Unplaced  []string              `json:"unplaced,omitempty"`
}

type ItineraryPreviewDay struct {
	DayNumber int                    `json:"dayNumber"`
	Date      string                 `json:"date"`
	Items     []ItineraryPreviewItem `json:"items"`
}

type ItineraryPreviewItem struct {
	PlaceID   *uuid.UUID    `json:"placeId,omitempty"`
	PlaceName string        `json:"placeName"`
	Category  PlaceCategory `json:"category,omitempty"`
	Order     int           `json:"order"`
	StartTime string        `json:"startTime"`
	Latitude  *float64      `json:"latitude,omitempty"`
	Longitude *float64      `json:"longitude,omitempty"`
}
