package types

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ToolKind is the closed set of tools the assistant may call.
type ToolKind int

const (
	ToolUnknown ToolKind = iota
	ToolRecommendPlaces
	ToolGenerateItinerary
	ToolSearchNearbyPlaces
)

const (
	ToolNameRecommendPlaces    = "recommend_places"
	ToolNameGenerateItinerary  = "generate_itinerary"
	ToolNameSearchNearbyPlaces = "search_nearby_places"
)

// ParseToolKind maps a tool name from the model to its kind.
func ParseToolKind(name string) ToolKind {
	switch name {
	case ToolNameRecommendPlaces:
		return ToolRecommendPlaces
	case ToolNameGenerateItinerary:
		return ToolGenerateItinerary
	case ToolNameSearchNearbyPlaces:
		return ToolSearchNearbyPlaces
	default:
		return ToolUnknown
	}
}

func (k ToolKind) String() string {
	switch k {
	case ToolRecommendPlaces:
		return ToolNameRecommendPlaces
	case ToolGenerateItinerary:
		return ToolNameGenerateItinerary
	case ToolSearchNearbyPlaces:
		return ToolNameSearchNearbyPlaces
	default:
		return "unknown"
	}
}

// ToolCall is a structured call emitted by the model mid-stream.
type ToolCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// ToolExecutionContext is built once per chat turn and never persisted.
type ToolExecutionContext struct {
	ProjectID      uuid.UUID
	UserID         uuid.UUID
	ExistingPlaces []DuplicateCandidate
	Itinerary      *ItinerarySummary
	Destination    string
	Country        string
	ItineraryID    *uuid.UUID
}

// ToolExecutionResult is the outcome of one tool invocation.
type ToolExecutionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type RecommendPlacesArgs struct {
	Places []RecommendedPlace `json:"places" validate:"required,min=1,max=10,dive"`
	Reason string             `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type SkippedPlace struct {
	Name          string              `json:"name"`
	Reason        string              `json:"reason"` // duplicate_existing | duplicate_in_batch
	ExistingPlace *DuplicateCandidate `json:"existingPlace,omitempty"`
}

type RecommendPlacesResult struct {
	Places  []ValidatedPlace `json:"places"`
	Skipped []SkippedPlace   `json:"skipped,omitempty"`
}

type GenerateItineraryArgs struct {
	StartDate          string             `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate            string             `json:"endDate" validate:"required,datetime=2006-01-02"`
	PlaceIDs           []string           `json:"placeIds,omitempty" validate:"omitempty,max=100,dive,uuid"`
	IncludeRecommended []RecommendedPlace `json:"includeRecommended,omitempty" validate:"omitempty,max=30,dive"`
	Pace               string             `json:"pace,omitempty" validate:"omitempty,oneof=relaxed moderate packed"`
}

type SearchNearbyPlacesArgs struct {
	Latitude           *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude          *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	ReferencePlaceName string   `json:"referencePlaceName,omitempty" validate:"omitempty,max=200"`
	Category           string   `json:"category,omitempty" validate:"omitempty,oneof=restaurant cafe attraction shopping accommodation nightlife other"`
	Keyword            string   `json:"keyword,omitempty" validate:"omitempty,max=100"`
	RadiusMeters       int      `json:"radiusMeters,omitempty" validate:"omitempty,min=100,max=50000"`
	MaxResults         int      `json:"maxResults,omitempty" validate:"omitempty,min=1,max=20"`
}

type SearchNearbyPlacesResult struct {
	Reference Coordinates      `json:"reference"`
	Places    []ValidatedPlace `json:"places"`
}
