package types

import "github.com/google/uuid"

type PlaceCategory string

const (
	CategoryRestaurant    PlaceCategory = "restaurant"
	CategoryCafe          PlaceCategory = "cafe"
	CategoryAttraction    PlaceCategory = "attraction"
	CategoryShopping      PlaceCategory = "shopping"
	CategoryAccommodation PlaceCategory = "accommodation"
	CategoryNightlife     PlaceCategory = "nightlife"
	CategoryOther         PlaceCategory = "other"
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DuplicateCandidate is the comparison projection of a persisted project place.
type DuplicateCandidate struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Category      PlaceCategory `json:"category,omitempty"`
	Latitude      float64       `json:"latitude"`
	Longitude     float64       `json:"longitude"`
	GooglePlaceID *string       `json:"googlePlaceId,omitempty"`
}

// DuplicateCheckResult reports whether a candidate matches an existing place.
type DuplicateCheckResult struct {
	IsDuplicate   bool                `json:"isDuplicate"`
	ExistingPlace *DuplicateCandidate `json:"existingPlace,omitempty"`
	MatchedBy     string              `json:"matchedBy,omitempty"` // place_id | name | proximity
}

// RecommendedPlace is a place proposed by the assistant before validation.
type RecommendedPlace struct {
	Name        string        `json:"name" validate:"required,min=1,max=200"`
	NameEn      string        `json:"nameEn,omitempty" validate:"omitempty,max=200"`
	Category    PlaceCategory `json:"category" validate:"required,oneof=restaurant cafe attraction shopping accommodation nightlife other"`
	Description string        `json:"description,omitempty" validate:"omitempty,max=1000"`
	Address     string        `json:"address,omitempty" validate:"omitempty,max=500"`
	Latitude    *float64      `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64      `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// ValidatedPlace is a RecommendedPlace enriched by the places API.
type ValidatedPlace struct {
	RecommendedPlace
	IsVerified            bool     `json:"isVerified"`
	GooglePlaceID         string   `json:"googlePlaceId,omitempty"`
	Rating                *float64 `json:"rating,omitempty"`
	UserRatingsTotal      *int     `json:"userRatingsTotal,omitempty"`
	OpenNow               *bool    `json:"openNow,omitempty"`
	PriceLevel            *int     `json:"priceLevel,omitempty"`
	GoogleMapsURL         string   `json:"googleMapsUrl,omitempty"`
	DistanceFromReference *float64 `json:"distanceFromReference,omitempty"`
	AlreadyInProject      bool     `json:"alreadyInProject,omitempty"`
}

// GeocodeResult is the outcome of a name based lookup.
type GeocodeResult struct {
	PlaceID          string  `json:"placeId"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formattedAddress"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// PlaceDetails are the enrichment fields fetched by external place id.
type PlaceDetails struct {
	PlaceID          string   `json:"placeId"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formattedAddress"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Rating           *float64 `json:"rating,omitempty"`
	UserRatingsTotal *int     `json:"userRatingsTotal,omitempty"`
	PriceLevel       *int     `json:"priceLevel,omitempty"`
	OpenNow          *bool    `json:"openNow,omitempty"`
	URL              string   `json:"url,omitempty"`
	Types            []string `json:"types,omitempty"`
}

// NearbySearchParams drives a nearby search around a point.
type NearbySearchParams struct {
	Latitude     float64
	Longitude    float64
	Category     PlaceCategory
	Keyword      string
	RadiusMeters int
	MaxResults   int
}
