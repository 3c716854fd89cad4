package duplicate

import (
	"strings"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/geo"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	MatchedByPlaceID   = "place_id"
	MatchedByName      = "name"
	MatchedByProximity = "proximity"
)

// Candidate is the place being checked against a project's places.
type Candidate struct {
	Name          string
	GooglePlaceID string
	Coordinates   *types.Coordinates
}

// Detector decides whether a candidate already exists in a place list.
type Detector struct {
	thresholdMeters float64
}

// NewDetector returns a Detector using thresholdMeters for proximity matches.
// A non-positive threshold falls back to geo.DefaultNearThresholdMeters.
func NewDetector(thresholdMeters float64) *Detector {
	if thresholdMeters <= 0 {
		thresholdMeters = geo.DefaultNearThresholdMeters
	}
	return &Detector{thresholdMeters: thresholdMeters}
}

// Check tries, in order, place id equality, case-insensitive name equality and
// coordinate proximity. The first strategy that matches any existing place wins.
func (d *Detector) Check(c Candidate, existing []types.DuplicateCandidate) types.DuplicateCheckResult {
	if c.GooglePlaceID != "" {
		for i := range existing {
			if existing[i].GooglePlaceID != nil && *existing[i].GooglePlaceID == c.GooglePlaceID {
				return found(&existing[i], MatchedByPlaceID)
			}
		}
	}

	name := normalizeName(c.Name)
	if name != "" {
		for i := range existing {
			if normalizeName(existing[i].Name) == name {
				return found(&existing[i], MatchedByName)
			}
		}
	}

	if c.Coordinates != nil && geo.Valid(*c.Coordinates) {
		for i := range existing {
			p := types.Coordinates{Latitude: existing[i].Latitude, Longitude: existing[i].Longitude}
			if geo.Near(*c.Coordinates, p, d.thresholdMeters) {
				return found(&existing[i], MatchedByProximity)
			}
		}
	}

	return types.DuplicateCheckResult{IsDuplicate: false}
}

func found(p *types.DuplicateCandidate, by string) types.DuplicateCheckResult {
	match := *p
	return types.DuplicateCheckResult{IsDuplicate: true, ExistingPlace: &match, MatchedBy: by}
}

// NameSet tracks lower-cased names seen within one batch, so two extractions
// from the same input do not both become new places before either is saved.
type NameSet map[string]struct{}

func NewNameSet() NameSet { return make(NameSet) }

// Contains reports whether name was already added.
func (s NameSet) Contains(name string) bool {
	_, ok := s[normalizeName(name)]
	return ok
}

// Add records name in the set.
func (s NameSet) Add(name string) {
	s[normalizeName(name)] = struct{}{}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
