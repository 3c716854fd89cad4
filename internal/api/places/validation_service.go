package places

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	DefaultNearbyRadiusMeters = 1500
	DefaultNearbyMaxResults   = 5
	MaxNearbyResults          = 20
	defaultConcurrency        = 4
)

var _ ValidationService = (*ValidationServiceImpl)(nil)

// ValidationService verifies assistant recommendations against the places API.
type ValidationService interface {
	// ValidateAndEnrich returns one result per input, in input order. Places
	// that cannot be verified come back with IsVerified false.
	ValidateAndEnrich(ctx context.Context, places []types.RecommendedPlace, destination, country string) []types.ValidatedPlace
	SearchNearby(ctx context.Context, params types.NearbySearchParams) ([]types.ValidatedPlace, error)
	GetPlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error)
	Geocode(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error)
}

type ValidationServiceImpl struct {
	client      Client
	details     *DetailsCache
	concurrency int
	logger      *slog.Logger
}

func NewValidationService(client Client, details *DetailsCache, concurrency int, logger *slog.Logger) *ValidationServiceImpl {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &ValidationServiceImpl{
		client:      client,
		details:     details,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *ValidationServiceImpl) ValidateAndEnrich(ctx context.Context, places []types.RecommendedPlace, destination, country string) []types.ValidatedPlace {
	ctx, span := otel.Tracer("PlaceValidationService").Start(ctx, "ValidateAndEnrich")
	defer span.End()
	span.SetAttributes(attribute.Int("places.count", len(places)), attribute.String("destination", destination))

	out := make([]types.ValidatedPlace, len(places))
	geocodes := NewGeocodeCache()

	// Each goroutine owns one index and never returns an error, so one failed
	// lookup cannot cancel its siblings.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range places {
		g.Go(func() error {
			out[i] = s.validateOne(gctx, geocodes, p, destination, country)
			return nil
		})
	}
	_ = g.Wait()

	verified := 0
	for _, v := range out {
		if v.IsVerified {
			verified++
		}
	}
	span.SetAttributes(attribute.Int("places.verified", verified))
	s.logger.DebugContext(ctx, "places validated",
		slog.Int("count", len(out)), slog.Int("verified", verified))
	return out
}

func (s *ValidationServiceImpl) validateOne(ctx context.Context, geocodes *GeocodeCache, p types.RecommendedPlace, destination, country string) types.ValidatedPlace {
	l := s.logger.With(slog.String("method", "validateOne"), slog.String("place", p.Name))
	v := types.ValidatedPlace{RecommendedPlace: p}

	geo, err := geocodes.GetOrFetch(ctx, p.Name, p.NameEn, destination, country, s.client.Geocode)
	if err != nil {
		l.WarnContext(ctx, "geocode failed", slog.Any("error", err))
		return v
	}
	if geo == nil {
		l.DebugContext(ctx, "no geocode result")
		return v
	}

	d, err := s.GetPlaceDetails(ctx, geo.PlaceID)
	if err != nil || d == nil {
		l.WarnContext(ctx, "place details unavailable", slog.String("place_id", geo.PlaceID), slog.Any("error", err))
		return v
	}

	applyDetails(&v, d)
	if v.Address == "" {
		v.Address = geo.FormattedAddress
	}
	if d.Latitude == 0 && d.Longitude == 0 {
		lat, lng := geo.Latitude, geo.Longitude
		v.Latitude, v.Longitude = &lat, &lng
	}
	return v
}

// GetPlaceDetails serves from the details cache, fetching on a miss. Missing
// places are not cached.
func (s *ValidationServiceImpl) GetPlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error) {
	if d, ok := s.details.Get(placeID); ok {
		recordLookup(ctx, "place_details", true)
		return d, nil
	}
	recordLookup(ctx, "place_details", false)

	d, err := s.client.GetPlaceDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if d != nil {
		s.details.Set(placeID, d)
	}
	return d, nil
}

func (s *ValidationServiceImpl) Geocode(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error) {
	return s.client.Geocode(ctx, name, nameEn, destination, country)
}

func (s *ValidationServiceImpl) SearchNearby(ctx context.Context, params types.NearbySearchParams) ([]types.ValidatedPlace, error) {
	ctx, span := otel.Tracer("PlaceValidationService").Start(ctx, "SearchNearby")
	defer span.End()

	if params.RadiusMeters <= 0 {
		params.RadiusMeters = DefaultNearbyRadiusMeters
	}
	if params.MaxResults <= 0 {
		params.MaxResults = DefaultNearbyMaxResults
	}
	if params.MaxResults > MaxNearbyResults {
		params.MaxResults = MaxNearbyResults
	}

	found, err := s.client.SearchNearby(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "nearby search failed")
		return nil, fmt.Errorf("failed to search nearby places: %w", err)
	}

	out := make([]types.ValidatedPlace, 0, min(len(found), params.MaxResults))
	for i := range found {
		if len(out) == params.MaxResults {
			break
		}
		d := found[i]
		if d.PlaceID != "" {
			s.details.Set(d.PlaceID, &d)
		}
		category := params.Category
		if category == "" {
			category = types.CategoryOther
		}
		v := types.ValidatedPlace{RecommendedPlace: types.RecommendedPlace{
			Name:     d.Name,
			Category: category,
		}}
		applyDetails(&v, &d)
		out = append(out, v)
	}
	span.SetAttributes(attribute.Int("results.count", len(out)))
	return out, nil
}

func applyDetails(v *types.ValidatedPlace, d *types.PlaceDetails) {
	v.IsVerified = true
	v.GooglePlaceID = d.PlaceID
	v.Rating = d.Rating
	v.UserRatingsTotal = d.UserRatingsTotal
	v.OpenNow = d.OpenNow
	v.PriceLevel = d.PriceLevel
	v.GoogleMapsURL = d.URL
	if d.FormattedAddress != "" {
		v.Address = d.FormattedAddress
	}
	lat, lng := d.Latitude, d.Longitude
	v.Latitude, v.Longitude = &lat, &lng
}
