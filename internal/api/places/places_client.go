package places

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"googlemaps.github.io/maps"

	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner-chat/config"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const defaultTimeout = 8 * time.Second

var _ Client = (*GoogleClient)(nil)

// Client is the external places API. Lookups that find nothing return a nil
// result and a nil error.
type Client interface {
	Geocode(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error)
	GetPlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error)
	SearchNearby(ctx context.Context, params types.NearbySearchParams) ([]types.PlaceDetails, error)
}

// GoogleClient implements Client on the Google Maps Places web service.
type GoogleClient struct {
	maps     *maps.Client
	language string
	region   string
	timeout  time.Duration
	logger   *slog.Logger
}

func NewGoogleClient(cfg config.PlacesConfig, logger *slog.Logger) (*GoogleClient, error) {
	c, err := maps.NewClient(maps.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GoogleClient{
		maps:     c,
		language: cfg.Language,
		region:   cfg.Region,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

func (g *GoogleClient) Geocode(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "Geocode")
	defer span.End()
	span.SetAttributes(attribute.String("place.name", name), attribute.String("destination", destination))

	queries := []string{joinQuery(name, destination, country)}
	if nameEn != "" && !strings.EqualFold(nameEn, name) {
		queries = append(queries, joinQuery(nameEn, destination, country))
	}

	for _, q := range queries {
		var resp maps.PlacesSearchResponse
		err := g.call(ctx, "text_search", func(ctx context.Context) error {
			var err error
			resp, err = g.maps.TextSearch(ctx, &maps.TextSearchRequest{
				Query:    q,
				Language: g.language,
				Region:   g.region,
			})
			return err
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "text search failed")
			return nil, fmt.Errorf("text search %q: %w", q, err)
		}
		if len(resp.Results) == 0 {
			continue
		}
		r := resp.Results[0]
		return &types.GeocodeResult{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Latitude:         r.Geometry.Location.Lat,
			Longitude:        r.Geometry.Location.Lng,
		}, nil
	}

	span.SetStatus(codes.Ok, "no result")
	return nil, nil
}

func (g *GoogleClient) GetPlaceDetails(ctx context.Context, placeID string) (*types.PlaceDetails, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "GetPlaceDetails")
	defer span.End()
	span.SetAttributes(attribute.String("place.id", placeID))

	var res maps.PlaceDetailsResult
	err := g.call(ctx, "place_details", func(ctx context.Context) error {
		var err error
		res, err = g.maps.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
			PlaceID:  placeID,
			Language: g.language,
		})
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "NOT_FOUND") {
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "place details failed")
		return nil, fmt.Errorf("place details %s: %w", placeID, err)
	}

	d := &types.PlaceDetails{
		PlaceID:          res.PlaceID,
		Name:             res.Name,
		FormattedAddress: res.FormattedAddress,
		Latitude:         res.Geometry.Location.Lat,
		Longitude:        res.Geometry.Location.Lng,
		URL:              res.URL,
		Types:            res.Types,
	}
	fillRatings(d, res.Rating, res.UserRatingsTotal, res.PriceLevel, res.OpeningHours)
	return d, nil
}

func (g *GoogleClient) SearchNearby(ctx context.Context, params types.NearbySearchParams) ([]types.PlaceDetails, error) {
	ctx, span := otel.Tracer("PlacesClient").Start(ctx, "SearchNearby")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("latitude", params.Latitude),
		attribute.Float64("longitude", params.Longitude),
		attribute.String("category", string(params.Category)),
		attribute.Int("radius", params.RadiusMeters),
	)

	req := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: params.Latitude, Lng: params.Longitude},
		Radius:   uint(params.RadiusMeters),
		Keyword:  params.Keyword,
		Language: g.language,
	}
	if t, ok := categoryPlaceTypes[params.Category]; ok {
		req.Type = t
	}

	var resp maps.PlacesSearchResponse
	err := g.call(ctx, "nearby_search", func(ctx context.Context) error {
		var err error
		resp, err = g.maps.NearbySearch(ctx, req)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "nearby search failed")
		return nil, fmt.Errorf("nearby search: %w", err)
	}

	out := make([]types.PlaceDetails, 0, len(resp.Results))
	for _, r := range resp.Results {
		d := types.PlaceDetails{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: firstNonEmpty(r.FormattedAddress, r.Vicinity),
			Latitude:         r.Geometry.Location.Lat,
			Longitude:        r.Geometry.Location.Lng,
			Types:            r.Types,
		}
		fillRatings(&d, r.Rating, r.UserRatingsTotal, r.PriceLevel, r.OpeningHours)
		out = append(out, d)
		if params.MaxResults > 0 && len(out) >= params.MaxResults {
			break
		}
	}
	span.SetAttributes(attribute.Int("results.count", len(out)))
	return out, nil
}

// call runs fn under the per-call timeout and records latency.
func (g *GoogleClient) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	attrs := metric.WithAttributes(attribute.String("operation", op))
	metrics.Get().PlacesAPIDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		metrics.Get().PlacesAPIErrorsTotal.Add(context.WithoutCancel(ctx), 1, attrs)
		g.logger.WarnContext(ctx, "places api call failed",
			slog.String("operation", op), slog.Any("error", err))
	}
	return err
}

var categoryPlaceTypes = map[types.PlaceCategory]maps.PlaceType{
	types.CategoryRestaurant:    maps.PlaceType("restaurant"),
	types.CategoryCafe:          maps.PlaceType("cafe"),
	types.CategoryAttraction:    maps.PlaceType("tourist_attraction"),
	types.CategoryShopping:      maps.PlaceType("shopping_mall"),
	types.CategoryAccommodation: maps.PlaceType("lodging"),
	types.CategoryNightlife:     maps.PlaceType("night_club"),
}

func fillRatings(d *types.PlaceDetails, rating float32, total, price int, hours *maps.OpeningHours) {
	if rating > 0 {
		r := float64(rating)
		d.Rating = &r
	}
	if total > 0 {
		d.UserRatingsTotal = &total
	}
	if price > 0 {
		d.PriceLevel = &price
	}
	if hours != nil && hours.OpenNow != nil {
		open := *hours.OpenNow
		d.OpenNow = &open
	}
}

func joinQuery(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
