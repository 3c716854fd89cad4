package places

import (
	"context"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-planner-chat/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

// GeocodeFetcher performs the lookup behind a GeocodeCache miss.
type GeocodeFetcher func(ctx context.Context, name, nameEn, destination, country string) (*types.GeocodeResult, error)

// GeocodeCache memoizes geocode lookups by (name, nameEn) for one unit of
// work. Entries never expire and "no result" is cached like any other value.
// Errors are not cached.
type GeocodeCache struct {
	c *cache.Cache
}

func NewGeocodeCache() *GeocodeCache {
	return &GeocodeCache{c: cache.New(cache.NoExpiration, 0)}
}

func geocodeKey(name, nameEn string) string {
	return name + "|" + nameEn
}

// GetOrFetch returns the cached result for the pair or calls fetch once and
// stores whatever it returns, nil included.
func (g *GeocodeCache) GetOrFetch(ctx context.Context, name, nameEn, destination, country string, fetch GeocodeFetcher) (*types.GeocodeResult, error) {
	key := geocodeKey(name, nameEn)
	if v, found := g.c.Get(key); found {
		recordLookup(ctx, "geocode", true)
		return v.(*types.GeocodeResult), nil
	}
	recordLookup(ctx, "geocode", false)

	res, err := fetch(ctx, name, nameEn, destination, country)
	if err != nil {
		return nil, err
	}
	g.c.Set(key, res, cache.NoExpiration)
	return res, nil
}

func (g *GeocodeCache) Len() int {
	return g.c.ItemCount()
}

func (g *GeocodeCache) Clear() {
	g.c.Flush()
}

func recordLookup(ctx context.Context, name string, hit bool) {
	metrics.Get().CacheLookupsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", name),
		attribute.Bool("hit", hit),
	))
}
