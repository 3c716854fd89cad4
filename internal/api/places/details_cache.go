package places

import (
	"sync"
	"time"

	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const (
	DefaultDetailsCacheSize = 100
	DefaultDetailsCacheTTL  = 5 * time.Minute
)

type detailsEntry struct {
	data     *types.PlaceDetails
	storedAt time.Time
}

// DetailsCache is a bounded TTL cache of place details keyed by external
// place id. At capacity the oldest inserted key is evicted; reads do not
// promote. Expired entries are removed lazily when read.
type DetailsCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]detailsEntry
	order   []string
}

type DetailsCacheOption func(*DetailsCache)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) DetailsCacheOption {
	return func(c *DetailsCache) { c.now = now }
}

func NewDetailsCache(maxSize int, ttl time.Duration, opts ...DetailsCacheOption) *DetailsCache {
	if maxSize <= 0 {
		maxSize = DefaultDetailsCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultDetailsCacheTTL
	}
	c := &DetailsCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]detailsEntry, maxSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *DetailsCache) Get(placeID string) (*types.PlaceDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[placeID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.remove(placeID)
		return nil, false
	}
	return e.data, true
}

// Set stores details for placeID. Re-setting a present key refreshes its
// timestamp but keeps its insertion position.
func (c *DetailsCache) Set(placeID string, data *types.PlaceDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[placeID]; ok {
		c.entries[placeID] = detailsEntry{data: data, storedAt: c.now()}
		return
	}
	for len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[placeID] = detailsEntry{data: data, storedAt: c.now()}
	c.order = append(c.order, placeID)
}

func (c *DetailsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DetailsCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]detailsEntry, c.maxSize)
	c.order = nil
}

func (c *DetailsCache) remove(placeID string) {
	delete(c.entries, placeID)
	for i, k := range c.order {
		if k == placeID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
