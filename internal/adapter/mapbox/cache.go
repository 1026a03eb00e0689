package mapbox

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/couchcryptid/noonmap/internal/observability"
	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheTTL bounds how long a geocoded city is reused.
const DefaultCacheTTL = 24 * time.Hour

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache whose
// entries expire after a fixed TTL.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *ttlcache.Cache[string, domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &CachedGeocoder{
		inner: inner,
		cache: ttlcache.New[string, domain.GeocodingResult](
			ttlcache.WithTTL[string, domain.GeocodingResult](DefaultCacheTTL),
			ttlcache.WithCapacity[string, domain.GeocodingResult](uint64(maxEntries)),
		),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, country string) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("fwd:%s|%s", name, country)
	if item := c.cache.Get(key); item != nil {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return item.Value(), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name, country)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Set(key, result, ttlcache.DefaultTTL)
	}
	return result, nil
}

// Len returns the number of cached entries.
func (c *CachedGeocoder) Len() int { return c.cache.Len() }
