package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
)

// PlacesGateway wraps the external nearby-search capability. A call is
// single-shot: no retry, no provider-side timeout beyond the transport's.
// Zero results are not an error — they come back as an empty slice with a
// nil error. Provider failures surface as *GatewayError.
type PlacesGateway interface {
	NearbySearch(ctx context.Context, params domain.SearchParams) ([]domain.RawPlace, error)
}

// GatewayError is a non-OK status from the places provider.
type GatewayError struct {
	Code string // provider status, e.g. OVER_QUERY_LIMIT, REQUEST_DENIED
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("places gateway error: %s", e.Code)
}

// Geolocation failure modes. Each is terminal for the session's initial
// load — no automatic retry, no fallback center.
var (
	ErrPermissionDenied = errors.New("geolocation permission denied")
	ErrUnsupported      = errors.New("geolocation unsupported by host")
)

// GeoLocator acquires the user's current position once.
type GeoLocator interface {
	Locate(ctx context.Context) (domain.GeoPoint, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
