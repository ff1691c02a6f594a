package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/pkg/geospatial"
)

// searchCacheTTL keeps gateway responses briefly; place data near a
// viewport does not change second to second.
const searchCacheTTL = 120

// SearchService is the stateless search facade shared by the REST surface,
// GraphQL, and widget sessions: clamp parameters, consult the cache, call
// the gateway, normalize, annotate distance from the search center.
type SearchService struct {
	gateway ports.PlacesGateway
	cache   ports.CacheService
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(gateway ports.PlacesGateway, cache ports.CacheService) *SearchService {
	return &SearchService{gateway: gateway, cache: cache}
}

// Search runs one nearby search and returns the normalized, admission-
// filtered, rating-sorted restaurant list. An empty list with a nil error
// means the provider found nothing; provider failures surface as
// *ports.GatewayError.
func (s *SearchService) Search(ctx context.Context, params domain.SearchParams) ([]domain.Restaurant, error) {
	params.ClampRadius()

	cacheKey := fmt.Sprintf("places:nearby:%.4f:%.4f:%d:%s",
		params.Center.Lat, params.Center.Lon, params.RadiusMeters, params.Keyword)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []domain.Restaurant
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	raw, err := s.gateway.NearbySearch(ctx, params)
	if err != nil {
		return nil, err
	}

	restaurants := Normalize(raw)
	for i := range restaurants {
		d := geospatial.Haversine(params.Center, restaurants[i].Location)
		restaurants[i].Distance = &d
	}

	if s.cache != nil {
		if data, err := json.Marshal(restaurants); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, searchCacheTTL)
		}
	}

	return restaurants, nil
}
