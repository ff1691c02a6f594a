package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
)

// SearchResponse wraps a nearby search result for clients that geolocate
// themselves and call the REST surface directly.
type SearchResponse struct {
	Restaurants []domain.Restaurant `json:"restaurants"`
	Total       int                 `json:"total"`
	Empty       bool                `json:"empty"`
}

// NearbyRestaurantsHandler runs one search around a client-supplied
// center. Display filters (search, cuisine, min_rating) are applied
// server-side on the fetched set; cuisine additionally feeds the provider
// keyword, mirroring the widget behavior.
func NearbyRestaurantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat/lon out of range")
		}

		radius := c.QueryInt("radius", domain.MaxRadiusMeters/2)
		filters := domain.DisplayFilters{
			SearchTerm: c.Query("search"),
			Cuisine:    c.Query("cuisine"),
			MinRating:  c.QueryFloat("min_rating", 0),
		}
		if filters.MinRating < 0 || filters.MinRating > 5 {
			return errBadRequest(c, "min_rating must be between 0 and 5")
		}

		params := domain.SearchParams{
			Center:       domain.GeoPoint{Lat: lat, Lon: lon},
			RadiusMeters: radius,
			Keyword:      filters.Cuisine,
		}

		restaurants, err := deps.Search.Search(c.Context(), params)
		if err != nil {
			var gw *ports.GatewayError
			if errors.As(err, &gw) {
				return errUpstream(c, "places provider returned "+gw.Code)
			}
			return errInternal(c, err.Error())
		}

		visible := usecases.ApplyFilters(restaurants, filters)

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(SearchResponse{
			Restaurants: visible,
			Total:       len(restaurants),
			Empty:       len(restaurants) == 0,
		})
	}
}
