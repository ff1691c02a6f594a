package http

import (
	"time"

	"github.com/StiensB/RestaurantFinder/internal/adapters/valkey"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
)

// Dependencies holds everything the HTTP surface needs.
type Dependencies struct {
	Search  *usecases.SearchService
	Gateway ports.PlacesGateway
	Cache   *valkey.Cache

	// Widget session tuning, passed through to each WebSocket session.
	Debounce            time.Duration
	Cooldown            time.Duration
	DefaultRadiusMeters int
	DefaultZoom         int
}
