package usecases

import (
	"fmt"
	"log/slog"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
)

// MarkerSynchronizer reconciles the map's markers with the current working
// set. Markers are a derived, disposable view: every Sync tears down all
// prior markers before creating new ones, so stale markers never coexist
// with a fresh result set and nothing leaks across refreshes.
//
// Sync must only be called from the single turn that owns the session
// state; the synchronizer does no locking of its own.
type MarkerSynchronizer struct {
	mapHandle ports.MapHandle
	markers   []ports.MarkerID
}

// NewMarkerSynchronizer creates a synchronizer bound to one map.
func NewMarkerSynchronizer(mapHandle ports.MapHandle) *MarkerSynchronizer {
	return &MarkerSynchronizer{mapHandle: mapHandle}
}

// Sync replaces all markers with one per restaurant.
func (m *MarkerSynchronizer) Sync(restaurants []domain.Restaurant) {
	m.Clear()

	for _, r := range restaurants {
		id, err := m.mapHandle.CreateMarker(r, PopupFor(r))
		if err != nil {
			slog.Warn("create marker failed", "restaurant", r.ID, "error", err)
			continue
		}
		m.markers = append(m.markers, id)
	}
}

// Clear removes every marker this synchronizer owns.
func (m *MarkerSynchronizer) Clear() {
	for _, id := range m.markers {
		if err := m.mapHandle.RemoveMarker(id); err != nil {
			slog.Warn("remove marker failed", "marker", string(id), "error", err)
		}
	}
	m.markers = m.markers[:0]
}

// Count returns the number of live markers.
func (m *MarkerSynchronizer) Count() int {
	return len(m.markers)
}

// Owns reports whether the synchronizer created id and has not since
// removed it. Clicks racing a refresh can still reference a torn-down
// marker.
func (m *MarkerSynchronizer) Owns(id ports.MarkerID) bool {
	for _, mid := range m.markers {
		if mid == id {
			return true
		}
	}
	return false
}

// PopupFor builds the detail popup for a restaurant's marker click.
func PopupFor(r domain.Restaurant) ports.PopupContent {
	return ports.PopupContent{
		Title:   r.Name,
		Address: r.Address,
		Rating:  FormatRating(r.Rating, r.RatingCount),
	}
}

// FormatRating renders "rating (count reviews)" with "N/A" substituted for
// an absent rating.
func FormatRating(rating *float64, count *int) string {
	if rating == nil {
		return "N/A"
	}
	n := 0
	if count != nil {
		n = *count
	}
	return fmt.Sprintf("%.1f (%d reviews)", *rating, n)
}
