package ports

import "github.com/StiensB/RestaurantFinder/internal/core/domain"

// MarkerID is an opaque handle to a visual marker created through a
// MapHandle. The core never depends on what the handle points at.
type MarkerID string

// PopupContent is the detail popup attached to a marker click.
type PopupContent struct {
	Title   string `json:"title"`
	Address string `json:"address,omitempty"`
	Rating  string `json:"rating"` // formatted "4.2 (150 reviews)" or "N/A"
}

// MapHandle is the capability surface of the host map. Implementations
// translate these calls into whatever the rendering side understands;
// the engine only ever holds opaque marker handles.
type MapHandle interface {
	CreateMarker(r domain.Restaurant, popup PopupContent) (MarkerID, error)
	RemoveMarker(id MarkerID) error
	OpenPopup(id MarkerID) error
	PanTo(center domain.GeoPoint) error
	SetZoom(level int) error
	FitBounds(b domain.Bounds) error
}
