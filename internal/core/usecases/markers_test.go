package usecases_test

import (
	"fmt"
	"testing"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
)

// mockMapHandle records marker lifecycle calls.
type mockMapHandle struct {
	nextID  int
	live    map[ports.MarkerID]domain.Restaurant
	popups  map[ports.MarkerID]ports.PopupContent
	created int
	removed int

	panTo     *domain.GeoPoint
	zoom      int
	fitBounds *domain.Bounds
	opened    []ports.MarkerID

	createErr error
}

func newMockMapHandle() *mockMapHandle {
	return &mockMapHandle{
		live:   make(map[ports.MarkerID]domain.Restaurant),
		popups: make(map[ports.MarkerID]ports.PopupContent),
	}
}

func (m *mockMapHandle) CreateMarker(r domain.Restaurant, popup ports.PopupContent) (ports.MarkerID, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	id := ports.MarkerID(fmt.Sprintf("m%d", m.nextID))
	m.live[id] = r
	m.popups[id] = popup
	m.created++
	return id, nil
}

func (m *mockMapHandle) RemoveMarker(id ports.MarkerID) error {
	delete(m.live, id)
	m.removed++
	return nil
}

func (m *mockMapHandle) OpenPopup(id ports.MarkerID) error {
	m.opened = append(m.opened, id)
	return nil
}

func (m *mockMapHandle) PanTo(center domain.GeoPoint) error { m.panTo = &center; return nil }
func (m *mockMapHandle) SetZoom(level int) error            { m.zoom = level; return nil }
func (m *mockMapHandle) FitBounds(b domain.Bounds) error    { m.fitBounds = &b; return nil }

func TestMarkerSynchronizer_SyncCreatesOnePerRestaurant(t *testing.T) {
	h := newMockMapHandle()
	sync := usecases.NewMarkerSynchronizer(h)

	sync.Sync(testSet())

	if sync.Count() != 3 {
		t.Fatalf("expected 3 live markers, got %d", sync.Count())
	}
	if len(h.live) != 3 {
		t.Fatalf("expected 3 markers on the map, got %d", len(h.live))
	}
}

func TestMarkerSynchronizer_RefreshLeavesNoStaleMarkers(t *testing.T) {
	h := newMockMapHandle()
	sync := usecases.NewMarkerSynchronizer(h)

	sync.Sync(testSet())
	sync.Sync(testSet()[:1]) // shorter list

	if sync.Count() != 1 {
		t.Fatalf("expected 1 live marker after refresh, got %d", sync.Count())
	}
	if len(h.live) != 1 {
		t.Fatalf("stale markers left on map: %d", len(h.live))
	}
	if h.removed != 3 {
		t.Errorf("expected all 3 prior markers removed, got %d", h.removed)
	}
}

func TestMarkerSynchronizer_ClearIsIdempotent(t *testing.T) {
	h := newMockMapHandle()
	sync := usecases.NewMarkerSynchronizer(h)

	sync.Sync(testSet())
	sync.Clear()
	sync.Clear()

	if sync.Count() != 0 || len(h.live) != 0 {
		t.Fatalf("expected no markers, got %d local / %d on map", sync.Count(), len(h.live))
	}
	if h.removed != 3 {
		t.Errorf("second Clear must not re-remove, got %d removals", h.removed)
	}
}

func TestMarkerSynchronizer_SyncEmptyList(t *testing.T) {
	h := newMockMapHandle()
	sync := usecases.NewMarkerSynchronizer(h)

	sync.Sync(testSet())
	sync.Sync(nil)

	if sync.Count() != 0 || len(h.live) != 0 {
		t.Fatal("expected all markers torn down for an empty result set")
	}
}

func TestFormatRating(t *testing.T) {
	if got := usecases.FormatRating(f(4.2), i(150)); got != "4.2 (150 reviews)" {
		t.Errorf("got %q", got)
	}
	if got := usecases.FormatRating(nil, i(9)); got != "N/A" {
		t.Errorf("absent rating must render N/A, got %q", got)
	}
	if got := usecases.FormatRating(f(5.0), nil); got != "5.0 (0 reviews)" {
		t.Errorf("got %q", got)
	}
}

func TestPopupFor(t *testing.T) {
	r := testSet()[0]
	popup := usecases.PopupFor(r)
	if popup.Title != "Pizza Place" || popup.Address != "1 Main St" {
		t.Errorf("unexpected popup: %+v", popup)
	}
	if popup.Rating != "4.2 (150 reviews)" {
		t.Errorf("unexpected popup rating: %q", popup.Rating)
	}
}
