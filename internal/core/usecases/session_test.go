package usecases_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/core/usecases"
)

type mockGateway struct {
	mu       sync.Mutex
	calls    []domain.SearchParams
	nearbyFn func(ctx context.Context, params domain.SearchParams) ([]domain.RawPlace, error)
}

func (g *mockGateway) NearbySearch(ctx context.Context, params domain.SearchParams) ([]domain.RawPlace, error) {
	g.mu.Lock()
	g.calls = append(g.calls, params)
	g.mu.Unlock()
	return g.nearbyFn(ctx, params)
}

func (g *mockGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *mockGateway) lastCall() domain.SearchParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[len(g.calls)-1]
}

type mockLocator struct {
	locateFn func(ctx context.Context) (domain.GeoPoint, error)
}

func (l *mockLocator) Locate(ctx context.Context) (domain.GeoPoint, error) {
	return l.locateFn(ctx)
}

// snapRecorder collects the snapshots a session pushes.
type snapRecorder struct {
	mu    sync.Mutex
	snaps []usecases.Snapshot
}

func (r *snapRecorder) notify(s usecases.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *snapRecorder) latest() (usecases.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return usecases.Snapshot{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}

// waitSnap polls until the latest snapshot satisfies cond.
func waitSnap(t *testing.T, rec *snapRecorder, cond func(usecases.Snapshot) bool) usecases.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap, ok := rec.latest(); ok && cond(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("timed out waiting for snapshot")
	return usecases.Snapshot{}
}

func settled(s usecases.Snapshot) bool { return !s.Loading }

func rawFixtures() []domain.RawPlace {
	return []domain.RawPlace{
		{
			PlaceID:          "a",
			Name:             "Pizza Place",
			Rating:           f(4.2),
			UserRatingsTotal: i(150),
			Vicinity:         "1 Main St",
			Types:            []string{"restaurant", "pizza"},
			Location:         &domain.GeoPoint{Lat: 51.5, Lon: -0.1},
		},
		{
			PlaceID:          "b",
			Name:             "Sushi Bar",
			Rating:           f(4.7),
			UserRatingsTotal: i(80),
			Vicinity:         "2 High St",
			Types:            []string{"restaurant", "sushi"},
			Location:         &domain.GeoPoint{Lat: 51.51, Lon: -0.11},
		},
	}
}

func newTestSession(t *testing.T, gw *mockGateway, loc *mockLocator) (*usecases.Session, *snapRecorder, *mockMapHandle) {
	t.Helper()
	rec := &snapRecorder{}
	handle := newMockMapHandle()
	svc := usecases.NewSearchService(gw, nil)
	cfg := usecases.SessionConfig{
		Debounce:            10 * time.Millisecond,
		Cooldown:            time.Millisecond,
		DefaultRadiusMeters: 24140,
		DefaultZoom:         13,
	}
	s := usecases.NewSession("test-session", svc, loc, handle, cfg, rec.notify)
	t.Cleanup(s.Close)
	return s, rec, handle
}

func TestSession_StartLoadsNearbyRestaurants(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 51.5, Lon: -0.1}, nil
	}}
	s, rec, handle := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return settled(s) && s.Total == 2
	})
	if snap.Error != "" {
		t.Errorf("unexpected error banner: %q", snap.Error)
	}
	if snap.Restaurants[0].Name != "Sushi Bar" {
		t.Errorf("results not sorted by rating, first is %q", snap.Restaurants[0].Name)
	}

	params := gw.lastCall()
	if params.Center.Lat != 51.5 || params.Center.Lon != -0.1 {
		t.Errorf("search not centered on the located position: %+v", params.Center)
	}
	if params.RadiusMeters != 24140 {
		t.Errorf("search radius = %d, want default 24140", params.RadiusMeters)
	}
	if len(handle.live) != 2 {
		t.Errorf("expected 2 markers on the map, got %d", len(handle.live))
	}
	if handle.panTo == nil || handle.panTo.Lat != 51.5 {
		t.Error("map was not centered on the user position")
	}
	if handle.zoom != 13 {
		t.Errorf("zoom = %d, want 13", handle.zoom)
	}
	if handle.fitBounds == nil {
		t.Error("map bounds were not fit to the result set")
	}
}

func TestSession_GeolocationDeniedIsTerminal(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{}, ports.ErrPermissionDenied
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when geolocation is denied")
	}

	snap := waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return settled(s) && s.Error != ""
	})
	if snap.Error != "location access was denied" {
		t.Errorf("error banner = %q", snap.Error)
	}
	if gw.callCount() != 0 {
		t.Error("no search should be issued without a position")
	}
}

func TestSession_GatewayErrorClearsResults(t *testing.T) {
	fail := false
	gw := &mockGateway{}
	gw.nearbyFn = func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		if fail {
			return nil, &ports.GatewayError{Code: "OVER_QUERY_LIMIT"}
		}
		return rawFixtures(), nil
	}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, handle := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })

	fail = true
	s.Refresh()

	snap := waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return settled(s) && s.Error != ""
	})
	if snap.Error != "restaurant search failed (OVER_QUERY_LIMIT), please try again" {
		t.Errorf("error banner = %q", snap.Error)
	}
	if snap.Total != 0 {
		t.Errorf("working set not cleared on error, total=%d", snap.Total)
	}
	if len(handle.live) != 0 {
		t.Errorf("markers not cleared on error, %d live", len(handle.live))
	}
}

func TestSession_ZeroResultsShowsEmptyState(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return nil, nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return settled(s) && s.Empty
	})
	if snap.Error != "" {
		t.Errorf("empty state must not carry an error banner, got %q", snap.Error)
	}
	if snap.Notice == "" {
		t.Error("empty state should suggest adjusting filters")
	}
}

func TestSession_SetRadiusSearchesImmediately(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })

	s.SetRadius(8045)
	waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return settled(s) && s.RadiusMeters == 8045
	})
	if gw.callCount() != 2 {
		t.Fatalf("expected a second immediate search, got %d calls", gw.callCount())
	}
	if gw.lastCall().RadiusMeters != 8045 {
		t.Errorf("search carried radius %d, want 8045", gw.lastCall().RadiusMeters)
	}
}

func TestSession_SetRadiusClampsOutOfRange(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return nil, nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, settled)

	s.SetRadius(100)
	snap := waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return s.RadiusMeters == domain.MinRadiusMeters
	})
	if snap.RadiusMeters != domain.MinRadiusMeters {
		t.Errorf("radius = %d, want clamped to %d", snap.RadiusMeters, domain.MinRadiusMeters)
	}
}

func TestSession_SearchTermFiltersWithoutNewSearch(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })

	s.SetSearchTerm("pizza")
	snap := waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return s.Filters.SearchTerm == "pizza"
	})
	if len(snap.Restaurants) != 1 || snap.Restaurants[0].Name != "Pizza Place" {
		t.Errorf("filtered view wrong: %+v", snap.Restaurants)
	}
	if snap.Total != 2 {
		t.Errorf("working set must be untouched by display filters, total=%d", snap.Total)
	}
	if gw.callCount() != 1 {
		t.Errorf("display filter issued a search, %d gateway calls", gw.callCount())
	}
}

func TestSession_CuisineFeedsKeywordAndSearches(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })

	s.SetCuisine("sushi")
	waitSnap(t, rec, func(s usecases.Snapshot) bool {
		return settled(s) && s.Filters.Cuisine == "sushi"
	})
	if gw.callCount() != 2 {
		t.Fatalf("expected a cuisine-triggered search, got %d calls", gw.callCount())
	}
	if gw.lastCall().Keyword != "sushi" {
		t.Errorf("search keyword = %q, want %q", gw.lastCall().Keyword, "sushi")
	}
}

func TestSession_RefreshSuppressedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		<-release
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Refresh() // first search still blocked on the gateway
	close(release)

	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })
	if gw.callCount() != 1 {
		t.Errorf("refresh during an in-flight search must be dropped, got %d calls", gw.callCount())
	}
}

func TestSession_PlaceSelectedRecentersAndSearches(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, handle := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })

	s.PlaceSelected("Soho", domain.GeoPoint{Lat: 51.51, Lon: -0.13})
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) })
	deadline := time.Now().Add(time.Second)
	for gw.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if gw.callCount() != 2 {
		t.Fatalf("expected a search after place selection, got %d calls", gw.callCount())
	}
	got := gw.lastCall().Center
	if got.Lat != 51.51 || got.Lon != -0.13 {
		t.Errorf("search not centered on the selected place: %+v", got)
	}
	if handle.panTo == nil || handle.panTo.Lat != 51.51 {
		t.Error("map not panned to the selected place")
	}
}

func TestSession_CloseDiscardsInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		<-release
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, handle := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Tear down while the initial search is still blocked on the gateway,
	// then let the response arrive late.
	s.Close()
	close(release)
	time.Sleep(50 * time.Millisecond)

	if len(handle.live) != 0 {
		t.Fatalf("late response created %d markers on a closed session", len(handle.live))
	}
	if snap, ok := rec.latest(); ok && snap.Total != 0 {
		t.Errorf("late response applied to a closed session: total=%d", snap.Total)
	}
}

func TestSession_MarkerClickOpensPopup(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, handle := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })

	s.MarkerClicked("m1")
	if len(handle.opened) != 1 || handle.opened[0] != ports.MarkerID("m1") {
		t.Errorf("popup not opened for m1: %v", handle.opened)
	}

	s.MarkerClicked("gone")
	if len(handle.opened) != 1 {
		t.Error("click on an unknown marker must be ignored")
	}
}

func TestSession_ViewportIdleDebouncesSearch(t *testing.T) {
	gw := &mockGateway{nearbyFn: func(context.Context, domain.SearchParams) ([]domain.RawPlace, error) {
		return rawFixtures(), nil
	}}
	loc := &mockLocator{locateFn: func(context.Context) (domain.GeoPoint, error) {
		return domain.GeoPoint{Lat: 1, Lon: 1}, nil
	}}
	s, rec, _ := newTestSession(t, gw, loc)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitSnap(t, rec, func(s usecases.Snapshot) bool { return settled(s) && s.Total == 2 })
	time.Sleep(20 * time.Millisecond) // let the viewport cooldown lapse

	// Three pans in quick succession collapse into one search at the last
	// center.
	s.ViewportIdle(domain.GeoPoint{Lat: 2, Lon: 2})
	s.ViewportIdle(domain.GeoPoint{Lat: 3, Lon: 3})
	s.ViewportIdle(domain.GeoPoint{Lat: 4, Lon: 4})

	deadline := time.Now().Add(time.Second)
	for gw.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(30 * time.Millisecond) // room for any extra fires

	if gw.callCount() != 2 {
		t.Fatalf("expected one debounced search, got %d extra calls", gw.callCount()-1)
	}
	got := gw.lastCall().Center
	if got.Lat != 4 || got.Lon != 4 {
		t.Errorf("search used a stale center: %+v", got)
	}
}
