package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/StiensB/RestaurantFinder/internal/core/domain"
	"github.com/StiensB/RestaurantFinder/internal/core/ports"
	"github.com/StiensB/RestaurantFinder/internal/pkg/geospatial"
	"github.com/StiensB/RestaurantFinder/internal/pkg/metrics"
)

// SessionConfig tunes one widget session.
type SessionConfig struct {
	Debounce            time.Duration
	Cooldown            time.Duration
	DefaultRadiusMeters int
	DefaultZoom         int
}

// Snapshot is the UI-facing state pushed to the widget after every
// mutation. At most one of error banner, loading indicator, results, or
// empty-state is rendered, prioritized error > loading > results > empty.
type Snapshot struct {
	Loading      bool                  `json:"loading"`
	Error        string                `json:"error,omitempty"`
	Empty        bool                  `json:"empty"`
	Notice       string                `json:"notice,omitempty"`
	Restaurants  []domain.Restaurant   `json:"restaurants"`
	Total        int                   `json:"total"`
	Filters      domain.DisplayFilters `json:"filters"`
	RadiusMeters int                   `json:"radius_meters"`
}

// Session is the single state-owning controller for one widget. It owns the
// Restaurant working set, the display filters, the search radius, and the
// loading/error fields; every mutation goes through one of the exported
// entry points, each the only writer to its slice of state. One mutex
// reproduces the event-loop interleaving the design assumes: callbacks are
// never concurrent, only interleaved.
type Session struct {
	id        string
	svc       *SearchService
	locator   ports.GeoLocator
	mapHandle ports.MapHandle
	markers   *MarkerSynchronizer
	sched     *SearchScheduler
	cfg       SessionConfig
	log       *slog.Logger
	notify    func(Snapshot)

	mu       sync.Mutex
	ctx      context.Context
	center   domain.GeoPoint
	radius   int
	filters  domain.DisplayFilters
	working  []domain.Restaurant
	loading  bool
	errMsg   string
	notice   string
	searched bool
}

// NewSession wires a session around its collaborators. notify receives a
// state snapshot after every visible change and must not call back into the
// session.
func NewSession(id string, svc *SearchService, locator ports.GeoLocator,
	mapHandle ports.MapHandle, cfg SessionConfig, notify func(Snapshot)) *Session {

	if cfg.DefaultRadiusMeters <= 0 {
		cfg.DefaultRadiusMeters = domain.MaxRadiusMeters / 2
	}
	if cfg.DefaultZoom <= 0 {
		cfg.DefaultZoom = 13
	}

	s := &Session{
		id:        id,
		svc:       svc,
		locator:   locator,
		mapHandle: mapHandle,
		markers:   NewMarkerSynchronizer(mapHandle),
		cfg:       cfg,
		radius:    cfg.DefaultRadiusMeters,
		log:       slog.Default().With("session", id),
		notify:    notify,
	}
	s.sched = NewSearchScheduler(cfg.Debounce, cfg.Cooldown, s.issueSearch)
	return s
}

// Start acquires the user's position once, centers the map on it, and
// issues the initial search. A geolocation failure is terminal for the
// initial load: the error is surfaced and no fallback center is chosen.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.loading = true
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	loc, err := s.locator.Locate(ctx)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.errMsg = locateErrorMessage(err)
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		s.log.Warn("geolocation failed", "error", err)
		return err
	}

	s.mu.Lock()
	s.center = loc
	s.mu.Unlock()

	_ = s.mapHandle.PanTo(loc)
	_ = s.mapHandle.SetZoom(s.cfg.DefaultZoom)

	if !s.sched.RequestImmediate(TriggerInitial) {
		metrics.SearchesSuppressed.WithLabelValues(string(TriggerInitial)).Inc()
	}
	return nil
}

// ViewportIdle handles the map-settled event: record the new center and let
// the scheduler debounce it.
func (s *Session) ViewportIdle(center domain.GeoPoint) {
	s.mu.Lock()
	s.center = center
	s.mu.Unlock()
	s.sched.ViewportSettled()
}

// SetSearchTerm updates the text filter. Display-side only: the working
// set is refiltered and re-rendered, no search is issued.
func (s *Session) SetSearchTerm(term string) {
	s.mu.Lock()
	s.filters.SearchTerm = term
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetMinRating updates the minimum-rating display filter.
func (s *Session) SetMinRating(min float64) {
	s.mu.Lock()
	s.filters.MinRating = min
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetCuisine updates the cuisine filter. The cuisine also feeds the server
// keyword, so it re-triggers a search immediately, bypassing the debounce.
func (s *Session) SetCuisine(cuisine string) {
	s.mu.Lock()
	s.filters.Cuisine = cuisine
	s.mu.Unlock()

	if !s.sched.RequestImmediate(TriggerCuisine) {
		metrics.SearchesSuppressed.WithLabelValues(string(TriggerCuisine)).Inc()
	}
}

// SetRadius changes the search radius and issues an immediate search.
func (s *Session) SetRadius(meters int) {
	s.mu.Lock()
	p := domain.SearchParams{RadiusMeters: meters}
	p.ClampRadius()
	s.radius = p.RadiusMeters
	s.mu.Unlock()

	if !s.sched.RequestImmediate(TriggerRadius) {
		metrics.SearchesSuppressed.WithLabelValues(string(TriggerRadius)).Inc()
	}
}

// Refresh issues an immediate search at the current center and radius.
func (s *Session) Refresh() {
	if !s.sched.RequestImmediate(TriggerRefresh) {
		metrics.SearchesSuppressed.WithLabelValues(string(TriggerRefresh)).Inc()
	}
}

// PlaceSelected handles an autocomplete selection: recenter there and
// search immediately.
func (s *Session) PlaceSelected(name string, loc domain.GeoPoint) {
	s.mu.Lock()
	s.center = loc
	s.mu.Unlock()

	_ = s.mapHandle.PanTo(loc)
	s.log.Debug("place selected", "name", name)

	if !s.sched.RequestImmediate(TriggerPlaceSelected) {
		metrics.SearchesSuppressed.WithLabelValues(string(TriggerPlaceSelected)).Inc()
	}
}

// MarkerClicked opens the popup for a clicked marker. Clicks referencing a
// marker already torn down by a refresh are ignored.
func (s *Session) MarkerClicked(id ports.MarkerID) {
	s.mu.Lock()
	owned := s.markers.Owns(id)
	s.mu.Unlock()

	if !owned {
		return
	}
	_ = s.mapHandle.OpenPopup(id)
}

// Close tears the session down: the pending debounce timer is cancelled and
// marker handles are released. An in-flight request is left to complete;
// its response is discarded by the generation check.
func (s *Session) Close() {
	s.sched.Stop()

	s.mu.Lock()
	metrics.LiveMarkers.Sub(float64(s.markers.Count()))
	s.markers.Clear()
	s.mu.Unlock()
}

// issueSearch is the scheduler's fire callback. It snapshots the current
// parameters, flips the loading state, and runs the gateway call off-turn;
// the completion funnels back through applyResult.
func (s *Session) issueSearch(generation uint64, trigger Trigger) {
	s.mu.Lock()
	params := domain.SearchParams{
		Center:       s.center,
		RadiusMeters: s.radius,
		Keyword:      s.filters.Cuisine,
	}
	ctx := s.ctx
	s.loading = true
	s.errMsg = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)

	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		results, err := s.svc.Search(ctx, params)
		s.applyResult(generation, trigger, results, err)
	}()
}

// applyResult applies one gateway completion to the working set, the
// markers, and the UI state, unless a newer search has superseded it.
func (s *Session) applyResult(generation uint64, trigger Trigger, results []domain.Restaurant, err error) {
	s.mu.Lock()

	if generation != s.sched.Generation() {
		s.mu.Unlock()
		metrics.StaleResponsesDropped.Inc()
		s.log.Debug("stale search response dropped", "generation", generation)
		return
	}
	s.sched.Completed(generation)

	s.loading = false
	s.searched = true
	prevMarkers := s.markers.Count()

	switch {
	case err != nil:
		s.working = nil
		s.notice = ""
		s.errMsg = gatewayErrorMessage(err)
		s.markers.Clear()
		metrics.SearchesTotal.WithLabelValues(string(trigger), "error").Inc()
		s.log.Warn("search failed", "trigger", trigger, "error", err)

	case len(results) == 0:
		s.working = nil
		s.errMsg = ""
		s.notice = "no restaurants found, try adjusting your filters"
		s.markers.Clear()
		metrics.SearchesTotal.WithLabelValues(string(trigger), "empty").Inc()

	default:
		s.working = results
		s.errMsg = ""
		s.notice = ""
		s.markers.Sync(results)
		if bounds, ok := geospatial.BoundsOf(locations(results)); ok {
			_ = s.mapHandle.FitBounds(bounds)
		}
		metrics.SearchesTotal.WithLabelValues(string(trigger), "ok").Inc()
	}

	metrics.LiveMarkers.Add(float64(s.markers.Count() - prevMarkers))
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// snapshotLocked builds the UI snapshot. Callers hold s.mu.
func (s *Session) snapshotLocked() Snapshot {
	visible := ApplyFilters(s.working, s.filters)
	return Snapshot{
		Loading:      s.loading,
		Error:        s.errMsg,
		Empty:        s.searched && s.errMsg == "" && !s.loading && len(s.working) == 0,
		Notice:       s.notice,
		Restaurants:  visible,
		Total:        len(s.working),
		Filters:      s.filters,
		RadiusMeters: s.radius,
	}
}

func locations(restaurants []domain.Restaurant) []domain.GeoPoint {
	pts := make([]domain.GeoPoint, len(restaurants))
	for i, r := range restaurants {
		pts[i] = r.Location
	}
	return pts
}

func locateErrorMessage(err error) string {
	switch {
	case errors.Is(err, ports.ErrPermissionDenied):
		return "location access was denied"
	case errors.Is(err, ports.ErrUnsupported):
		return "geolocation is not supported by this browser"
	default:
		return "unable to determine your location"
	}
}

func gatewayErrorMessage(err error) string {
	var gw *ports.GatewayError
	if errors.As(err, &gw) {
		return "restaurant search failed (" + gw.Code + "), please try again"
	}
	return "restaurant search failed, please try again"
}
