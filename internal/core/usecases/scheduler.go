package usecases

import (
	"sync"
	"time"
)

// SchedulerState is the search scheduler's phase.
type SchedulerState int

const (
	StateIdle SchedulerState = iota
	StatePendingDebounce
	StateInFlight
)

// Trigger identifies what caused a search to be issued.
type Trigger string

const (
	TriggerInitial       Trigger = "initial"
	TriggerViewport      Trigger = "viewport"
	TriggerCuisine       Trigger = "cuisine"
	TriggerRadius        Trigger = "radius"
	TriggerRefresh       Trigger = "refresh"
	TriggerPlaceSelected Trigger = "place_selected"
)

// Scheduler defaults.
const (
	DefaultDebounce = time.Second
	DefaultCooldown = time.Second
)

// SearchScheduler decides when a new search fires. Viewport-settle events
// are debounced: only the last settle in a burst survives the quiet period.
// Explicit user actions bypass the debounce. Both paths honor the in-flight
// guard, so two searches never run concurrently; the post-completion
// cooldown additionally suppresses the viewport path for a short window.
//
// Every issued search carries a generation. A completion only counts when
// its generation is still current, which keeps a slow response from
// overwriting the effects of a search issued after it.
type SearchScheduler struct {
	mu            sync.Mutex
	state         SchedulerState
	debounce      time.Duration
	cooldown      time.Duration
	timer         *time.Timer
	cooldownUntil time.Time
	generation    uint64
	stopped       bool

	// fire issues the search. Called without the scheduler lock held.
	fire func(generation uint64, trigger Trigger)
}

// NewSearchScheduler creates a scheduler that calls fire whenever a search
// should be issued. Non-positive durations fall back to the defaults.
func NewSearchScheduler(debounce, cooldown time.Duration, fire func(uint64, Trigger)) *SearchScheduler {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &SearchScheduler{debounce: debounce, cooldown: cooldown, fire: fire}
}

// ViewportSettled handles a map-idle event: (re)start the debounce timer.
// Any further settle before the timer fires cancels and restarts it.
func (s *SearchScheduler) ViewportSettled() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.state != StateInFlight {
		s.state = StatePendingDebounce
	}
	s.timer = time.AfterFunc(s.debounce, s.debounceFired)
}

// debounceFired runs on the timer goroutine when the quiet period elapses.
func (s *SearchScheduler) debounceFired() {
	s.mu.Lock()

	if s.stopped {
		s.mu.Unlock()
		return
	}
	// Guard: a search already in flight drops the fire outright, and a
	// just-completed search suppresses the viewport path for the cooldown.
	if s.state == StateInFlight {
		s.mu.Unlock()
		return
	}
	if time.Now().Before(s.cooldownUntil) {
		s.state = StateIdle
		s.mu.Unlock()
		return
	}

	s.generation++
	gen := s.generation
	s.state = StateInFlight
	s.mu.Unlock()

	s.fire(gen, TriggerViewport)
}

// RequestImmediate issues a search right away for an explicit user action,
// bypassing the debounce timer and the cooldown but not the in-flight
// guard. Reports whether a search was issued.
func (s *SearchScheduler) RequestImmediate(trigger Trigger) bool {
	s.mu.Lock()

	if s.stopped || s.state == StateInFlight {
		s.mu.Unlock()
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.generation++
	gen := s.generation
	s.state = StateInFlight
	s.mu.Unlock()

	s.fire(gen, trigger)
	return true
}

// Completed records the end of a search cycle, success or error. Stale
// generations are ignored.
func (s *SearchScheduler) Completed(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || s.state != StateInFlight {
		return
	}
	s.state = StateIdle
	s.cooldownUntil = time.Now().Add(s.cooldown)
}

// Generation returns the most recently issued generation.
func (s *SearchScheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// State returns the current phase.
func (s *SearchScheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop cancels any pending debounce timer and rejects further events. Used
// when the owning session is torn down; an in-flight request is left to
// complete, and bumping the generation here marks its eventual response
// stale so the completion check drops it.
func (s *SearchScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
	s.state = StateIdle
}
