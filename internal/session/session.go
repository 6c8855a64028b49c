// Package session holds the tracking state machine: whether tracking is on,
// when it started, the recorded path and the user's named places.
//
// A Session is safe for concurrent use. Every operation runs under one mutex,
// so a sample delivered from a background goroutine and a start/stop issued by
// the host are applied atomically with respect to each other.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/pkg/core"
)

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the logger used for rejected samples and state changes.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session is the single authority for tracking state.
type Session struct {
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger

	active    bool
	startedAt time.Time
	frozen    time.Duration // elapsed time captured by Stop
	path      []core.GeoSample
	places    []core.NamedPlace
	last      *core.GeoSample // device state, survives Start
}

// New creates an idle session.
func New(opts ...Option) *Session {
	s := &Session{
		now:    time.Now,
		logger: slog.Default(),
		path:   make([]core.GeoSample, 0),
		places: make([]core.NamedPlace, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start clears the path and places and begins tracking. Calling Start while
// already tracking clears again. The returned snapshot is the state that was
// discarded.
func (s *Session) Start() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	discarded := s.snapshotLocked()

	s.path = make([]core.GeoSample, 0)
	s.places = make([]core.NamedPlace, 0)
	s.startedAt = s.now()
	s.frozen = 0
	s.active = true

	s.logger.Info("Tracking started",
		"startedAt", s.startedAt,
		"discardedPoints", len(discarded.Path),
		"discardedPlaces", len(discarded.Places),
	)
	return discarded
}

// Stop ends tracking. Path, places and start time stay as they are until the
// next Start.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.frozen = s.now().Sub(s.startedAt)
	s.active = false

	s.logger.Info("Tracking stopped", "elapsed", s.frozen, "points", len(s.path))
}

// OnSample applies a location sample. The sample always becomes the last known
// location and is appended to the path only while tracking. Malformed samples
// are logged and dropped, in which case ok is false.
func (s *Session) OnSample(sample core.GeoSample) (hint core.RenderHint, ok bool) {
	if err := geo.ValidateSample(sample); err != nil {
		s.logger.Warn("Dropping sample",
			"error", fmt.Errorf("%w: %w", ErrMalformedSample, err),
			"provider", sample.Provider,
		)
		return core.RenderHint{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	last := sample
	s.last = &last
	if s.active {
		s.path = append(s.path, sample)
	}

	s.logger.Debug("Sample applied",
		"lat", sample.Latitude,
		"lon", sample.Longitude,
		"accuracy", sample.Accuracy,
		"recorded", s.active,
	)
	return core.RenderHint{Center: sample, Segment: s.active}, true
}

// AddPlace labels the last known location and appends it to the place list.
func (s *Session) AddPlace(label string) (core.NamedPlace, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return core.NamedPlace{}, ErrInvalidLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return core.NamedPlace{}, ErrNoLocation
	}

	place := core.NamedPlace{
		Latitude:  s.last.Latitude,
		Longitude: s.last.Longitude,
		Label:     label,
	}
	s.places = append(s.places, place)

	s.logger.Info("Place added", "label", label, "lat", place.Latitude, "lon", place.Longitude)
	return place, nil
}

// Seed picks the best of the candidates and makes it the last known location.
// Used once at startup with the providers' cached positions.
func (s *Session) Seed(candidates []core.GeoSample) (core.GeoSample, bool) {
	best, ok := BestKnownLocation(candidates)
	if !ok {
		return core.GeoSample{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &best
	return best, true
}

// Elapsed returns the running time while tracking, otherwise the time frozen
// by the last Stop (zero if tracking never ran or was restarted).
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Session) elapsedLocked() time.Duration {
	if s.active {
		return s.now().Sub(s.startedAt)
	}
	return s.frozen
}

// Active reports whether tracking is on.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartedAt returns the start time of the current or last run.
func (s *Session) StartedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt, !s.startedAt.IsZero()
}

// Path returns a copy of the recorded path.
func (s *Session) Path() []core.GeoSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.GeoSample(nil), s.path...)
}

// Places returns a copy of the named places.
func (s *Session) Places() []core.NamedPlace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.NamedPlace(nil), s.places...)
}

// LastKnown returns the most recent valid sample, if any.
func (s *Session) LastKnown() (core.GeoSample, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return core.GeoSample{}, false
	}
	return *s.last, true
}

// Snapshot returns a copy of the whole state.
func (s *Session) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() core.Snapshot {
	snap := core.Snapshot{
		Active:    s.active,
		StartedAt: s.startedAt,
		Elapsed:   s.elapsedLocked(),
		Path:      append([]core.GeoSample(nil), s.path...),
		Places:    append([]core.NamedPlace(nil), s.places...),
	}
	if s.last != nil {
		last := *s.last
		snap.LastKnown = &last
	}
	return snap
}
