// Package worker connects host commands to the tracking session, the location
// feed, the map presenters and the run archive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pathkeeper/tracker/internal/config"
	"github.com/pathkeeper/tracker/internal/parser"
	"github.com/pathkeeper/tracker/internal/permission"
	"github.com/pathkeeper/tracker/internal/presenter"
	"github.com/pathkeeper/tracker/internal/session"
	"github.com/pathkeeper/tracker/internal/source"
	"github.com/pathkeeper/tracker/internal/storage"
	"github.com/pathkeeper/tracker/pkg/core"
)

// User-facing messages.
const (
	MsgTrackingStarted    = "Tracking started"
	MsgTrackingStopped    = "Tracking stopped"
	MsgPermissionRequired = "Location permission is required"
	MsgNoLocation         = "Could not get current location"
	MsgEmptyLabel         = "Place name must not be empty"
	MsgPlaceAdded         = "Place added: %s"
	MsgSampleRejected     = "Location sample rejected"
)

// UserMessage maps an error from a handler to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, permission.ErrPermissionDenied):
		return MsgPermissionRequired
	case errors.Is(err, session.ErrNoLocation):
		return MsgNoLocation
	case errors.Is(err, session.ErrInvalidLabel):
		return MsgEmptyLabel
	case errors.Is(err, session.ErrMalformedSample):
		return MsgSampleRejected
	default:
		return err.Error()
	}
}

// Dependencies holds everything the manager coordinates.
type Dependencies struct {
	Session   *session.Session
	Source    source.LocationSource
	Presenter presenter.MapPresenter
	Backend   storage.Backend
	Gate      permission.Gate
	Parser    *parser.Parser
	Logger    *slog.Logger
	Tracking  config.TrackingConfig
	Now       func() time.Time
}

// Manager owns the location feed and the elapsed timer. Start, stop and
// shutdown are serialised by mu; samples go straight to the session.
type Manager struct {
	deps Dependencies

	mu       sync.Mutex
	base     context.Context
	feed     *task
	timer    *task
	tracking atomic.Bool
}

// task is a goroutine that can be cancelled and waited for.
type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (t *task) stop() {
	if t == nil {
		return
	}
	t.cancel()
	<-t.done
}

func NewManager(deps Dependencies) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Manager{deps: deps, base: context.Background()}
}

// Tracking reports whether tracking is on without touching the session lock,
// so it is safe to call from log handlers.
func (m *Manager) Tracking() bool {
	return m.tracking.Load()
}

// Init seeds the session from the providers' cached positions. With a seed
// the map is recentred and, if configured, the seed becomes the first place.
// Without one, the feed runs with the zero policy until a first sample
// arrives. Nothing happens without location permission.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.base = ctx
	if err := permission.Require(m.deps.Gate); err != nil {
		m.deps.Logger.Warn("Location feed not started", "error", err)
		return err
	}

	candidates := m.deps.Source.LastKnownSamples(m.deps.Tracking.Providers)
	best, ok := m.deps.Session.Seed(candidates)
	if !ok {
		m.deps.Logger.Info("Waiting for location", "providers", m.deps.Tracking.Providers)
		m.startFeedLocked(source.Policy{}, true)
		return nil
	}

	m.deps.Logger.Info("Seeded last known location",
		"provider", best.Provider,
		"accuracy", best.Accuracy,
		"candidates", len(candidates),
	)
	m.deps.Presenter.Recenter(best)

	if label := m.deps.Tracking.SeedPlaceLabel; label != "" {
		if _, err := m.deps.Session.AddPlace(label); err != nil {
			return fmt.Errorf("seed place: %w", err)
		}
		m.deps.Presenter.Render(presenter.FrameOf(m.deps.Session.Snapshot()))
	}
	return nil
}

// HandleSample applies one sample and updates the map: a recenter for every
// accepted sample and a full render when the path grew.
func (m *Manager) HandleSample(s core.GeoSample) (core.RenderHint, bool) {
	hint, ok := m.deps.Session.OnSample(s)
	if !ok {
		return hint, false
	}
	m.deps.Presenter.Recenter(hint.Center)
	if hint.Segment {
		m.deps.Presenter.Render(presenter.FrameOf(m.deps.Session.Snapshot()))
	}
	return hint, true
}

// StartTracking archives whatever the new run discards, starts the session,
// the tracking feed and the timer, and renders the cleared map.
func (m *Manager) StartTracking() error {
	if err := permission.Require(m.deps.Gate); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// The idle feed must not deliver into the new path unthrottled.
	m.feed.stop()
	m.feed = nil

	_ = m.archive(m.deps.Session.Start())
	m.tracking.Store(true)

	m.startFeedLocked(m.trackingPolicy(), false)
	m.startTimerLocked()
	m.deps.Presenter.Render(presenter.FrameOf(m.deps.Session.Snapshot()))
	return nil
}

// StopTracking ends the feed and timer and freezes the session.
func (m *Manager) StopTracking() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.feed.stop()
	m.feed = nil
	m.timer.stop()
	m.timer = nil

	m.deps.Session.Stop()
	m.tracking.Store(false)
	m.showElapsed(m.deps.Session.Elapsed())
}

// Close stops everything and archives the current run if it has content.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.feed.stop()
	m.feed = nil
	m.timer.stop()
	m.timer = nil

	m.deps.Session.Stop()
	m.tracking.Store(false)
	return m.archive(m.deps.Session.Snapshot())
}

func (m *Manager) trackingPolicy() source.Policy {
	return source.Policy{
		Interval:              m.deps.Tracking.Interval,
		MinDisplacementMeters: m.deps.Tracking.MinDisplacementMeters,
	}
}

func (m *Manager) archive(snap core.Snapshot) error {
	if snap.Empty() || m.deps.Backend == nil {
		return nil
	}
	run := storage.RunFromSnapshot(snap, m.deps.Now())
	if err := m.deps.Backend.SaveRun(run); err != nil {
		m.deps.Logger.Error("Failed to archive run", "error", err, "runID", run.ID)
		return fmt.Errorf("archive run: %w", err)
	}
	m.deps.Logger.Info("Archived run",
		"runID", run.ID,
		"points", len(run.Path),
		"places", len(run.Places),
		"pathLengthM", run.PathLengthMeters,
	)
	return nil
}

// startFeedLocked replaces the running subscription. With untilFirst the
// subscription ends after the first accepted sample.
func (m *Manager) startFeedLocked(policy source.Policy, untilFirst bool) {
	m.feed.stop()

	ctx, cancel := context.WithCancel(m.base)
	t := &task{cancel: cancel, done: make(chan struct{})}
	m.feed = t

	go func() {
		defer close(t.done)
		err := m.deps.Source.Subscribe(ctx, policy, func(s core.GeoSample) {
			if _, ok := m.HandleSample(s); ok && untilFirst {
				cancel()
			}
		})
		switch {
		case err == nil:
			m.deps.Logger.Debug("Location feed ended")
		case errors.Is(err, context.Canceled):
		default:
			m.deps.Logger.Error("Location feed failed", "error", err)
		}
	}()
}

func (m *Manager) startTimerLocked() {
	m.timer.stop()

	ctx, cancel := context.WithCancel(m.base)
	t := &task{cancel: cancel, done: make(chan struct{})}
	m.timer = t

	go func() {
		defer close(t.done)
		session.RunTimer(ctx, m.deps.Session, m.deps.Tracking.TimerPeriod, m.showElapsed)
	}()
}

func (m *Manager) showElapsed(d time.Duration) {
	if e, ok := m.deps.Presenter.(presenter.ElapsedDisplay); ok {
		e.ShowElapsed(d)
	}
}
