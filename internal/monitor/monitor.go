// Package monitor periodically reports the session state to the log and to
// InfluxDB.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/internal/influx"
	"github.com/pathkeeper/tracker/internal/session"
	"github.com/pathkeeper/tracker/pkg/core"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = 10 * time.Second

// Snapshotter is the part of the session the monitor reads.
type Snapshotter interface {
	Snapshot() core.Snapshot
}

// PointWriter accepts telemetry points; *influx.Manager implements it.
type PointWriter interface {
	WritePoint(ctx context.Context, point *influxdb2_write.Point) error
}

type Dependencies struct {
	Session  Snapshotter
	Points   PointWriter // optional
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time
}

// Status is a compact view of a snapshot.
type Status struct {
	Active      bool
	Points      int
	Places      int
	PathLengthM float64
	Elapsed     time.Duration
	LastKnown   *core.GeoSample
}

// StatusOf summarises snap.
func StatusOf(snap core.Snapshot) Status {
	return Status{
		Active:      snap.Active,
		Points:      len(snap.Path),
		Places:      len(snap.Places),
		PathLengthM: geo.PathLengthMeters(snap.Path),
		Elapsed:     snap.Elapsed,
		LastKnown:   snap.LastKnown,
	}
}

func (s Status) String() string {
	state := "idle"
	if s.Active {
		state = "tracking"
	}
	out := fmt.Sprintf("%s, %s elapsed, %d points, %d places, %.0f m",
		state, session.FormatElapsed(s.Elapsed), s.Points, s.Places, s.PathLengthM)
	if s.LastKnown != nil {
		out += fmt.Sprintf(", at %.5f,%.5f (±%.0f m)", s.LastKnown.Latitude, s.LastKnown.Longitude, s.LastKnown.Accuracy)
	}
	return out
}

// Service runs the reporting loop.
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Tick takes one snapshot, logs it and writes a session point.
func (s *Service) Tick(ctx context.Context) Status {
	snap := s.deps.Session.Snapshot()
	status := StatusOf(snap)

	s.deps.Logger.Debug("Session status",
		"active", status.Active,
		"points", status.Points,
		"places", status.Places,
		"pathLengthM", status.PathLengthM,
		"elapsed", status.Elapsed,
	)

	if s.deps.Points != nil {
		if err := s.deps.Points.WritePoint(ctx, influx.SessionPoint(snap, s.deps.Now())); err != nil {
			s.deps.Logger.Error("Error writing session point", "error", err)
		}
	}
	return status
}

// Start launches the loop; calling it while running does nothing.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		s.deps.Logger.Debug("Starting status monitor", "interval", s.deps.Interval)
		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop ends the loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()
	<-done
}
