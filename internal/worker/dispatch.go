package worker

import (
	"fmt"

	"github.com/pathkeeper/tracker/internal/dispatcher"
	"github.com/pathkeeper/tracker/internal/monitor"
	"github.com/pathkeeper/tracker/internal/parser"
	"github.com/pathkeeper/tracker/internal/presenter"
	"github.com/pathkeeper/tracker/internal/session"
)

// Commands handled by the worker.
const (
	CmdTrackStart = ":TRACK:START:"
	CmdTrackStop  = ":TRACK:STOP:"
	CmdSample     = ":SAMPLE:"
	CmdPlaceAdd   = ":PLACE:ADD:"
	CmdPlaceList  = ":PLACE:LIST:"
	CmdElapsed    = ":ELAPSED:"
	CmdStatus     = ":STATUS:"
	CmdHistory    = ":HISTORY:"
)

// RegisterHandlers registers the tracking commands with the dispatcher. All
// of them run synchronously so the caller sees the result.
func (m *Manager) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdTrackStart, m.handleTrackStart, dispatcher.Logged())
	d.Register(CmdTrackStop, m.handleTrackStop, dispatcher.Logged())
	d.Register(CmdSample, m.handleSample, dispatcher.Logged())
	d.Register(CmdPlaceAdd, m.handlePlaceAdd, dispatcher.Logged())
	d.Register(CmdPlaceList, m.handlePlaceList)
	d.Register(CmdElapsed, m.handleElapsed)
	d.Register(CmdStatus, m.handleStatus)
	d.Register(CmdHistory, m.handleHistory)
}

func (m *Manager) handleTrackStart(dispatcher.Event) (any, error) {
	if err := m.StartTracking(); err != nil {
		return nil, err
	}
	return MsgTrackingStarted, nil
}

func (m *Manager) handleTrackStop(dispatcher.Event) (any, error) {
	m.StopTracking()
	return MsgTrackingStopped, nil
}

func (m *Manager) handleSample(e dispatcher.Event) (any, error) {
	s, err := m.deps.Parser.ParseSample(e.Args)
	if err != nil {
		return nil, err
	}
	hint, ok := m.HandleSample(s)
	if !ok {
		return nil, fmt.Errorf("%w: %.6f,%.6f", session.ErrMalformedSample, s.Latitude, s.Longitude)
	}
	return hint, nil
}

func (m *Manager) handlePlaceAdd(e dispatcher.Event) (any, error) {
	place, err := m.deps.Session.AddPlace(parser.ParseLabel(e.Args))
	if err != nil {
		return nil, err
	}
	m.deps.Presenter.Render(presenter.FrameOf(m.deps.Session.Snapshot()))
	return fmt.Sprintf(MsgPlaceAdded, place.Label), nil
}

// handlePlaceList shows the visited places on the map and returns them.
func (m *Manager) handlePlaceList(dispatcher.Event) (any, error) {
	snap := m.deps.Session.Snapshot()
	m.deps.Presenter.Render(presenter.FrameOf(snap))
	return snap.Places, nil
}

func (m *Manager) handleElapsed(dispatcher.Event) (any, error) {
	return session.FormatElapsed(m.deps.Session.Elapsed()), nil
}

func (m *Manager) handleStatus(dispatcher.Event) (any, error) {
	return monitor.StatusOf(m.deps.Session.Snapshot()), nil
}

func (m *Manager) handleHistory(dispatcher.Event) (any, error) {
	if m.deps.Backend == nil {
		return nil, fmt.Errorf("no run archive configured")
	}
	return m.deps.Backend.Runs()
}
