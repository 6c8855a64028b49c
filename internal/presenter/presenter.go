// Package presenter renders tracking state to map outputs.
package presenter

import (
	"errors"
	"time"

	"github.com/pathkeeper/tracker/pkg/core"
)

// MapPresenter consumes recenter requests and full frames.
type MapPresenter interface {
	Recenter(center core.GeoSample)
	Render(frame Frame)
}

// ElapsedDisplay is implemented by presenters that show the running timer.
type ElapsedDisplay interface {
	ShowElapsed(d time.Duration)
}

// Frame is a snapshot to draw. Slices must not be modified after handover.
type Frame struct {
	Center *core.GeoSample
	Path   []core.GeoSample
	Places []core.NamedPlace
}

// FrameOf builds a frame centred on the snapshot's last known location.
func FrameOf(snap core.Snapshot) Frame {
	return Frame{
		Center: snap.LastKnown,
		Path:   snap.Path,
		Places: snap.Places,
	}
}

// Fanout forwards every call to all presenters in order.
type Fanout []MapPresenter

func (f Fanout) Recenter(center core.GeoSample) {
	for _, p := range f {
		p.Recenter(center)
	}
}

func (f Fanout) Render(frame Frame) {
	for _, p := range f {
		p.Render(frame)
	}
}

// ShowElapsed reaches only the presenters that implement ElapsedDisplay.
func (f Fanout) ShowElapsed(d time.Duration) {
	for _, p := range f {
		if e, ok := p.(ElapsedDisplay); ok {
			e.ShowElapsed(d)
		}
	}
}

// Close closes every presenter that holds resources.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if c, ok := p.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
