// pkg/core/snapshot.go
package core

import "time"

// Snapshot is a copy of the session state. Slices are owned by the receiver.
type Snapshot struct {
	Active    bool
	StartedAt time.Time
	Elapsed   time.Duration
	Path      []GeoSample
	Places    []NamedPlace
	LastKnown *GeoSample
}

// Empty reports whether the snapshot holds no recorded path or places.
func (s Snapshot) Empty() bool {
	return len(s.Path) == 0 && len(s.Places) == 0
}

// Run is an archived tracking run, i.e. the history a new start discarded.
type Run struct {
	ID               string
	StartedAt        time.Time
	EndedAt          time.Time
	Path             []GeoSample
	Places           []NamedPlace
	PathLengthMeters float64
}
