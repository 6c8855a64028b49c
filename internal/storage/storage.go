// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/pkg/core"
)

// Backend archives the runs that a new tracking start discards.
type Backend interface {
	Init() error
	Close() error

	SaveRun(r *core.Run) error
	// Runs returns archived runs, oldest first.
	Runs() ([]core.Run, error)
}

// RunFromSnapshot turns a discarded session state into an archive entry with
// a fresh ID.
func RunFromSnapshot(snap core.Snapshot, endedAt time.Time) *core.Run {
	return &core.Run{
		ID:               uuid.NewString(),
		StartedAt:        snap.StartedAt,
		EndedAt:          endedAt,
		Path:             snap.Path,
		Places:           snap.Places,
		PathLengthMeters: geo.PathLengthMeters(snap.Path),
	}
}
