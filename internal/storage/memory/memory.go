// internal/storage/memory/memory.go
package memory

import (
	"errors"
	"sync/atomic"

	"github.com/pathkeeper/tracker/internal/queue"
	"github.com/pathkeeper/tracker/pkg/core"
)

var ErrClosed = errors.New("memory archive closed")

// Backend keeps the most recent runs in process memory.
type Backend struct {
	runs   *queue.Queue[core.Run]
	closed atomic.Bool
}

// New creates a memory backend keeping at most limit runs (0 = all).
func New(limit int) *Backend {
	return &Backend{runs: queue.NewBounded[core.Run](limit)}
}

func (b *Backend) Init() error {
	return nil
}

func (b *Backend) Close() error {
	b.closed.Store(true)
	return nil
}

// SaveRun stores a copy of r, evicting the oldest run when full.
func (b *Backend) SaveRun(r *core.Run) error {
	if b.closed.Load() {
		return ErrClosed
	}
	run := *r
	run.Path = append([]core.GeoSample(nil), r.Path...)
	run.Places = append([]core.NamedPlace(nil), r.Places...)
	b.runs.Push(run)
	return nil
}

func (b *Backend) Runs() ([]core.Run, error) {
	return b.runs.Snapshot(), nil
}
