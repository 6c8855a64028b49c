package presenter

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/pkg/core"
)

// GeoJSON renders frames as GeoJSON feature collections. The latest document
// is kept; if a writer is set each document is also written to it, one per line.
type GeoJSON struct {
	mu     sync.Mutex
	w      io.Writer
	latest []byte
	logger *slog.Logger
}

func NewGeoJSON(w io.Writer, logger *slog.Logger) *GeoJSON {
	return &GeoJSON{w: w, logger: logger}
}

// Recenter is a no-op. The position is part of each rendered frame.
func (g *GeoJSON) Recenter(core.GeoSample) {}

func (g *GeoJSON) Render(frame Frame) {
	fc := geo.FeatureCollection(frame.Center, frame.Path, frame.Places)
	data, err := json.Marshal(fc)
	if err != nil {
		g.logger.Error("Failed to encode frame as GeoJSON", "error", err)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest = data
	if g.w == nil {
		return
	}
	if _, err := g.w.Write(append(data, '\n')); err != nil {
		g.logger.Warn("Failed to write GeoJSON frame", "error", err)
	}
}

// Latest returns the most recently rendered document, or nil.
func (g *GeoJSON) Latest() []byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest
}
