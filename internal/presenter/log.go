package presenter

import (
	"log/slog"
	"time"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/internal/session"
	"github.com/pathkeeper/tracker/pkg/core"
)

// Log writes map updates as structured log records.
type Log struct {
	logger *slog.Logger
	zoom   int
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger, zoom: geo.DefaultZoom}
}

func (l *Log) Recenter(center core.GeoSample) {
	x, y := geo.WebMercator(center.Latitude, center.Longitude)
	tx, ty := geo.TileXY(center.Latitude, center.Longitude, l.zoom)
	l.logger.Debug("Map recentered",
		"lat", center.Latitude,
		"lon", center.Longitude,
		"accuracy", center.Accuracy,
		"mercatorX", x,
		"mercatorY", y,
		"tile", []int{l.zoom, tx, ty},
	)
}

func (l *Log) Render(frame Frame) {
	attrs := []any{
		"points", len(frame.Path),
		"places", len(frame.Places),
		"pathLengthM", geo.PathLengthMeters(frame.Path),
	}
	if frame.Center != nil {
		attrs = append(attrs, "lat", frame.Center.Latitude, "lon", frame.Center.Longitude)
	}
	l.logger.Info("Map rendered", attrs...)
}

func (l *Log) ShowElapsed(d time.Duration) {
	l.logger.Debug("Elapsed", "elapsed", session.FormatElapsed(d))
}
