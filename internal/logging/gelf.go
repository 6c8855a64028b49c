package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// GELFSink ships JSON-encoded records to a Graylog input over UDP.
type GELFSink struct {
	writer  *gelf.Writer
	Handler slog.Handler
}

// NewGELFSink dials addr (host:port). Each record becomes one GELF message
// whose short message is the JSON line.
func NewGELFSink(addr, facility, level string) (*GELFSink, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("dial graylog %s: %w", addr, err)
	}
	if facility != "" {
		w.Facility = facility
	}
	return &GELFSink{
		writer:  w,
		Handler: slog.NewJSONHandler(w, HandlerOptions(level)),
	}, nil
}

func (s *GELFSink) Close() error {
	return s.writer.Close()
}
