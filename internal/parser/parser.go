// Package parser converts raw command arguments into tracking values.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pathkeeper/tracker/internal/util"
	"github.com/pathkeeper/tracker/pkg/core"
)

// ErrBadArguments is returned for a wrong argument count or an unparsable number.
var ErrBadArguments = errors.New("bad arguments")

// DefaultProvider is used when a sample names no provider.
const DefaultProvider = "manual"

// parseIntFromFloat parses a string that may be an integer or float into int64.
// Clients serialising numbers through JavaScript send "1714564800000.0".
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// Parser provides pure []string -> core value conversion.
type Parser struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger, now: time.Now}
}

// ParseSample parses lat, lon, accuracy[, timestamp[, provider]].
// The timestamp is unix milliseconds or RFC3339 and defaults to now. Range
// checks are left to the session, which owns the rejection rules.
func (p *Parser) ParseSample(args []string) (core.GeoSample, error) {
	var s core.GeoSample
	if len(args) < 3 || len(args) > 5 {
		return s, fmt.Errorf("%w: expected lat lon accuracy [timestamp] [provider], got %d values", ErrBadArguments, len(args))
	}

	fields := []struct {
		name string
		dst  *float64
	}{
		{"latitude", &s.Latitude},
		{"longitude", &s.Longitude},
		{"accuracy", &s.Accuracy},
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(util.TrimQuotes(args[i])), 64)
		if err != nil {
			return s, fmt.Errorf("%w: error parsing %s: %w", ErrBadArguments, f.name, err)
		}
		*f.dst = v
	}

	s.Timestamp = p.now()
	if len(args) >= 4 && args[3] != "" {
		ts, err := parseTimestamp(util.TrimQuotes(args[3]))
		if err != nil {
			return s, fmt.Errorf("%w: error parsing timestamp: %w", ErrBadArguments, err)
		}
		s.Timestamp = ts
	}

	s.Provider = DefaultProvider
	if len(args) == 5 {
		if provider := strings.TrimSpace(util.TrimQuotes(args[4])); provider != "" {
			s.Provider = provider
		}
	}

	p.logger.Debug("Parsed sample", "lat", s.Latitude, "lon", s.Longitude, "provider", s.Provider)
	return s, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ms, err := parseIntFromFloat(raw); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// ParseLabel joins args into one place label. Quotes around the whole label
// are stripped and doubled quotes are unescaped. Blank labels are returned as
// is; rejecting them is the session's job.
func ParseLabel(args []string) string {
	label := strings.Join(args, " ")
	label = util.TrimQuotes(strings.TrimSpace(label))
	return util.FixEscapeQuotes(label)
}
