// Package source provides location feeds for the tracking session.
package source

import (
	"context"
	"time"

	"github.com/pathkeeper/tracker/internal/geo"
	"github.com/pathkeeper/tracker/pkg/core"
)

// Default cadence while tracking.
const (
	DefaultInterval              = 30 * time.Second
	DefaultMinDisplacementMeters = 10.0
)

// LocationSource pushes samples at a policy-defined cadence and exposes the
// providers' cached positions for cold start.
type LocationSource interface {
	// Subscribe delivers samples until ctx is done or the source runs dry.
	Subscribe(ctx context.Context, policy Policy, deliver func(core.GeoSample)) error
	LastKnownSamples(providers []string) []core.GeoSample
}

// Policy is the requested update cadence. The zero policy passes every sample.
type Policy struct {
	Interval              time.Duration
	MinDisplacementMeters float64
}

// TrackingPolicy returns the default cadence while tracking.
func TrackingPolicy() Policy {
	return Policy{Interval: DefaultInterval, MinDisplacementMeters: DefaultMinDisplacementMeters}
}

// Throttle applies a Policy to a stream of samples. The first sample always
// passes; later ones need both the interval (by sample time) and the minimum
// displacement from the last passed sample.
type Throttle struct {
	policy Policy
	last   *core.GeoSample
}

func NewThrottle(policy Policy) *Throttle {
	return &Throttle{policy: policy}
}

// Allow reports whether s should be delivered and remembers it if so.
func (t *Throttle) Allow(s core.GeoSample) bool {
	if t.last != nil {
		if s.Timestamp.Sub(t.last.Timestamp) < t.policy.Interval {
			return false
		}
		if geo.DistanceMeters(*t.last, s) < t.policy.MinDisplacementMeters {
			return false
		}
	}
	last := s
	t.last = &last
	return true
}

// Static never delivers samples. It only answers last-known queries from a
// fixed table.
type Static struct {
	known map[string]core.GeoSample
}

func NewStatic(known map[string]core.GeoSample) *Static {
	return &Static{known: known}
}

func (s *Static) Subscribe(ctx context.Context, _ Policy, _ func(core.GeoSample)) error {
	<-ctx.Done()
	return ctx.Err()
}

func (s *Static) LastKnownSamples(providers []string) []core.GeoSample {
	return lookup(s.known, providers)
}

func lookup(known map[string]core.GeoSample, providers []string) []core.GeoSample {
	out := make([]core.GeoSample, 0, len(providers))
	for _, p := range providers {
		if smp, ok := known[p]; ok {
			out = append(out, smp)
		}
	}
	return out
}
