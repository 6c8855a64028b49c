package source

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pathkeeper/tracker/pkg/core"
)

// Route is the on-disk replay format.
//
//	lastKnown:
//	  gps: {lat: 52.52, lon: 13.40, accuracy: 12, time: 2024-05-01T12:00:00Z}
//	samples:
//	  - {lat: 52.5201, lon: 13.4012, accuracy: 5, time: 2024-05-01T12:00:30Z}
type Route struct {
	LastKnown map[string]RoutePoint `yaml:"lastKnown"`
	Samples   []RoutePoint          `yaml:"samples"`
}

type RoutePoint struct {
	Lat      float64   `yaml:"lat"`
	Lon      float64   `yaml:"lon"`
	Accuracy float64   `yaml:"accuracy"`
	Time     time.Time `yaml:"time"`
	Provider string    `yaml:"provider"`
}

func (p RoutePoint) sample(provider string) core.GeoSample {
	if p.Provider != "" {
		provider = p.Provider
	}
	return core.GeoSample{
		Latitude:  p.Lat,
		Longitude: p.Lon,
		Accuracy:  p.Accuracy,
		Timestamp: p.Time,
		Provider:  provider,
	}
}

// Replay plays a recorded route back as a location feed. The position in the
// route is kept between subscriptions, so stopping and starting tracking
// continues where the feed left off.
type Replay struct {
	known   map[string]core.GeoSample
	samples []core.GeoSample
	speed   float64

	mu     sync.Mutex
	cursor int
}

// ReplayOption configures a Replay.
type ReplayOption func(*Replay)

// WithSpeed replays timestamp gaps in real time scaled by factor
// (2 = twice as fast). Zero delivers without waiting.
func WithSpeed(factor float64) ReplayOption {
	return func(r *Replay) {
		r.speed = factor
	}
}

// NewReplay builds a Replay from a decoded route.
func NewReplay(route Route, opts ...ReplayOption) *Replay {
	r := &Replay{
		known:   make(map[string]core.GeoSample, len(route.LastKnown)),
		samples: make([]core.GeoSample, 0, len(route.Samples)),
	}
	for provider, p := range route.LastKnown {
		r.known[provider] = p.sample(provider)
	}
	for _, p := range route.Samples {
		r.samples = append(r.samples, p.sample("replay"))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadReplay reads a route file.
func LoadReplay(path string, opts ...ReplayOption) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route: %w", err)
	}
	var route Route
	if err := yaml.Unmarshal(data, &route); err != nil {
		return nil, fmt.Errorf("failed to parse route %s: %w", path, err)
	}
	return NewReplay(route, opts...), nil
}

func (r *Replay) LastKnownSamples(providers []string) []core.GeoSample {
	return lookup(r.known, providers)
}

// Remaining is the number of samples not yet consumed.
func (r *Replay) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples) - r.cursor
}

// Subscribe delivers the rest of the route through a fresh Throttle. It
// returns nil once the route is exhausted and ctx.Err() when cancelled.
func (r *Replay) Subscribe(ctx context.Context, policy Policy, deliver func(core.GeoSample)) error {
	throttle := NewThrottle(policy)
	var prev *core.GeoSample

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, ok := r.next()
		if !ok {
			return nil
		}

		if prev != nil {
			if err := r.wait(ctx, next.Timestamp.Sub(prev.Timestamp)); err != nil {
				r.rewind()
				return err
			}
		}
		prev = &next

		if throttle.Allow(next) {
			deliver(next)
		}
	}
}

func (r *Replay) next() (core.GeoSample, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.samples) {
		return core.GeoSample{}, false
	}
	s := r.samples[r.cursor]
	r.cursor++
	return s, true
}

// rewind puts back a sample that was taken but not delivered.
func (r *Replay) rewind() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor > 0 {
		r.cursor--
	}
}

func (r *Replay) wait(ctx context.Context, gap time.Duration) error {
	if r.speed <= 0 || gap <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(float64(gap) / r.speed))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
