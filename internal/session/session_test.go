package session

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathkeeper/tracker/pkg/core"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestSession(clock *fakeClock) *Session {
	return New(
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func sample(lat, lon, acc float64) core.GeoSample {
	return core.GeoSample{
		Latitude:  lat,
		Longitude: lon,
		Accuracy:  acc,
		Timestamp: time.Unix(1714564800, 0).UTC(),
		Provider:  "gps",
	}
}

func TestNew_IsIdle(t *testing.T) {
	s := newTestSession(newFakeClock())

	assert.False(t, s.Active())
	assert.Empty(t, s.Path())
	assert.Empty(t, s.Places())
	_, ok := s.LastKnown()
	assert.False(t, ok)
	_, ok = s.StartedAt()
	assert.False(t, ok)
	assert.Zero(t, s.Elapsed())
}

func TestOnSample_IdleOnlyUpdatesLastKnown(t *testing.T) {
	s := newTestSession(newFakeClock())

	samples := []core.GeoSample{sample(1, 1, 5), sample(2, 2, 5), sample(3, 3, 5)}
	for _, smp := range samples {
		hint, ok := s.OnSample(smp)
		require.True(t, ok)
		assert.False(t, hint.Segment)
		assert.Equal(t, smp, hint.Center)
	}

	assert.Empty(t, s.Path())
	last, ok := s.LastKnown()
	require.True(t, ok)
	assert.Equal(t, samples[2], last)
}

func TestStart_ClearsRegardlessOfState(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	s.OnSample(sample(1, 1, 5))
	s.Start()
	s.OnSample(sample(2, 2, 5))
	_, err := s.AddPlace("Home")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	discarded := s.Start()

	assert.True(t, s.Active())
	assert.Empty(t, s.Path())
	assert.Empty(t, s.Places())
	startedAt, ok := s.StartedAt()
	require.True(t, ok)
	assert.Equal(t, clock.Now(), startedAt)

	assert.True(t, discarded.Active)
	assert.Len(t, discarded.Path, 1)
	assert.Len(t, discarded.Places, 1)
	assert.Equal(t, time.Minute, discarded.Elapsed)

	// last known location is device state and survives a restart
	last, ok := s.LastKnown()
	require.True(t, ok)
	assert.Equal(t, 2.0, last.Latitude)
}

func TestOnSample_TrackingAppendsInOrder(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.Start()

	for i := 1; i <= 5; i++ {
		hint, ok := s.OnSample(sample(float64(i), float64(i), 3))
		require.True(t, ok)
		assert.True(t, hint.Segment)
		require.Len(t, s.Path(), i)
	}

	path := s.Path()
	for i, p := range path {
		assert.Equal(t, float64(i+1), p.Latitude)
	}
}

func TestStop_LeavesHistoryUntouched(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	s.Start()
	s.OnSample(sample(1, 1, 5))
	_, err := s.AddPlace("Cafe")
	require.NoError(t, err)
	startedAt, _ := s.StartedAt()

	clock.Advance(90 * time.Second)
	s.Stop()

	assert.False(t, s.Active())
	assert.Len(t, s.Path(), 1)
	assert.Len(t, s.Places(), 1)
	after, ok := s.StartedAt()
	require.True(t, ok)
	assert.Equal(t, startedAt, after)

	clock.Advance(time.Hour)
	assert.Equal(t, 90*time.Second, s.Elapsed(), "elapsed is frozen while idle")

	s.Stop()
	assert.Equal(t, 90*time.Second, s.Elapsed(), "second stop is a no-op")
}

func TestAddPlace_Errors(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.AddPlace("Cafe")
	assert.ErrorIs(t, err, ErrNoLocation)

	s.OnSample(sample(1, 1, 5))

	for _, label := range []string{"", "   ", "\t\n"} {
		_, err := s.AddPlace(label)
		assert.ErrorIs(t, err, ErrInvalidLabel, "label %q", label)
	}
	assert.Empty(t, s.Places())
}

func TestAddPlace_BlankLabelBeforeLocation(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, err := s.AddPlace(" ")
	assert.ErrorIs(t, err, ErrInvalidLabel)
}

func TestAddPlace_TrimsLabel(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.OnSample(sample(52.5, 13.4, 5))

	place, err := s.AddPlace("  Bakery ")
	require.NoError(t, err)
	assert.Equal(t, "Bakery", place.Label)
}

func TestScenario_PlaceUsesLatestSample(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.Start()

	s1, s2, s3 := sample(10, 20, 5), sample(10.001, 20.001, 5), sample(10.002, 20.002, 5)
	s.OnSample(s1)
	s.OnSample(s2)
	s.OnSample(s3)

	place, err := s.AddPlace("Cafe")
	require.NoError(t, err)

	want := core.NamedPlace{Latitude: s3.Latitude, Longitude: s3.Longitude, Label: "Cafe"}
	assert.Equal(t, want, place)
	assert.Equal(t, []core.NamedPlace{want}, s.Places())
	assert.Equal(t, []core.GeoSample{s1, s2, s3}, s.Path())
}

func TestScenario_SampleAfterStop(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.Start()

	s1, s2 := sample(1, 1, 5), sample(2, 2, 5)
	s.OnSample(s1)
	s.Stop()
	s.OnSample(s2)

	assert.Equal(t, []core.GeoSample{s1}, s.Path())
	last, ok := s.LastKnown()
	require.True(t, ok)
	assert.Equal(t, s2, last)
}

func TestElapsed_Advances(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)
	s.Start()

	first := s.Elapsed()
	clock.Advance(1000 * time.Millisecond)
	second := s.Elapsed()

	assert.Equal(t, time.Second, second-first)
}

func TestElapsed_WallClock(t *testing.T) {
	s := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Start()

	first := s.Elapsed()
	time.Sleep(100 * time.Millisecond)
	second := s.Elapsed()

	assert.GreaterOrEqual(t, second-first, 100*time.Millisecond)
	assert.Less(t, second-first, time.Second)
}

func TestOnSample_RejectsMalformed(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.Start()

	bad := []core.GeoSample{
		sample(math.NaN(), 1, 5),
		sample(1, math.Inf(1), 5),
		sample(91, 1, 5),
		sample(1, 1, -1),
	}
	for _, smp := range bad {
		_, ok := s.OnSample(smp)
		assert.False(t, ok)
	}

	assert.Empty(t, s.Path())
	_, ok := s.LastKnown()
	assert.False(t, ok)
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.Start()
	s.OnSample(sample(1, 1, 5))

	snap := s.Snapshot()
	snap.Path[0].Latitude = 99
	snap.LastKnown.Latitude = 99

	assert.Equal(t, 1.0, s.Path()[0].Latitude)
	last, _ := s.LastKnown()
	assert.Equal(t, 1.0, last.Latitude)
}

func TestSeed(t *testing.T) {
	s := newTestSession(newFakeClock())

	_, ok := s.Seed(nil)
	assert.False(t, ok)

	best, ok := s.Seed([]core.GeoSample{sample(1, 1, 30), sample(2, 2, 8)})
	require.True(t, ok)
	assert.Equal(t, 2.0, best.Latitude)

	last, ok := s.LastKnown()
	require.True(t, ok)
	assert.Equal(t, best, last)
	assert.Empty(t, s.Path())
}

func TestConcurrentSamples(t *testing.T) {
	s := newTestSession(newFakeClock())
	s.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.OnSample(sample(1, 1, 5))
			}
		}()
	}
	wg.Wait()

	assert.Len(t, s.Path(), 400)
}
