package session

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimerPeriod is how often the elapsed time display refreshes.
const DefaultTimerPeriod = time.Second

// RunTimer calls show with the elapsed time right away and then once per period
// for as long as the session is tracking. It reschedules itself only while
// Active is true, so it returns on its own shortly after Stop. Cancelling ctx
// also ends it.
func RunTimer(ctx context.Context, s *Session, period time.Duration, show func(time.Duration)) {
	if period <= 0 {
		period = DefaultTimerPeriod
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if !s.Active() {
				return
			}
			show(s.Elapsed())
			timer.Reset(period)
		}
	}
}

// FormatElapsed renders a duration as m:ss.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	seconds := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
