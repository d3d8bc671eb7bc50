package cooldown

import "time"

// Timer gates an action behind a minimum pause since it last fired. A zero
// Timer is always ready.
type Timer struct {
	pause  time.Duration
	lastAt time.Time
}

func NewTimer(pause time.Duration) *Timer {
	return &Timer{pause: pause}
}

func (t *Timer) Pause() time.Duration { return t.pause }

// Ready reports whether strictly more than the pause has elapsed since the
// last restart.
func (t *Timer) Ready(now time.Time) bool {
	if t.lastAt.IsZero() {
		return true
	}
	return now.Sub(t.lastAt) > t.pause
}

func (t *Timer) Restart(now time.Time) {
	t.lastAt = now
}

// Clear makes the timer ready again.
func (t *Timer) Clear() {
	t.lastAt = time.Time{}
}

func (t *Timer) Since(now time.Time) time.Duration {
	if t.lastAt.IsZero() {
		return 0
	}
	return now.Sub(t.lastAt)
}

// RemainingMillis is the rounded-up wait before Ready turns true, or false
// when the timer is already ready.
func (t *Timer) RemainingMillis(now time.Time) (int64, bool) {
	if t.Ready(now) {
		return 0, false
	}
	remaining := t.pause - now.Sub(t.lastAt)
	ms := int64((remaining + time.Millisecond - 1) / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return ms, true
}
