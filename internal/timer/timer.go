// Package timer implements a countdown driven by explicit one-second ticks.
//
// The timer never touches the wall clock itself: the host calls Tick once per
// elapsed second. This keeps expiry deterministic and lets tests drive it
// without sleeping. A Timer is not safe for concurrent use; its owner is
// expected to serialize calls.
package timer

// Timer is a cancelable countdown that fires its expiry callback exactly once per arm.
type Timer struct {
	remaining int
	armed     bool
	onExpire  func()
}

// New returns a disarmed timer.
func New() *Timer {
	return &Timer{}
}

// Arm starts a countdown of the given number of seconds. An already armed
// countdown is disarmed first and its callback is dropped. Non-positive
// values are clamped to one second.
func (t *Timer) Arm(seconds int, onExpire func()) {
	t.Disarm()

	if seconds < 1 {
		seconds = 1
	}

	t.remaining = seconds
	t.onExpire = onExpire
	t.armed = true
}

// Disarm cancels the countdown. It is a no-op on a disarmed or expired timer.
func (t *Timer) Disarm() {
	t.armed = false
	t.remaining = 0
	t.onExpire = nil
}

// Tick accounts for one elapsed second. When the countdown reaches zero the
// timer disarms itself and then invokes the callback.
func (t *Timer) Tick() {
	if !t.armed {
		return
	}

	t.remaining--
	if t.remaining > 0 {
		return
	}

	cb := t.onExpire
	t.Disarm()

	if cb != nil {
		cb()
	}
}

// Remaining returns the seconds left, zero when disarmed.
func (t *Timer) Remaining() int {
	return t.remaining
}

// Armed reports whether a countdown is running.
func (t *Timer) Armed() bool {
	return t.armed
}
