package ws

import "time"

// Reconnect schedule: linear growth with a ceiling.
const (
	initialReconnectDelay = 5 * time.Second
	reconnectDelayStep    = 5 * time.Second
	maxReconnectDelay     = 60 * time.Second
)

// backoff computes the delay before each reconnect attempt.
// Not safe for concurrent use; owned by the supervising goroutine.
type backoff struct {
	initial time.Duration
	step    time.Duration
	max     time.Duration
	next    time.Duration
}

func newBackoff(initial, step, max time.Duration) *backoff {
	return &backoff{initial: initial, step: step, max: max, next: initial}
}

// Next returns the delay to wait before the next attempt and advances the
// schedule by one step, saturating at the ceiling.
func (b *backoff) Next() time.Duration {
	d := b.next
	n := b.next + b.step
	if n > b.max {
		n = b.max
	}
	b.next = n
	return d
}

// Reset restores the schedule to the initial delay. Called once a session is
// established so the next drop retries promptly.
func (b *backoff) Reset() {
	b.next = b.initial
}
