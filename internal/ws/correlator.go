package ws

import (
	"strconv"
	"sync"
	"time"
)

// result is what a pending command ultimately receives: a decoded reply or
// a terminal error, never both.
type result struct {
	reply map[string]any
	err   error
}

// Correlator matches command acknowledgements to the requests that await
// them.
//
// Each in-flight command registers a buffered one-shot channel under its
// sequence identifier. Delivery removes the entry under the lock, so the
// reply path, the timeout path, and a connection loss race for a single
// consuming take; the losers find nothing and are no-ops. Replies with no
// pending entry are dropped.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]chan result
	lastSeq int64
}

// NewCorrelator creates an empty correlator.
func NewCorrelator() *Correlator {
	return &Correlator{
		pending: make(map[string]chan result),
	}
}

// NextSequence returns a fresh sequence identifier: the current millisecond
// timestamp, bumped past the previous issue so concurrent commands within
// the same millisecond stay distinct.
func (c *Correlator) NextSequence() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.lastSeq {
		now = c.lastSeq + 1
	}
	c.lastSeq = now
	return strconv.FormatInt(now, 10)
}

// register creates the completion channel for a sequence. The channel is
// buffered so delivery never blocks a loser of the resolution race.
func (c *Correlator) register(sequence string) <-chan result {
	ch := make(chan result, 1)
	c.mu.Lock()
	c.pending[sequence] = ch
	c.mu.Unlock()
	return ch
}

// cancel withdraws a pending command, typically after its timeout fired.
func (c *Correlator) cancel(sequence string) {
	c.mu.Lock()
	delete(c.pending, sequence)
	c.mu.Unlock()
}

// Resolve delivers a reply to the command awaiting this sequence.
// Returns false when nothing is waiting: the command already timed out, was
// cancelled, or the reply is unsolicited.
func (c *Correlator) Resolve(sequence string, reply map[string]any) bool {
	c.mu.Lock()
	ch, ok := c.pending[sequence]
	if ok {
		delete(c.pending, sequence)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	ch <- result{reply: reply}
	return true
}

// FailAll aborts every pending command with err. Called on connection loss
// so waiters fail immediately instead of sitting out their timers.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]chan result)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- result{err: err}
	}
}

// PendingCount returns the number of commands awaiting acknowledgement.
func (c *Correlator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
