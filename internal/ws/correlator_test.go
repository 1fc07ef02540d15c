package ws

import (
	"errors"
	"testing"
)

func TestCorrelator_ResolveDeliversOnce(t *testing.T) {
	c := NewCorrelator()

	seq := c.NextSequence()
	ch := c.register(seq)

	reply := map[string]any{"error": float64(0), "sequence": seq}
	if !c.Resolve(seq, reply) {
		t.Fatal("Resolve() = false for pending sequence")
	}

	res := <-ch
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}
	if res.reply["sequence"] != seq {
		t.Errorf("reply sequence = %v, want %v", res.reply["sequence"], seq)
	}

	// The take is consuming: a duplicate reply finds nothing.
	if c.Resolve(seq, reply) {
		t.Error("second Resolve() = true, want false")
	}
}

func TestCorrelator_ResolveUnknownSequence(t *testing.T) {
	c := NewCorrelator()

	if c.Resolve("12345", map[string]any{}) {
		t.Error("Resolve() = true for unknown sequence")
	}
}

func TestCorrelator_CancelWithdraws(t *testing.T) {
	c := NewCorrelator()

	seq := c.NextSequence()
	c.register(seq)
	c.cancel(seq)

	// A late reply after cancellation is a no-op.
	if c.Resolve(seq, map[string]any{}) {
		t.Error("Resolve() = true after cancel")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", c.PendingCount())
	}
}

func TestCorrelator_FailAll(t *testing.T) {
	c := NewCorrelator()

	chans := make([]<-chan result, 0, 3)
	for i := 0; i < 3; i++ {
		chans = append(chans, c.register(c.NextSequence()))
	}

	c.FailAll(ErrConnectionLost)

	for i, ch := range chans {
		res := <-ch
		if !errors.Is(res.err, ErrConnectionLost) {
			t.Errorf("pending %d: err = %v, want ErrConnectionLost", i, res.err)
		}
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", c.PendingCount())
	}
}

func TestCorrelator_NextSequenceUnique(t *testing.T) {
	c := NewCorrelator()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		seq := c.NextSequence()
		if seen[seq] {
			t.Fatalf("duplicate sequence %q", seq)
		}
		seen[seq] = true
	}
}
