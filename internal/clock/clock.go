// Package clock provides the per-turn countdown used by draft rooms.
// It wraps a clockwork.Clock so tests can drive expiry with a fake
// clock instead of sleeping.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TurnClock arms one-shot countdowns. Each Start fires its callback at
// most once; Cancel after the fire is a no-op.
type TurnClock struct {
	clock clockwork.Clock
}

// Handle identifies one armed countdown.
type Handle struct {
	seq   uint64
	timer clockwork.Timer
	stop  chan struct{}
	once  sync.Once
}

func New(c clockwork.Clock) *TurnClock {
	return &TurnClock{clock: c}
}

func (tc *TurnClock) Now() time.Time {
	return tc.clock.Now()
}

// Start arms a countdown of d and returns its handle. When the timer
// fires, fire(seq) is invoked exactly once from a separate goroutine;
// the seq lets the receiver drop fires for turns that already advanced.
func (tc *TurnClock) Start(d time.Duration, seq uint64, fire func(seq uint64)) *Handle {
	h := &Handle{
		seq:   seq,
		timer: tc.clock.NewTimer(d),
		stop:  make(chan struct{}),
	}

	go func() {
		select {
		case <-h.timer.Chan():
			// A cancel racing the expiry wins: the countdown was stopped
			// before anyone observed the fire.
			select {
			case <-h.stop:
			default:
				fire(h.seq)
			}
		case <-h.stop:
			stopAndDrain(h.timer)
		}
	}()

	return h
}

// Cancel stops the countdown if it has not fired yet. Calling it after
// expiry, or more than once, is safe.
func (tc *TurnClock) Cancel(h *Handle) {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
}

// stopAndDrain follows the time.Timer.Stop documentation: if the timer
// already fired, drain the channel so the goroutine does not leak a
// pending value.
func stopAndDrain(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}
