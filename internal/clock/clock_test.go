package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func recvSeq(t *testing.T, ch <-chan uint64, within time.Duration) uint64 {
	t.Helper()
	select {
	case seq := <-ch:
		return seq
	case <-time.After(within):
		t.Fatalf("timed out waiting for fire")
		return 0 // unreachable
	}
}

func recvNoFire(t *testing.T, ch <-chan uint64, within time.Duration) {
	t.Helper()
	select {
	case seq := <-ch:
		t.Fatalf("unexpected fire seq=%d", seq)
	case <-time.After(within):
	}
}

func TestStart_FiresOnceWithSeq(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tc := New(fc)

	fired := make(chan uint64, 2)
	tc.Start(15*time.Second, 7, func(seq uint64) { fired <- seq })

	fc.Advance(15 * time.Second)
	require.Equal(t, uint64(7), recvSeq(t, fired, time.Second))

	fc.Advance(time.Minute)
	recvNoFire(t, fired, 100*time.Millisecond)
}

func TestCancel_BeforeExpiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tc := New(fc)

	fired := make(chan uint64, 1)
	h := tc.Start(15*time.Second, 1, func(seq uint64) { fired <- seq })
	tc.Cancel(h)

	fc.Advance(time.Minute)
	recvNoFire(t, fired, 100*time.Millisecond)
}

func TestCancel_AfterExpiryIsNoOp(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tc := New(fc)

	fired := make(chan uint64, 2)
	h := tc.Start(time.Second, 3, func(seq uint64) { fired <- seq })

	fc.Advance(time.Second)
	require.Equal(t, uint64(3), recvSeq(t, fired, time.Second))

	// Must not panic, must not double-fire, safe to repeat.
	tc.Cancel(h)
	tc.Cancel(h)
	recvNoFire(t, fired, 100*time.Millisecond)
}

func TestCancel_NilHandle(t *testing.T) {
	tc := New(clockwork.NewFakeClock())
	require.NotPanics(t, func() { tc.Cancel(nil) })
}

func TestIndependentTimers(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tc := New(fc)

	fired := make(chan uint64, 2)
	tc.Start(5*time.Second, 1, func(seq uint64) { fired <- seq })
	tc.Start(10*time.Second, 2, func(seq uint64) { fired <- seq })

	fc.Advance(5 * time.Second)
	require.Equal(t, uint64(1), recvSeq(t, fired, time.Second))
	recvNoFire(t, fired, 50*time.Millisecond)

	fc.Advance(5 * time.Second)
	require.Equal(t, uint64(2), recvSeq(t, fired, time.Second))
}
