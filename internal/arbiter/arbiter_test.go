package arbiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// fakeClock is a manually advanced clock for window tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestArbiter(window time.Duration) (*Arbiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewWithClock(window, clock.Now), clock
}

func TestArbiter_RemoteAllowedBeforeAnyLocalWrite(t *testing.T) {
	a, _ := newTestArbiter(5 * time.Second)
	require.False(t, a.LockedForRemote())
	require.True(t, a.Admit(lighting.OriginRemote))
}

func TestArbiter_LocalWriteLocksOutRemote(t *testing.T) {
	a, clock := newTestArbiter(5 * time.Second)

	require.True(t, a.Admit(lighting.OriginLocal))
	require.True(t, a.LockedForRemote())
	require.False(t, a.Admit(lighting.OriginRemote))

	clock.Advance(4 * time.Second)
	require.False(t, a.Admit(lighting.OriginRemote))

	clock.Advance(time.Second)
	require.False(t, a.LockedForRemote())
	require.True(t, a.Admit(lighting.OriginRemote))
}

func TestArbiter_LocalWritesRenewTheWindow(t *testing.T) {
	a, clock := newTestArbiter(5 * time.Second)

	// Local writes spaced closer than the window hold the lock
	// indefinitely.
	for range 5 {
		require.True(t, a.Admit(lighting.OriginLocal))
		clock.Advance(4 * time.Second)
		require.True(t, a.LockedForRemote())
	}

	clock.Advance(5 * time.Second)
	require.False(t, a.LockedForRemote())
}

func TestArbiter_AcceptedRemoteWriteDoesNotRenew(t *testing.T) {
	a, clock := newTestArbiter(5 * time.Second)

	a.RecordLocalInteraction()
	clock.Advance(5 * time.Second)

	require.True(t, a.Admit(lighting.OriginRemote))
	// The remote acceptance must not have restarted the window.
	require.False(t, a.LockedForRemote())
	require.True(t, a.Admit(lighting.OriginRemote))
}

func TestArbiter_ReadingLockStatusDoesNotMutate(t *testing.T) {
	a, clock := newTestArbiter(5 * time.Second)

	a.RecordLocalInteraction()
	clock.Advance(3 * time.Second)

	for range 10 {
		a.LockedForRemote()
	}
	clock.Advance(2 * time.Second)
	require.False(t, a.LockedForRemote())
}
