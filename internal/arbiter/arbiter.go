// Package arbiter decides whether a write from a given origin is
// accepted, giving the local operator exclusive priority for a trailing
// window after their last write.
package arbiter

import (
	"sync"
	"time"

	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// Arbiter tracks the last local interaction behind a mutex. A steady
// stream of local writes spaced closer than the window holds the lock
// indefinitely; remote accepted writes never touch the window.
type Arbiter struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	lastLocal time.Time
}

// New creates an Arbiter with the given lockout window.
func New(window time.Duration) *Arbiter {
	return &Arbiter{window: window, now: time.Now}
}

// NewWithClock creates an Arbiter with an injectable clock for tests.
func NewWithClock(window time.Duration, now func() time.Time) *Arbiter {
	return &Arbiter{window: window, now: now}
}

// RecordLocalInteraction renews the lockout window. Call it only for
// writes whose origin is loopback.
func (a *Arbiter) RecordLocalInteraction() {
	a.mu.Lock()
	a.lastLocal = a.now()
	a.mu.Unlock()
}

// LockedForRemote reports whether a remote write arriving now would be
// rejected. Reading the lock status never mutates the window.
func (a *Arbiter) LockedForRemote() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastLocal.IsZero() {
		return false
	}
	return a.now().Sub(a.lastLocal) < a.window
}

// Admit decides a write for the given origin. Local writes are always
// accepted and renew the window; remote writes are rejected while the
// window is active and otherwise accepted without renewing it.
func (a *Arbiter) Admit(origin lighting.Origin) bool {
	if origin == lighting.OriginLocal {
		a.RecordLocalInteraction()
		return true
	}
	return !a.LockedForRemote()
}
