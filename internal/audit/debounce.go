package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// DebounceLogger coalesces bursts of lighting changes into a single
// audit entry per user gesture.
//
// It is a two-state machine:
//
//	Idle    -> Pending  on first change (capture the pre-burst value)
//	Pending -> Pending  on subsequent change (extend deadline, update latest)
//	Pending -> Idle     with emit on deadline expiry
//
// Any sequence of changes spaced closer than the cooldown collapses into
// one entry spanning the pre-burst value and the final value. The mutex
// guards burst state because the timer fires on its own goroutine.
type DebounceLogger struct {
	log      *HistoryLog
	cooldown time.Duration

	mu      sync.Mutex
	pending bool
	first   lighting.Vector
	latest  lighting.Vector
	timer   *time.Timer
}

// NewDebounceLogger creates a DebounceLogger emitting to the given log.
func NewDebounceLogger(log *HistoryLog, cooldown time.Duration) *DebounceLogger {
	return &DebounceLogger{log: log, cooldown: cooldown}
}

// Observe records one lighting change. prev must be the value
// immediately before this change; on the first change of a burst it
// becomes the burst's "from" value.
func (d *DebounceLogger) Observe(prev, next lighting.Vector) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		// Cancel-and-restart; a superseded timer is simply replaced.
		d.timer.Stop()
	}
	if !d.pending {
		d.pending = true
		d.first = prev
	}
	d.latest = next
	d.timer = time.AfterFunc(d.cooldown, d.emit)
}

// emit closes the burst and writes one entry. It runs on the timer
// goroutine.
func (d *DebounceLogger) emit() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	first, latest := d.first, d.latest
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	action := fmt.Sprintf("Intensity values changed from %s to %s", first, latest)
	if err := d.log.Append(action, StatusSuccess); err != nil {
		slog.Error("debounced audit entry not written", "error", err)
	}
}

// Flush emits any pending burst immediately. Used on shutdown so an
// in-flight gesture still reaches the log.
func (d *DebounceLogger) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	d.emit()
}

// Run subscribes to lighting changes and observes them until ctx is
// canceled or the bus closes.
func (d *DebounceLogger) Run(ctx context.Context, bus *events.Bus) {
	ch, unsubscribe := events.Subscribe[events.LightingChanged](bus, 64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			d.Observe(evt.Prev, evt.New)
		}
	}
}
