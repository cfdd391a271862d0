package engine

import "time"

// maybeTick implements C12: when at least tickInterval of monotonic time
// has elapsed since the previous anchor, fire exactly one tick and reset
// the anchor to now. The anchor never drifts and there is no catch-up for
// missed ticks (§4.12).
func (e *Engine) maybeTick(now time.Time) {
	if e.tickAnchor.IsZero() {
		e.tickAnchor = now
		return
	}
	if now.Sub(e.tickAnchor) < tickInterval {
		return
	}
	e.tickAnchor = now
	e.worldTick(now)
}
