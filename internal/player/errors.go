// Package player implements the RS225 Player entity (spec §3, §4.4, C4) and
// its bounded movement queue (§4.5, C5): the state machine, inline buffers,
// position/visibility bookkeeping, and movement/run-energy state that make
// up the core data invariant the rest of the engine is built around.
package player

import "errors"

// ErrProtocolViolation signals a session-fatal framing or semantic error
// per spec §7 (out-of-range coordinates, impossible waypoint step, etc.).
var ErrProtocolViolation = errors.New("player: protocol violation")

// ErrFull is returned by the registry when the PID pool is exhausted (§7).
var ErrFull = errors.New("player: registry full")
