package engine

import (
	"errors"
	"net"
	"os"
	"time"

	"rs225server/internal/player"
)

// acceptLoop implements C8: non-blocking accept until no more connections
// are pending. A listener deadline one pollInterval ahead makes Accept take
// a pending connection at once and return os.ErrDeadlineExceeded shortly
// after the backlog is drained — the same near-non-blocking idiom the
// pipeline (C9) uses for socket reads. (A deadline already in the past
// would fail before any accept is attempted.)
func (e *Engine) acceptLoop(now time.Time) {
	for {
		if err := e.listener.SetDeadline(time.Now().Add(pollInterval)); err != nil {
			e.log.Error("set listener deadline", "error", err)
			return
		}

		conn, err := e.listener.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return // no more pending connections this iteration
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			e.log.Error("accept", "error", err)
			return
		}

		e.handleAccepted(conn, now)
	}
}

// handleAccepted finds the lowest-indexed Disconnected slot for conn. If the
// slot table is full, the socket is closed immediately with no reject
// payload (§4.8).
func (e *Engine) handleAccepted(conn net.Conn, now time.Time) {
	for _, p := range e.slots {
		if p.State() == player.Disconnected {
			p.OnConnect(conn, now)
			return
		}
	}
	conn.Close()
}
