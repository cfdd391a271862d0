package engine

import (
	"errors"
	"os"
	"time"

	"rs225server/internal/player"
	"rs225server/internal/visibility"
	"rs225server/internal/wire"
)

// Outgoing opcodes. These live in a separate numbering space from
// packettable's incoming opcode table (§4.3 only governs client -> server
// framing); the pipeline never looks these up, so there is no collision.
const (
	outOpPlacement     = 95
	outOpRegionLoad    = 90
	outOpPlayerUpdate  = 100
	outOpSystemMessage = 253
)

// worldTick implements C13: movement advance for every LoggedIn player to
// completion, then visibility refresh and update-packet emission, then the
// playtime tick. Performing (a) to completion before any (b) begins is what
// gives every player the same start-of-tick position snapshot (§4.13's
// ordering guarantee).
func (e *Engine) worldTick(now time.Time) {
	e.reg.ForEachAscending(func(_ int, p *player.Player) bool {
		if p.State() == player.LoggedIn {
			e.advancePlayer(p)
		}
		return true
	})

	e.reg.ForEachAscending(func(pid int, p *player.Player) bool {
		if p.State() == player.LoggedIn {
			e.emitUpdates(pid, p)
		}
		return true
	})

	e.reg.ForEachAscending(func(_ int, p *player.Player) bool {
		if p.State() == player.LoggedIn {
			p.PlaytimeTicks++
		}
		return true
	})
}

// advancePlayer performs up to two movement-queue steps — two iff the
// player is currently running, one otherwise (§4.5, §4.13a) — and updates
// the region-change bookkeeping against the resulting position.
func (e *Engine) advancePlayer(p *player.Player) {
	p.PrimaryDirection = nil
	p.SecondaryDirection = nil

	steps := 1
	if p.Running {
		steps = 2
	}

	for i := 0; i < steps; i++ {
		if i > 0 && !p.Running {
			break // run energy ran out on the first step
		}
		dir, ok := p.Movement.Advance(p.Pos.X, p.Pos.Z)
		if !ok {
			if p.Movement.Len() > 0 {
				// The head waypoint is not a single-tile step away: an
				// impossible waypoint step is session-fatal (§7).
				e.disconnect(p)
				return
			}
			break
		}
		dx, dz := dir.Delta()
		p.Pos.X += dx
		p.Pos.Z += dz

		if p.Running {
			if p.RunEnergy > 0 {
				p.RunEnergy--
			}
			if p.RunEnergy == 0 {
				p.Running = false
			}
		}

		d := dir
		if i == 0 {
			p.PrimaryDirection = &d
		} else {
			p.SecondaryDirection = &d
		}
	}

	p.UpdateRegionAnchor()
}

// emitUpdates implements §4.13(b)/(c): a placement frame after teleport, a
// region-load frame after a region crossing, and a delta-encoded visibility
// update against pid's previously tracked local set.
func (e *Engine) emitUpdates(pid int, p *player.Player) {
	if p.NeedsPlacement {
		e.enqueuePlacement(p)
		p.ClearNeedsPlacement()
	}
	if p.RegionChanged {
		e.enqueueRegionLoad(p)
		p.ClearRegionChanged()
	}

	next := visibility.LocalSet(e.reg, pid, p)
	prev := e.tracked[pid]

	var entered, left []int
	nextSet := make(map[int]bool, len(next))
	for _, qpid := range next {
		nextSet[qpid] = true
		if !prev[qpid] {
			entered = append(entered, qpid)
		}
	}
	for qpid := range prev {
		if !nextSet[qpid] {
			left = append(left, qpid)
		}
	}
	e.tracked[pid] = nextSet

	if len(entered) > 0 || len(left) > 0 {
		e.enqueuePlayerUpdate(p, entered, left)
	}
}

func (e *Engine) enqueuePlacement(p *player.Player) {
	e.enqueueFrame(p, outOpPlacement, wire.FrameFixed, func(w *wire.Writer) error {
		if err := w.WriteU16(uint16(p.Pos.X)); err != nil {
			return err
		}
		if err := w.WriteU16(uint16(p.Pos.Z)); err != nil {
			return err
		}
		return w.WriteU8(uint8(p.Pos.Height))
	})
}

func (e *Engine) enqueueRegionLoad(p *player.Player) {
	rx, rz := player.RegionOf(p.Pos.X, p.Pos.Z)
	e.enqueueFrame(p, outOpRegionLoad, wire.FrameFixed, func(w *wire.Writer) error {
		if err := w.WriteU16(uint16(rx)); err != nil {
			return err
		}
		return w.WriteU16(uint16(rz))
	})
}

func (e *Engine) enqueuePlayerUpdate(p *player.Player, entered, left []int) {
	e.enqueueFrame(p, outOpPlayerUpdate, wire.FrameVarU16, func(w *wire.Writer) error {
		if err := w.WriteU16(uint16(len(entered))); err != nil {
			return err
		}
		for _, pid := range entered {
			if err := w.WriteU16(uint16(pid)); err != nil {
				return err
			}
		}
		if err := w.WriteU16(uint16(len(left))); err != nil {
			return err
		}
		for _, pid := range left {
			if err := w.WriteU16(uint16(pid)); err != nil {
				return err
			}
		}
		return nil
	})
}

// enqueueFrame builds one outgoing frame bounded by p's remaining outbound
// capacity and appends it to p's send buffer. A build failure (ErrOverflow)
// is session-fatal per §4.11/§7.
func (e *Engine) enqueueFrame(p *player.Player, opcode uint8, kind wire.FrameKind, build func(w *wire.Writer) error) {
	if p.OutCipher == nil {
		return
	}
	remaining := len(p.OutBuf) - p.OutLen
	data, err := wire.BuildFrame(opcode, kind, p.OutCipher, remaining, build)
	if err != nil {
		e.disconnect(p)
		return
	}
	copy(p.OutBuf[p.OutLen:], data)
	p.OutLen += len(data)
}

// flushOutbound best-effort-sends p's pending bytes (§4.11: "flushed at
// end-of-tick"; partial writes remain queued for the next flush).
func (e *Engine) flushOutbound(p *player.Player, now time.Time) {
	if p.OutLen == 0 || p.Conn == nil {
		return
	}
	if err := p.Conn.SetWriteDeadline(time.Now().Add(pollInterval)); err != nil {
		e.disconnect(p)
		return
	}
	n, err := p.Conn.Write(p.OutBuf[:p.OutLen])
	if n > 0 {
		copy(p.OutBuf[:], p.OutBuf[n:p.OutLen])
		p.OutLen -= n
	}
	if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		e.disconnect(p)
	}
}
