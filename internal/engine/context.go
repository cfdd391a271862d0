package engine

import (
	"rs225server/internal/player"
	"rs225server/internal/wire"
)

// disconnect tears down p's session (§4.4 "any state -> Disconnected"):
// saves LoggedIn players, frees the PID, drops the per-viewer tracking
// state, closes the socket, and resets the slot for reuse.
func (e *Engine) disconnect(p *player.Player) {
	if p.State() == player.LoggedIn {
		e.savePlayer(p)
		delete(e.tracked, p.PID)
		e.reg.Remove(p.PID)
	}
	if p.Conn != nil {
		p.Conn.Close()
	}
	p.OnDisconnect()
}

// Disconnect implements dispatch.Context (§4.10's idle-logout path).
func (e *Engine) Disconnect(p *player.Player) {
	e.disconnect(p)
}

// SaveAndDisconnect implements dispatch.Context: the save happens inside
// disconnect for any LoggedIn player, so this is the same operation under
// the name the sidebar logout button (§4.10) expects.
func (e *Engine) SaveAndDisconnect(p *player.Player) {
	e.disconnect(p)
}

// RequestRegionLoad implements dispatch.Context for the "::tele" command:
// forces a region-load frame on the next tick regardless of whether the
// teleport actually crossed a region boundary.
func (e *Engine) RequestRegionLoad(p *player.Player) {
	p.RegionChanged = true
}

// SendSystemMessage implements dispatch.Context, queuing a VarU8 frame
// carrying a raw ASCII line (§4.10's command feedback messages). Text longer
// than 255 bytes is cut to 255 so its length fits the VarU8 prefix; a frame
// that overflows p's remaining outbound capacity ends the session, as for
// every frame built by enqueueFrame.
func (e *Engine) SendSystemMessage(p *player.Player, text string) {
	if len(text) > 0xFF {
		text = text[:0xFF]
	}
	e.enqueueFrame(p, outOpSystemMessage, wire.FrameVarU8, func(w *wire.Writer) error {
		return w.WriteBytes([]byte(text))
	})
}

// OnlineUsernames implements dispatch.Context for the supplemented
// "::players" command: every LoggedIn username, ascending PID order.
func (e *Engine) OnlineUsernames() []string {
	var names []string
	e.reg.ForEachAscending(func(_ int, p *player.Player) bool {
		names = append(names, p.Username)
		return true
	})
	return names
}
