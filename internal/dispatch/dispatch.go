// Package dispatch implements the opcode-indexed command handlers that
// mutate Player/MovementQueue state in response to decoded packets (spec
// §4.10, C10). Grounded on the teacher's opcode-switch handler shape
// (internal/gameserver/handler.go), adapted from its per-feature dispatch
// table (hundreds of content opcodes) down to the nine opcodes this core
// specifies, plus the default consume-and-ignore path for everything else.
package dispatch

import (
	"strconv"
	"strings"

	"rs225server/internal/packettable"
	"rs225server/internal/player"
	"rs225server/internal/wire"
)

// minimapExtraBytes is the trailing camera-metadata block opcode 165 carries
// after the delta list; the spec defers validating its contents (§9), so it
// is read and discarded, never interpreted.
const minimapExtraBytes = 14

// interfaceComponentSaveAndLogout is the sidebar component id that triggers
// save-and-disconnect (§4.10).
const interfaceComponentSaveAndLogout = 2458

// Context is the slice of engine services a handler needs, kept narrow so
// this package never imports internal/engine (engine imports dispatch, not
// the reverse — the same cycle-avoidance shape as internal/visibility's
// local Registry interface).
type Context interface {
	// Disconnect ends the player's session immediately.
	Disconnect(p *player.Player)
	// SaveAndDisconnect persists p's current state then ends the session.
	SaveAndDisconnect(p *player.Player)
	// RequestRegionLoad marks p so the next tick emits a region-load frame
	// even if the move did not cross a region boundary (§4.10's
	// "::tele ... triggering a region load").
	RequestRegionLoad(p *player.Player)
	// SendSystemMessage queues a short text line to p, best-effort.
	SendSystemMessage(p *player.Player, text string)
	// OnlineUsernames returns the usernames of every LoggedIn player, in
	// ascending PID order, for the supplemented "::players" command.
	OnlineUsernames() []string
}

// Handle dispatches one decoded opcode for p. payload is the reader
// positioned at the start of the packet's payload bytes (length header
// already consumed by the pipeline). Returns player.ErrProtocolViolation for
// any malformed payload, which the caller (the pipeline, C9) treats as
// session-fatal per §7.
func Handle(ctx Context, p *player.Player, opcode uint8, payload *wire.Reader) error {
	switch opcode {
	case packettable.OpMovementClick, packettable.OpMinimapClick, packettable.OpMovementVariant3:
		return handleMovement(p, opcode, payload)
	case packettable.OpPlayerDesign:
		return handlePlayerDesign(p, payload)
	case packettable.OpInterfaceButton:
		return handleInterfaceButton(ctx, p, payload)
	case packettable.OpCommandLine:
		return handleCommandLine(ctx, p, payload)
	case packettable.OpIdleLogout:
		ctx.Disconnect(p)
		return nil
	default:
		// Unknown opcode: the pipeline already sized the payload from the
		// packet table, so simply not reading it is equivalent to consuming
		// it — nothing here keeps the cipher in lockstep (§4.10).
		return nil
	}
}

// handleMovement implements §4.10's movement family: reconstruct absolute
// waypoints from a cumulative-sum delta list and either enqueue them or run
// naive_path for a pure destination click.
func handleMovement(p *player.Player, opcode uint8, payload *wire.Reader) error {
	ctrl, err := payload.ReadU8()
	if err != nil {
		return player.ErrProtocolViolation
	}
	sx, err := payload.ReadU16()
	if err != nil {
		return player.ErrProtocolViolation
	}
	sz, err := payload.ReadU16()
	if err != nil {
		return player.ErrProtocolViolation
	}

	if abs(int(sx)-p.Pos.X)+abs(int(sz)-p.Pos.Z) > 104 {
		return player.ErrProtocolViolation
	}

	extra := 0
	if opcode == packettable.OpMinimapClick {
		extra = minimapExtraBytes
	}

	deltaBytes := payload.Remaining() - extra
	if deltaBytes < 0 || deltaBytes%2 != 0 {
		return player.ErrProtocolViolation
	}
	n := deltaBytes / 2

	p.SetRun(ctrl == 1)

	if n == 0 {
		p.Movement.NaivePath(p.Pos.Height, p.Pos.X, p.Pos.Z, int(sx), int(sz))
		return discardTrailing(payload, extra)
	}

	x, z := int(sx), int(sz)
	first := true
	for i := 0; i < n; i++ {
		dx, err := payload.ReadI8()
		if err != nil {
			return player.ErrProtocolViolation
		}
		dz, err := payload.ReadI8()
		if err != nil {
			return player.ErrProtocolViolation
		}
		x += int(dx)
		z += int(dz)
		if first && x == p.Pos.X && z == p.Pos.Z {
			first = false
			continue
		}
		first = false
		if !p.Movement.Add(p.Pos.Height, x, z) {
			return player.ErrProtocolViolation
		}
	}
	return discardTrailing(payload, extra)
}

func discardTrailing(payload *wire.Reader, n int) error {
	if n == 0 {
		return nil
	}
	if _, err := payload.ReadBytes(n); err != nil {
		return player.ErrProtocolViolation
	}
	return nil
}

// handlePlayerDesign implements §4.10's player-design opcode: accepted only
// while allow_design is set.
func handlePlayerDesign(p *player.Player, payload *wire.Reader) error {
	if !p.AllowDesign {
		return nil
	}

	gender, err := payload.ReadU8()
	if err != nil {
		return player.ErrProtocolViolation
	}
	var body [player.BodyPartCount]uint8
	for i := range body {
		b, err := payload.ReadU8()
		if err != nil {
			return player.ErrProtocolViolation
		}
		body[i] = b
	}
	var colors [player.ColorCount]uint8
	for i := range colors {
		c, err := payload.ReadU8()
		if err != nil {
			return player.ErrProtocolViolation
		}
		colors[i] = c
	}

	p.Gender = gender
	p.Body = body
	p.Colors = colors
	p.DesignComplete = true
	p.Flags |= player.FlagAppearance
	return nil
}

// handleInterfaceButton implements §4.10's interface-button opcode.
func handleInterfaceButton(ctx Context, p *player.Player, payload *wire.Reader) error {
	component, err := payload.ReadU16()
	if err != nil {
		return player.ErrProtocolViolation
	}
	if component == interfaceComponentSaveAndLogout {
		ctx.SaveAndDisconnect(p)
		return nil
	}
	if p.DesignComplete {
		p.Flags |= player.FlagAppearance
	}
	return nil
}

// handleCommandLine implements §4.10's command-line opcode plus the
// supplemented ::pos and ::players debug commands (SPEC_FULL.md).
func handleCommandLine(ctx Context, p *player.Player, payload *wire.Reader) error {
	const helpLine = "commands: ::tele <x> <z> <h>, ::pos, ::players"

	raw, err := payload.ReadBytes(payload.Remaining())
	if err != nil {
		return player.ErrProtocolViolation
	}
	line := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(line, "::") {
		ctx.SendSystemMessage(p, helpLine)
		return nil
	}

	fields := strings.Fields(line[2:])
	if len(fields) == 0 {
		ctx.SendSystemMessage(p, helpLine)
		return nil
	}

	switch fields[0] {
	case "tele":
		return handleTele(ctx, p, fields[1:])
	case "pos":
		ctx.SendSystemMessage(p, formatPos(p))
		return nil
	case "players":
		names := ctx.OnlineUsernames()
		ctx.SendSystemMessage(p, strings.Join(names, ", "))
		return nil
	default:
		ctx.SendSystemMessage(p, helpLine)
		return nil
	}
}

func handleTele(ctx Context, p *player.Player, args []string) error {
	if len(args) != 3 {
		ctx.SendSystemMessage(p, "usage: ::tele <x> <z> <h>")
		return nil
	}
	x, err1 := strconv.Atoi(args[0])
	z, err2 := strconv.Atoi(args[1])
	h, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil ||
		x < 0 || x > 16383 || z < 0 || z > 16383 || h < 0 || h > 3 {
		ctx.SendSystemMessage(p, "usage: ::tele <x> <z> <h>")
		return nil
	}
	p.Teleport(x, z, h)
	ctx.RequestRegionLoad(p)
	return nil
}

func formatPos(p *player.Player) string {
	return "(" + strconv.Itoa(p.Pos.X) + ", " + strconv.Itoa(p.Pos.Z) + ", " + strconv.Itoa(p.Pos.Height) + ")"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
