package engine

import (
	"errors"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rs225server/internal/dispatch"
	"rs225server/internal/keystream"
	"rs225server/internal/packettable"
	"rs225server/internal/player"
	"rs225server/internal/save"
	"rs225server/internal/wire"
)

// readChunkSize is the scratch buffer used to drain a socket per iteration.
const readChunkSize = 2048

// pipelineStep implements C9 for one player: drain the socket, progress the
// handshake, or decode and dispatch as many complete frames as the
// accumulator currently holds.
func (e *Engine) pipelineStep(p *player.Player, now time.Time) {
	if p.Conn == nil {
		return
	}

	if !e.drain(p, now) {
		return // disconnected during drain
	}

	switch p.State() {
	case player.Connected:
		e.tryHandshake(p, now)
	case player.LoggedIn:
		if err := e.processFrames(p); err != nil {
			e.disconnect(p)
			return
		}
	}

	e.checkTimeouts(p, now)
	e.flushOutbound(p, now)
}

// drain reads as many bytes as are currently available into p's inbound
// accumulator using a read deadline one pollInterval ahead as the
// near-non-blocking idiom (§4.9 step 1). Returns false if the player was
// disconnected as a result (EOF, accumulator overflow, or any other socket
// error).
func (e *Engine) drain(p *player.Player, now time.Time) bool {
	for {
		if err := p.Conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			e.disconnect(p)
			return false
		}

		var buf [readChunkSize]byte
		n, err := p.Conn.Read(buf[:])
		if n > 0 {
			if p.InBufLen+n > len(p.InBuf) {
				e.disconnect(p) // Overflow
				return false
			}
			copy(p.InBuf[p.InBufLen:], buf[:n])
			p.InBufLen += n
			p.TouchInbound(now)
		}
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return true // would-block: no more data pending this iteration
			}
			e.disconnect(p) // clean EOF or any other socket error, both fatal
			return false
		}
		if n == 0 {
			return true
		}
	}
}

// checkTimeouts applies §4.4's idle/connect/login timeouts.
func (e *Engine) checkTimeouts(p *player.Player, now time.Time) {
	switch p.State() {
	case player.Connected:
		if p.IsConnectTimedOut(now) {
			e.disconnect(p)
		}
	case player.LoggingIn:
		if p.IsLoginTimedOut(now) {
			e.disconnect(p)
		}
	case player.LoggedIn:
		if p.IsIdleTimedOut(now) {
			e.disconnect(p)
		}
	}
}

// processFrames implements §4.9 step 3: peek the opcode via a provisional
// (non-mutating) keystream read, resolve the length from the packet table,
// and only commit the keystream advance once enough bytes are confirmed
// present. This is the open-question resolution of §9: the cipher is never
// advanced speculatively.
func (e *Engine) processFrames(p *player.Player) error {
	for {
		if p.InBufLen < 1 {
			return nil
		}

		encrypted := p.InBuf[0]
		provisional := uint8(p.InCipher.Peek())
		opcode := encrypted - provisional
		desc := packettable.Lookup(opcode)

		var header, length int
		switch desc.Kind {
		case packettable.KindFixed:
			header = 1
			length = desc.Fixed
		case packettable.KindVarU8:
			header = 2
			if p.InBufLen < header {
				return nil
			}
			length = int(p.InBuf[1])
		case packettable.KindVarU16:
			header = 3
			if p.InBufLen < header {
				return nil
			}
			length = int(p.InBuf[1])<<8 | int(p.InBuf[2])
		}

		total := header + length
		if total > len(p.InBuf) {
			return player.ErrProtocolViolation
		}
		if p.InBufLen < total {
			return nil // wait for more bytes; cipher not yet advanced
		}

		p.InCipher.Next() // commit: exactly one decoded opcode, one cipher step

		payload := wire.NewReader(p.InBuf[header:total])
		if err := dispatch.Handle(e, p, opcode, payload); err != nil {
			return err
		}
		if p.State() != player.LoggedIn {
			// A handler (e.g. idle-logout, save-and-logout) ended the
			// session: buffers were already reset by OnDisconnect, so
			// there is nothing left to compact.
			return nil
		}

		copy(p.InBuf[:], p.InBuf[total:p.InBufLen])
		p.InBufLen -= total
	}
}

// handshakeFrame is the plaintext pre-login exchange: a length-prefixed
// username and password followed by the four u32 seed words used to key
// both session keystreams symmetrically (§3's "ciphers ... initialized
// jointly with the client during login handshake"; the exact wire framing
// of that exchange is left unspecified by §1's scope, so this engine uses
// the simplest self-consistent shape: [userLen:u8][user][passLen:u8][pass]
// [k0:u32][k1:u32][k2:u32][k3:u32]).
func (e *Engine) tryHandshake(p *player.Player, now time.Time) {
	r := wire.NewReader(p.InBuf[:p.InBufLen])

	usernameLen, err := r.ReadU8()
	if err != nil {
		return
	}
	username, err := r.ReadBytes(int(usernameLen))
	if err != nil {
		return
	}
	passwordLen, err := r.ReadU8()
	if err != nil {
		return
	}
	password, err := r.ReadBytes(int(passwordLen))
	if err != nil {
		return
	}
	k0, err := r.ReadU32()
	if err != nil {
		return
	}
	k1, err := r.ReadU32()
	if err != nil {
		return
	}
	k2, err := r.ReadU32()
	if err != nil {
		return
	}
	k3, err := r.ReadU32()
	if err != nil {
		return
	}

	consumed := r.Pos()
	copy(p.InBuf[:], p.InBuf[consumed:p.InBufLen])
	p.InBufLen -= consumed

	if usernameLen == 0 || int(usernameLen) > player.MaxUsernameLen || !isASCII(username) {
		e.disconnect(p)
		return
	}

	p.OnHandshakeComplete(now)
	e.completeLogin(p, string(username), append([]byte(nil), password...), k0, k1, k2, k3, now)
}

// completeLogin implements §4.4's LoggingIn -> LoggedIn transition: load
// (or create) the save, verify credentials, assign a PID, and install the
// session ciphers. The verification happens synchronously within the same
// I/O poll step rather than spanning several ticks; the login timeout
// remains as a safety net for a future asynchronous credential backend.
func (e *Engine) completeLogin(p *player.Player, username string, password []byte, k0, k1, k2, k3 uint32, now time.Time) {
	if loaded, ok := save.ReadFile(e.cfg.SaveDir, username); ok {
		hash, hashOK := save.ReadPasswordHash(e.cfg.SaveDir, username)
		if !hashOK || bcrypt.CompareHashAndPassword(hash, password) != nil {
			e.disconnect(p)
			return
		}
		applyLoadedFields(p, loaded)
	} else {
		hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
		if err != nil {
			e.disconnect(p)
			return
		}
		if err := save.WritePasswordHash(e.cfg.SaveDir, username, hash); err != nil {
			e.disconnect(p)
			return
		}
		applyDefaultFields(p)
	}
	p.AllowDesign = !p.DesignComplete

	pid, err := e.reg.Assign(p)
	if err != nil {
		e.disconnect(p) // Full: pool exhausted (§7)
		return
	}

	in := keystream.Seed(k0, k1, k2, k3)
	out := keystream.Seed(k3, k2, k1, k0)
	p.OnLoggedIn(username, pid, in, out, now)
	p.NeedsPlacement = true
	p.LastLoginMs = uint64(now.UnixMilli())
}

// applyDefaultFields sets a brand-new character's starting state (§8
// scenario 1: "HP level 10, position (3222, 3218, 0)").
func applyDefaultFields(p *player.Player) {
	p.Pos = player.Position{X: 3222, Z: 3218, Height: 0}
	p.Body = [player.BodyPartCount]uint8{0, 10, 18, 26, 33, 36, 42}
	p.Colors = [player.ColorCount]uint8{}
	p.Gender = 0
	p.DesignComplete = false
	p.Skills[0] = player.SkillPair{XP: 0, Level: 10}
	p.RunEnergy = player.MaxRunEnergy
	p.PlaytimeTicks = 0
	p.ChatModes = 0
}

// applyLoadedFields copies the persisted fields decoded from save.ReadFile
// onto the live Player.
func applyLoadedFields(p *player.Player, loaded *player.Player) {
	p.Pos = loaded.Pos
	p.Body = loaded.Body
	p.Colors = loaded.Colors
	p.Gender = loaded.Gender
	p.DesignComplete = loaded.DesignComplete
	p.Skills = loaded.Skills
	p.RunEnergy = loaded.RunEnergy
	p.PlaytimeTicks = loaded.PlaytimeTicks
	p.ChatModes = loaded.ChatModes
	p.LastLoginMs = loaded.LastLoginMs
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}
