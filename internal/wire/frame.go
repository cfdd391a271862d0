package wire

import "rs225server/internal/keystream"

// FrameKind selects how BuildFrame (spec §4.11, C11) encodes a frame's
// length: no prefix, or a VarU8/VarU16 placeholder backfilled once the
// payload is written. It mirrors packettable.Kind without importing that
// package, so the wire layer has no dependency on the opcode table.
type FrameKind int

const (
	// FrameFixed packets carry no length prefix on the wire.
	FrameFixed FrameKind = iota
	// FrameVarU8 packets are preceded by a 1-byte payload length.
	FrameVarU8
	// FrameVarU16 packets are preceded by a 2-byte big-endian payload length.
	FrameVarU16
)

// EncryptOpcode masks opcode with the next outbound keystream value per
// §4.11's companion rule to the inbound decode (`(encrypted - k) mod 256`,
// §4.9 step b): the server adds where it subtracts on the way in, so
// whichever convention the client uses for the other direction lines up.
// mod-256 (via uint8 wraparound) keeps the result a single byte.
func EncryptOpcode(opcode uint8, out keystream.Stream) uint8 {
	k := out.Next()
	return opcode + uint8(k)
}

// BuildFrame writes one outgoing frame into a fresh bounded Writer (capacity
// maxSize, per-player MAX_PACKET_SIZE) and returns its bytes. fn receives the
// writer positioned right after the opcode/length placeholder and appends
// the payload; its return value is propagated so callers can surface
// ErrOverflow from individual field writes.
func BuildFrame(opcode uint8, kind FrameKind, out keystream.Stream, maxSize int, fn func(w *Writer) error) ([]byte, error) {
	w := NewBoundedWriter(maxSize)

	if err := w.WriteU8(EncryptOpcode(opcode, out)); err != nil {
		return nil, err
	}

	var lenOffset int
	switch kind {
	case FrameVarU8:
		lenOffset = w.Len()
		if err := w.WriteU8(0); err != nil {
			return nil, err
		}
	case FrameVarU16:
		lenOffset = w.Len()
		if err := w.WriteU16(0); err != nil {
			return nil, err
		}
	}

	payloadStart := w.Len()
	if err := fn(w); err != nil {
		return nil, err
	}
	payloadLen := w.Len() - payloadStart

	switch kind {
	case FrameVarU8:
		if payloadLen > 0xFF {
			return nil, ErrOverflow
		}
		w.PatchU8(lenOffset, uint8(payloadLen))
	case FrameVarU16:
		if payloadLen > 0xFFFF {
			return nil, ErrOverflow
		}
		w.PatchU16(lenOffset, uint16(payloadLen))
	}

	return w.Bytes(), nil
}
