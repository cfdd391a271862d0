// Package keystream implements the opaque per-session u32 keystream used to
// mask opcodes after login (spec §4.2, C2). The real client uses the ISAAC
// generator, which is explicitly out of scope here (§1) — this package only
// defines the port (Stream) and a concrete stand-in implementation good
// enough to drive the rest of the engine end to end.
package keystream

// Stream is the keystream port consumed by the packet pipeline (C9) and the
// outgoing frame builder (C11). Peek must be pure (no state mutation) so the
// pipeline can provisionally inspect the next opcode before enough bytes are
// known to be present; Next mutates state and is the call counted against
// the lockstep invariant in spec §3/§8.
type Stream interface {
	// Peek returns what Next would return without advancing state.
	Peek() uint32
	// Next returns the next keystream value and advances state.
	Next() uint32
}

// rollingKeystream is the default Stream: a key of four u32 seed words that
// evolves after every Next call, mirroring the key-rolling discipline of
// the teacher's GameCrypt (internal/crypto/game_crypt.go: shiftKey advances
// key bytes [8:12] by the encrypted size after every call) adapted from a
// byte-XOR cipher to a u32 generator.
type rollingKeystream struct {
	state [4]uint32
}

// Seed constructs a Stream from the four u32 words exchanged during the
// login handshake.
func Seed(k0, k1, k2, k3 uint32) Stream {
	return &rollingKeystream{state: [4]uint32{k0, k1, k2, k3}}
}

func (k *rollingKeystream) value() uint32 {
	// Simple xor-shift combiner over the rolling state; the
	// exact bit pattern is unconstrained by the spec ("opaque u32 keystream
	// generator") as long as it is deterministic given the seed.
	v := k.state[0] ^ (k.state[1] << 13)
	v ^= k.state[2] >> 7
	v ^= k.state[3] << 17
	return v
}

// Peek returns the next keystream value without mutating state.
func (k *rollingKeystream) Peek() uint32 {
	return k.value()
}

// Next returns the next keystream value and rolls the state forward.
func (k *rollingKeystream) Next() uint32 {
	v := k.value()
	k.state[0] += 0x9E3779B9
	k.state[1] = (k.state[1] << 5) | (k.state[1] >> 27)
	k.state[1] += v
	k.state[2] ^= k.state[0]
	k.state[3] += k.state[2]
	return v
}
