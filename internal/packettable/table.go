// Package packettable holds the static opcode → length-descriptor table
// (spec §4.3, C3). Unspecified opcodes default to VarU8 so the pipeline can
// always resolve a length and keep the cipher in lockstep, even for opcodes
// this engine does not otherwise implement.
package packettable

// Kind identifies how a packet's payload length is encoded on the wire.
type Kind int

const (
	// KindFixed means the payload is always N bytes, no length byte(s).
	KindFixed Kind = iota
	// KindVarU8 means a 1-byte length follows the opcode.
	KindVarU8
	// KindVarU16 means a 2-byte big-endian length follows the opcode.
	KindVarU16
)

// Descriptor describes one opcode's framing.
type Descriptor struct {
	Kind  Kind
	Fixed int // only meaningful when Kind == KindFixed
}

// HeaderSize returns the number of bytes preceding the payload, length
// bytes included: 1 for Fixed (opcode only), 2 for VarU8 (opcode + 1-byte
// length), 3 for VarU16 (opcode + 2-byte length) — see spec §4.9 step (c).
func (d Descriptor) HeaderSize() int {
	switch d.Kind {
	case KindFixed:
		return 1
	case KindVarU8:
		return 2
	case KindVarU16:
		return 3
	default:
		return 1
	}
}

// Known opcodes named in spec §4.3.
const (
	OpMovementClick    = 93
	OpMinimapClick     = 165
	OpMovementVariant3 = 181
	OpPlayerDesign     = 52
	OpCommandLine      = 158
	OpInterfaceButton  = 155
	OpMapRegionA       = 150
	OpMapRegionB       = 81
	OpIdleLogout       = 30
)

// defaultDescriptor is applied to every opcode not explicitly listed below.
var defaultDescriptor = Descriptor{Kind: KindVarU8}

// Table is the static 256-entry opcode table.
var Table = buildTable()

func buildTable() [256]Descriptor {
	var t [256]Descriptor
	for i := range t {
		t[i] = defaultDescriptor
	}

	t[OpMovementClick] = Descriptor{Kind: KindVarU8}
	t[OpMinimapClick] = Descriptor{Kind: KindVarU8}
	t[OpMovementVariant3] = Descriptor{Kind: KindVarU8}
	t[OpPlayerDesign] = Descriptor{Kind: KindFixed, Fixed: 13}
	t[OpCommandLine] = Descriptor{Kind: KindVarU8}
	t[OpInterfaceButton] = Descriptor{Kind: KindFixed, Fixed: 2}
	t[OpMapRegionA] = Descriptor{Kind: KindFixed, Fixed: 4}
	t[OpMapRegionB] = Descriptor{Kind: KindFixed, Fixed: 4}
	t[OpIdleLogout] = Descriptor{Kind: KindFixed, Fixed: 0}

	return t
}

// Lookup returns the descriptor for opcode.
func Lookup(opcode uint8) Descriptor {
	return Table[opcode]
}
