package save

import (
	"hash/crc32"

	"rs225server/internal/player"
	"rs225server/internal/wire"
)

// Magic and CurrentVersion are the save file header fields (§4.14).
const (
	Magic          uint16 = 0x2004
	CurrentVersion uint16 = 6
)

// minFileSize is the length floor Decode checks before anything else, per
// §4.14's load protocol ("read fully (>= 20 bytes required)"). It is a
// coarse guard only: a complete v6 file as written by Encode, with empty
// varp/inventory/AFK sections, is 153 bytes.
const minFileSize = 20

// Encode serializes p into the versioned binary layout of §4.14, appending
// the trailing CRC-32 (IEEE 802.3, polynomial 0xEDB88320) over every byte
// that precedes it. varp/AFK/inventory sections are written as empty
// (§8: "modulo not-yet-implemented varp/inventory sections that serialize
// as empty").
func Encode(p *player.Player) []byte {
	w := wire.NewWriter(128)

	w.WriteU16(Magic)
	w.WriteU16(CurrentVersion)

	w.WriteU16(uint16(p.Pos.X))
	w.WriteU16(uint16(p.Pos.Z))
	w.WriteU8(uint8(p.Pos.Height))

	for _, b := range p.Body {
		w.WriteU8(b)
	}
	for _, c := range p.Colors {
		w.WriteU8(c)
	}

	w.WriteU8(p.Gender)
	w.WriteU8(boolToByte(p.DesignComplete))

	w.WriteU16(uint16(p.RunEnergy))
	w.WriteU32(p.PlaytimeTicks)

	for _, s := range p.Skills {
		w.WriteU32(s.XP)
		w.WriteU8(s.Level)
	}

	w.WriteU16(0) // varp_count: content not modeled in this revision
	w.WriteU8(0)  // inv_count: inventories not modeled in this revision
	w.WriteU8(0)  // afk_count
	w.WriteU16(0) // trailing AFK u16

	w.WriteU8(p.ChatModes)
	w.WriteU64(p.LastLoginMs)

	crc := crc32.ChecksumIEEE(w.Bytes())
	w.WriteU32(crc)

	return w.Bytes()
}

// Decode parses a save file per §4.14's load protocol: checks the length
// floor, verifies the CRC over len-4 bytes, then verifies magic and checks
// version <= CurrentVersion, then decodes fields in order with the forward-migration defaults the spec
// names. Any check failure returns ErrCorruptSave — callers should treat
// that as "new player" (§7 CorruptSave).
func Decode(data []byte) (*player.Player, error) {
	if len(data) < minFileSize {
		return nil, ErrCorruptSave
	}

	crcOffset := len(data) - 4
	wantCRC := beU32(data[crcOffset:])
	gotCRC := crc32.ChecksumIEEE(data[:crcOffset])
	if wantCRC != gotCRC {
		return nil, ErrCorruptSave
	}

	r := wire.NewReader(data[:crcOffset])

	magic, err := r.ReadU16()
	if err != nil || magic != Magic {
		return nil, ErrCorruptSave
	}
	version, err := r.ReadU16()
	if err != nil || version > CurrentVersion {
		return nil, ErrCorruptSave
	}

	p := &player.Player{}

	x, err := r.ReadU16()
	if err != nil {
		return nil, ErrCorruptSave
	}
	z, err := r.ReadU16()
	if err != nil {
		return nil, ErrCorruptSave
	}
	height, err := r.ReadU8()
	if err != nil {
		return nil, ErrCorruptSave
	}
	p.Pos = player.Position{X: int(x), Z: int(z), Height: int(height)}

	for i := range p.Body {
		b, err := r.ReadU8()
		if err != nil {
			return nil, ErrCorruptSave
		}
		p.Body[i] = b
	}
	for i := range p.Colors {
		c, err := r.ReadU8()
		if err != nil {
			return nil, ErrCorruptSave
		}
		p.Colors[i] = c
	}

	gender, err := r.ReadU8()
	if err != nil {
		return nil, ErrCorruptSave
	}
	p.Gender = gender

	designComplete, err := r.ReadU8()
	if err != nil {
		return nil, ErrCorruptSave
	}
	p.DesignComplete = designComplete != 0

	runEnergy, err := r.ReadU16()
	if err != nil {
		return nil, ErrCorruptSave
	}
	p.RunEnergy = int(runEnergy)

	if version < 2 {
		playtime16, err := r.ReadU16()
		if err != nil {
			return nil, ErrCorruptSave
		}
		p.PlaytimeTicks = uint32(playtime16)
	} else {
		playtime, err := r.ReadU32()
		if err != nil {
			return nil, ErrCorruptSave
		}
		p.PlaytimeTicks = playtime
	}

	for i := range p.Skills {
		xp, err := r.ReadU32()
		if err != nil {
			return nil, ErrCorruptSave
		}
		lvl, err := r.ReadU8()
		if err != nil {
			return nil, ErrCorruptSave
		}
		p.Skills[i] = player.SkillPair{XP: xp, Level: lvl}
	}

	varpCount, err := r.ReadU16()
	if err != nil {
		return nil, ErrCorruptSave
	}
	for i := uint16(0); i < varpCount; i++ {
		if _, err := r.ReadU32(); err != nil {
			return nil, ErrCorruptSave
		}
	}

	if version >= 5 {
		invCount, err := r.ReadU8()
		if err != nil {
			return nil, ErrCorruptSave
		}
		for i := uint8(0); i < invCount; i++ {
			if err := skipInventoryItem(r); err != nil {
				return nil, ErrCorruptSave
			}
		}
	}

	if version >= 3 {
		afkCount, err := r.ReadU8()
		if err != nil {
			return nil, ErrCorruptSave
		}
		for i := uint8(0); i < afkCount; i++ {
			if _, err := r.ReadU32(); err != nil {
				return nil, ErrCorruptSave
			}
		}
		if _, err := r.ReadU16(); err != nil {
			return nil, ErrCorruptSave
		}
	}

	if version >= 4 {
		chatModes, err := r.ReadU8()
		if err != nil {
			return nil, ErrCorruptSave
		}
		p.ChatModes = chatModes
	}

	lastLogin, err := r.ReadU64()
	if err != nil {
		return nil, ErrCorruptSave
	}
	p.LastLoginMs = lastLogin

	return p, nil
}

// skipInventoryItem reads and discards one inventory slot's encoding:
// id:u16, count:u8 (plus a count:u32 if count==255), per §4.14.
func skipInventoryItem(r *wire.Reader) error {
	if _, err := r.ReadU16(); err != nil {
		return err
	}
	count, err := r.ReadU8()
	if err != nil {
		return err
	}
	if count == 255 {
		if _, err := r.ReadU32(); err != nil {
			return err
		}
	}
	return nil
}

func boolToByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
