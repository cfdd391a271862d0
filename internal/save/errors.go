// Package save implements the versioned, CRC-32-checked, atomically-written
// player save file format (spec §4.14, C14): the third of the three hard
// engineering pieces named in §1.
package save

import "errors"

// ErrCorruptSave covers CRC mismatch, bad magic, and unsupported version —
// the load path always degrades to "new player" defaults on any of these
// rather than surfacing the error to the caller (§7 CorruptSave).
var ErrCorruptSave = errors.New("save: corrupt or unsupported save file")
