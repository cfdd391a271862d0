package save

import (
	"fmt"
	"os"
	"path/filepath"

	"rs225server/internal/player"
)

// pathFor returns the on-disk path for username under dir (§6:
// "data/players/<username>.sav").
func pathFor(dir, username string) string {
	return filepath.Join(dir, username+".sav")
}

// WriteFile serializes p and atomically replaces dir/<username>.sav: write
// to a .tmp sibling, fsync, rename over the target (§4.14's atomic write
// protocol). On any failure the tmp file is removed and the previous file,
// if any, remains intact.
func WriteFile(dir, username string, p *player.Player) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: creating save directory: %w", err)
	}

	target := pathFor(dir, username)
	tmp := target + ".tmp"

	data := Encode(p)

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("save: opening tmp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("save: writing tmp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("save: fsync tmp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save: closing tmp file: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save: renaming tmp file over target: %w", err)
	}

	return nil
}

// ReadFile loads dir/<username>.sav. Per §4.14/§7, any structural failure —
// missing file, truncation, bad magic, unsupported version, CRC mismatch —
// is reported via ok=false ("new player" defaults), never a fatal error to
// the caller.
func ReadFile(dir, username string) (p *player.Player, ok bool) {
	data, err := os.ReadFile(pathFor(dir, username))
	if err != nil {
		return nil, false
	}
	p, err = Decode(data)
	if err != nil {
		return nil, false
	}
	return p, true
}
