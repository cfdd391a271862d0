package save

import (
	"fmt"
	"os"
	"path/filepath"
)

// pathForPasswordHash returns the sibling credential file for username. The
// bcrypt hash is kept out of the versioned .sav layout (§4.14 does not
// reserve a field for it — that format predates any notion of per-core
// authentication) so the checksummed save record stays exactly as specified.
func pathForPasswordHash(dir, username string) string {
	return filepath.Join(dir, username+".pass")
}

// WritePasswordHash stores a bcrypt password hash for username.
func WritePasswordHash(dir, username string, hash []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save: creating save directory: %w", err)
	}
	return os.WriteFile(pathForPasswordHash(dir, username), hash, 0o600)
}

// ReadPasswordHash loads the bcrypt password hash for username, if any.
func ReadPasswordHash(dir, username string) (hash []byte, ok bool) {
	data, err := os.ReadFile(pathForPasswordHash(dir, username))
	if err != nil {
		return nil, false
	}
	return data, true
}
