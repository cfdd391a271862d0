// Package config loads the server's YAML configuration, following the
// teacher's pattern: a typed struct with yaml tags, a DefaultX() constructor,
// and a LoadX(path) that falls back to defaults when the file does not
// exist (grounded on the teacher's internal/config/config.go, LoadLoginServer).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Server holds the core's runtime configuration (spec §6 External Interfaces).
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// Filesystem — per-username save files live under SaveDir (§4.14, §6).
	SaveDir string `yaml:"save_dir"`

	// Logging
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// DefaultServer returns the default configuration: port 43594 (§6), saves
// under data/players, info-level logging.
func DefaultServer() Server {
	return Server{
		BindAddress: "0.0.0.0",
		Port:        43594,
		SaveDir:     "data/players",
		LogLevel:    "info",
	}
}

// LoadServer loads configuration from a YAML file at path. If the file does
// not exist, defaults are returned unmodified.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
