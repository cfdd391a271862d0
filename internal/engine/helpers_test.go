package engine

import (
	"log/slog"
	"testing"
	"time"

	"rs225server/internal/config"
	"rs225server/internal/keystream"
	"rs225server/internal/player"
	"rs225server/internal/registry"
)

// newTestEngine returns an Engine with no listener, suitable for tests that
// exercise the tick loop and world process without real sockets.
func newTestEngine() *Engine {
	return &Engine{
		cfg:     config.DefaultServer(),
		log:     slog.Default(),
		reg:     registry.New(),
		tracked: make(map[int]map[int]bool),
	}
}

// loggedInPlayer builds a LoggedIn player at (x, z, height) with a
// no-op keystream, registers it, and returns both the player and its PID.
func loggedInPlayer(t *testing.T, e *Engine, username string, x, z, height int) (*player.Player, int) {
	t.Helper()
	p := player.New(0)
	now := time.Now()
	p.OnConnect(nil, now)
	p.OnHandshakeComplete(now)
	p.OnLoggedIn(username, 0, keystream.Seed(1, 2, 3, 4), keystream.Seed(4, 3, 2, 1), now)
	p.Pos = player.Position{X: x, Z: z, Height: height}
	p.RunEnergy = player.MaxRunEnergy
	p.UpdateRegionAnchor()
	p.NeedsPlacement = false
	p.RegionChanged = false

	pid, err := e.reg.Assign(p)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	p.PID = pid
	return p, pid
}
