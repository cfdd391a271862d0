// Package engine wires the connection acceptor (C8), packet pipeline (C9),
// tick loop (C12), and world process (C13) into the single engine context
// the rest of the server runs inside — the "global mutable singletons
// collapse to a single engine context value" redesign note of spec §9.
// Grounded on the teacher's internal/gameserver/server.go (accept loop,
// save-on-shutdown discipline, slog usage) with its goroutine-per-connection
// model replaced by the single-threaded cooperative loop §4.12/§5 mandates.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"rs225server/internal/config"
	"rs225server/internal/player"
	"rs225server/internal/registry"
	"rs225server/internal/save"
)

// tickInterval is the fixed simulation cadence (spec §4.12).
const tickInterval = 600 * time.Millisecond

// pollInterval paces the outer I/O loop when there is nothing to do.
const pollInterval = 1 * time.Millisecond

// listenBacklog records §6's stated listen backlog. net.Listen takes no
// backlog argument, so it is not applied and the OS default is used.
const listenBacklog = 10

// Engine is the single-threaded cooperative server context (§5): it owns
// the listener, the fixed player slot table, the PID registry, and the
// per-player visibility tracking state used for delta updates.
type Engine struct {
	cfg config.Server
	log *slog.Logger

	listener *net.TCPListener
	slots    []*player.Player
	reg      *registry.Registry

	tickAnchor time.Time
	tracked    map[int]map[int]bool
}

// New constructs an Engine bound to addr (cfg.BindAddress:cfg.Port), with a
// fixed-size player slot table per the protocol's 2047-player ceiling (§3).
func New(cfg config.Server, log *slog.Logger) (*Engine, error) {
	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("engine: listening on %s: %w", addr, err)
	}
	tcpLn, ok := ln.(*net.TCPListener)
	if !ok {
		ln.Close()
		return nil, fmt.Errorf("engine: listener for %s is not a TCP listener", addr)
	}

	slots := make([]*player.Player, player.MaxPlayers)
	for i := range slots {
		slots[i] = player.New(i)
	}

	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		cfg:      cfg,
		log:      log,
		listener: tcpLn,
		slots:    slots,
		reg:      registry.New(),
		tracked:  make(map[int]map[int]bool),
	}, nil
}

// Addr returns the address the engine is listening on.
func (e *Engine) Addr() net.Addr { return e.listener.Addr() }

// Run drives the main loop until ctx is cancelled (§4.12's cancellation
// rule: "the loop drains and closes sockets"). It accepts connections,
// steps the packet pipeline for every slot, fires ticks on cadence, and
// paces itself with a short sleep when there is nothing to do.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started", "address", e.listener.Addr())

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		default:
		}

		now := time.Now()

		e.acceptLoop(now)

		for _, p := range e.slots {
			if p.State() != player.Disconnected {
				e.pipelineStep(p, now)
			}
		}

		e.maybeTick(now)

		time.Sleep(pollInterval)
	}
}

// shutdown saves every LoggedIn player and closes every open socket (§5
// "per-player saves are triggered before disconnect").
func (e *Engine) shutdown() {
	e.log.Info("engine shutting down")
	saved := 0
	for _, p := range e.slots {
		if p.State() == player.LoggedIn {
			e.savePlayer(p)
			saved++
		}
		if p.Conn != nil {
			p.Conn.Close()
		}
	}
	e.listener.Close()
	if saved > 0 {
		e.log.Info("saved players on shutdown", "count", saved)
	}
}

func (e *Engine) savePlayer(p *player.Player) {
	if err := save.WriteFile(e.cfg.SaveDir, p.Username, p); err != nil {
		e.log.Error("save player", "username", p.Username, "error", err)
	}
}
