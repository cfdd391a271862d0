// Package visibility computes, once per tick, each LoggedIn player's local
// visibility set under the Chebyshev-≤15 same-height rule (spec §4.7, C7).
// Grounded on the teacher's region-scan-with-callback shape
// (internal/world/visibility.go's ForEachVisibleObject), collapsed from a
// 3x3 region grid to a flat PID-ascending scan: at the protocol's ≤2047
// player ceiling a full scan per viewer is simple, deterministic, and cheap
// enough that the region-grid machinery built for an open world with many
// more entities buys nothing here.
package visibility

import "rs225server/internal/player"

// ViewDistance is the Chebyshev radius within which another player is
// visible (§4.7 rule 4).
const ViewDistance = 15

// MaxLocalSet caps the number of tracked targets per viewer (§4.7).
const MaxLocalSet = player.MaxPlayers - 1

// Visible reports whether Q is visible to P under §4.7's five rules. Both
// pid arguments are passed so rule 1 (Q != P) can be checked by identity
// rather than by pointer equality, matching how the registry hands out
// distinct Player values per PID.
func Visible(pPID int, p *player.Player, qPID int, q *player.Player) bool {
	if pPID == qPID {
		return false
	}
	if q.State() != player.LoggedIn {
		return false
	}
	if q.Pos.Height != p.Pos.Height {
		return false
	}
	if chebyshev(p.Pos.X, p.Pos.Z, q.Pos.X, q.Pos.Z) > ViewDistance {
		return false
	}
	if q.Flags&player.FlagHardInvisible != 0 {
		return false
	}
	return true
}

func chebyshev(x1, z1, x2, z2 int) int {
	dx := abs(x1 - x2)
	dz := abs(z1 - z2)
	if dx > dz {
		return dx
	}
	return dz
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Registry is the minimal view the visibility engine needs of the player
// registry, so this package does not import internal/registry (which would
// be the only import cycle risk in the module: registry depends on player,
// and the engine wires both together).
type Registry interface {
	ForEachAscending(fn func(pid int, p *player.Player) bool)
}

// LocalSet computes P's local visibility set against every other occupied
// PID, in ascending PID order, stopping once MaxLocalSet targets have been
// collected (§4.7: "excess targets are ignored in PID-ascending scan
// order"). The returned slice is newly allocated per call — the world
// process (C13) calls this once per LoggedIn player per tick and diffs
// against the player's previously tracked set for delta updates.
func LocalSet(reg Registry, pPID int, p *player.Player) []int {
	set := make([]int, 0, MaxLocalSet)
	reg.ForEachAscending(func(qPID int, q *player.Player) bool {
		if len(set) >= MaxLocalSet {
			return false
		}
		if Visible(pPID, p, qPID, q) {
			set = append(set, qPID)
		}
		return true
	})
	return set
}
