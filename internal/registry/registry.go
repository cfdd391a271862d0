// Package registry implements the sparse PID -> Player map over [1, 2047]
// with round-robin PID allocation (spec §4.6, C6). The teacher's
// sync.Map-backed world object table (internal/world/world.go) is collapsed
// to a plain dense array: the single-threaded cooperative model of spec §5
// means no locking is ever required here.
package registry

import "rs225server/internal/player"

// Capacity is the PID space size: valid PIDs are [1, Capacity] (§3).
const Capacity = player.MaxPlayers

// Registry is the dense id->player map with a parallel occupancy bitmap and
// a round-robin allocation cursor (§4.6).
type Registry struct {
	slots    [Capacity + 1]*player.Player // index 0 unused (PID 0 is the "none" sentinel)
	occupied [Capacity + 1]bool
	cursor   int
	count    int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{cursor: 1}
}

// Count returns the number of occupied PIDs.
func (r *Registry) Count() int { return r.count }

// Get returns the player at pid, or nil if unoccupied or out of range.
func (r *Registry) Get(pid int) *player.Player {
	if pid < 1 || pid > Capacity {
		return nil
	}
	return r.slots[pid]
}

// nextPID scans from the round-robin cursor for a free PID, wrapping at
// Capacity and skipping 0. Returns 0 if full (§4.6).
func (r *Registry) nextPID() int {
	if r.count >= Capacity {
		return 0
	}
	start := r.cursor
	pid := start
	for {
		if !r.occupied[pid] {
			return pid
		}
		pid++
		if pid > Capacity {
			pid = 1
		}
		if pid == start {
			return 0
		}
	}
}

// Assign allocates the next free PID for p and registers it. Returns
// player.ErrFull if the pool is exhausted (§7 Full).
func (r *Registry) Assign(p *player.Player) (int, error) {
	pid := r.nextPID()
	if pid == 0 {
		return 0, player.ErrFull
	}
	r.slots[pid] = p
	r.occupied[pid] = true
	r.count++
	r.cursor = pid + 1
	if r.cursor > Capacity {
		r.cursor = 1
	}
	return pid, nil
}

// Remove frees pid, making it available for reallocation (§4.6, O(1)).
// When the registry drains to empty there is no longer a "last allocation"
// for the cursor to move forward from, so the cursor wraps back to 1 (§8
// scenario 5: "remove all, add -> PID starts at cursor wrap, yielding 1").
func (r *Registry) Remove(pid int) {
	if pid < 1 || pid > Capacity || !r.occupied[pid] {
		return
	}
	r.slots[pid] = nil
	r.occupied[pid] = false
	r.count--
	if r.count == 0 {
		r.cursor = 1
	}
}

// ForEachAscending calls fn for every occupied PID in ascending order,
// stopping early if fn returns false. Used by the visibility engine and
// world process, which both require deterministic PID-ascending iteration
// (§4.7, §5).
func (r *Registry) ForEachAscending(fn func(pid int, p *player.Player) bool) {
	for pid := 1; pid <= Capacity; pid++ {
		if !r.occupied[pid] {
			continue
		}
		if !fn(pid, r.slots[pid]) {
			return
		}
	}
}
