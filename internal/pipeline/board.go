package pipeline

import (
	"sync"

	"github.com/tanksentry/tanksentry/internal/types"
)

// Board holds the latest snapshot per channel for concurrent readers (the
// REST server). It is written exclusively by the scheduler goroutine.
type Board struct {
	mu    sync.RWMutex
	snaps map[string]types.Snapshot
	order []string
}

// NewBoard creates an empty snapshot board.
func NewBoard() *Board {
	return &Board{snaps: make(map[string]types.Snapshot)}
}

// Post records the latest snapshot for a channel.
func (b *Board) Post(snap types.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, seen := b.snaps[snap.Channel]; !seen {
		b.order = append(b.order, snap.Channel)
	}
	b.snaps[snap.Channel] = snap
}

// Snapshot returns the latest snapshot for the named channel.
func (b *Board) Snapshot(channel string) (types.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap, ok := b.snaps[channel]
	return snap, ok
}

// Snapshots returns all snapshots in channel registration order.
func (b *Board) Snapshots() []types.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.Snapshot, 0, len(b.order))
	for _, name := range b.order {
		out = append(out, b.snaps[name])
	}
	return out
}
