package stream

import "golang.org/x/sync/errgroup"

// Spawner launches background work. The production implementation runs
// tasks on a bounded pool; tests substitute a synchronous one so prefetch
// effects can be asserted without racing a scheduler.
type Spawner interface {
	// Spawn runs fn in the background. It may drop fn entirely when no
	// capacity is available; callers must treat spawned work as
	// best-effort.
	Spawn(fn func())
}

// PoolSpawner runs tasks on a bounded goroutine pool. Tasks submitted while
// the pool is full are dropped.
type PoolSpawner struct {
	group *errgroup.Group
}

// NewPoolSpawner creates a [PoolSpawner] allowing up to slots concurrent tasks.
func NewPoolSpawner(slots int) *PoolSpawner {
	if slots <= 0 {
		slots = 4
	}
	g := &errgroup.Group{}
	g.SetLimit(slots)
	return &PoolSpawner{group: g}
}

// Spawn submits fn, dropping it when all slots are busy.
func (p *PoolSpawner) Spawn(fn func()) {
	p.group.TryGo(func() error {
		fn()
		return nil
	})
}

// SyncSpawner runs tasks inline on the calling goroutine.
type SyncSpawner struct{}

// Spawn runs fn immediately.
func (SyncSpawner) Spawn(fn func()) {
	fn()
}
