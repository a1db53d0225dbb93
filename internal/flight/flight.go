// package flight coalesces concurrent resolutions for the same media id
// into a single upstream call.
package flight

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent callers per key. All callers joined to an
// in-flight call receive that call's outcome, success or failure; a failed
// attempt is not retried for its waiters, and only callers arriving after
// the failure start a new attempt.
//
// Alongside the coalescing it tracks the set of keys currently in flight so
// diagnostics can report them.
type Group struct {
	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]int
}

// NewGroup creates an empty [Group].
func NewGroup() *Group {
	return &Group{inflight: make(map[string]int)}
}

// Do executes fn for key, coalescing with any call already in flight for
// the same key. The in-flight marker is removed when the underlying call
// finishes, regardless of outcome.
func (g *Group) Do(key string, fn func() (any, error)) (any, error) {
	g.mu.Lock()
	g.inflight[key]++
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.inflight[key]--
		if g.inflight[key] <= 0 {
			delete(g.inflight, key)
		}
		g.mu.Unlock()
	}()

	v, err, _ := g.group.Do(key, fn)
	return v, err
}

// InFlight reports whether a call for key is currently underway.
func (g *Group) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inflight[key] > 0
}

// Keys returns the sorted set of keys with a call currently in flight.
func (g *Group) Keys() []string {
	g.mu.Lock()
	keys := make([]string, 0, len(g.inflight))
	for k := range g.inflight {
		keys = append(keys, k)
	}
	g.mu.Unlock()

	sort.Strings(keys)
	return keys
}
