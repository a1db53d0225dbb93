// package cache provides the in-memory TTL cache tiers for resolved audio
// URLs, track metadata, and related lists.
//
// Each tier is a [Store] with its own TTL. Entries are unbounded in count;
// eviction is time-based only. Expired entries are treated as absent, so a
// caller can never distinguish "never computed" from "expired".
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunex_cache_hits_total",
		Help: "Cache hits per cache tier.",
	}, []string{"cache"})
	missesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tunex_cache_misses_total",
		Help: "Cache misses per cache tier.",
	}, []string{"cache"})
)

// Store is a keyed TTL cache. A zero entry limit makes it unbounded in
// count; freshness is decided purely by the per-store TTL.
type Store[V any] struct {
	name string
	lru  *expirable.LRU[string, V]
}

// New creates a named [Store] with the given TTL. The name labels the
// store's hit/miss metrics and appears in diagnostics output.
func New[V any](name string, ttl time.Duration) *Store[V] {
	return &Store[V]{
		name: name,
		lru:  expirable.NewLRU[string, V](0, nil, ttl),
	}
}

// Get returns the fresh value for key. The boolean is false both for keys
// never inserted and for keys whose entry has expired.
func (s *Store[V]) Get(key string) (V, bool) {
	v, ok := s.lru.Get(key)
	if ok {
		hitsTotal.WithLabelValues(s.name).Inc()
		return v, true
	}
	missesTotal.WithLabelValues(s.name).Inc()
	var zero V
	return zero, false
}

// Contains reports whether key has a fresh entry without counting a hit or
// miss. Used by prefetch to skip already-warm ids.
func (s *Store[V]) Contains(key string) bool {
	_, ok := s.lru.Peek(key)
	return ok
}

// Put inserts or replaces the value for key, restarting its TTL window.
func (s *Store[V]) Put(key string, value V) {
	s.lru.Add(key, value)
}

// Len returns the number of entries currently held, including entries that
// have expired but not yet been swept.
func (s *Store[V]) Len() int {
	return s.lru.Len()
}

// Name returns the store's diagnostic name.
func (s *Store[V]) Name() string {
	return s.name
}
