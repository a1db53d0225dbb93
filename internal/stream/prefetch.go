package stream

import "context"

// Prefetch warms the audio cache for upcoming ids without blocking the
// caller. Only the first few hints are taken; ids already fresh in the
// audio cache are skipped, and an id currently being resolved in the
// foreground joins that same in-flight call instead of duplicating it.
//
// Prefetch is best-effort: failures are swallowed and tasks may be dropped
// when the pool is saturated.
func (s *Service) Prefetch(ids []string) {
	if len(ids) > s.prefetchLimit {
		ids = ids[:s.prefetchLimit]
	}

	for _, id := range ids {
		if id == "" || s.audio.Contains(id) {
			continue
		}

		s.spawner.Spawn(func() {
			if _, err := s.Resolve(context.Background(), id); err != nil {
				s.logger.Debug("prefetch failed", "id", id, "err", err)
			}
		})
	}
}
