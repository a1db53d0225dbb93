package stream

// Stats is a point-in-time snapshot of the cache tiers and in-flight
// resolutions, served by the diagnostics endpoint.
type Stats struct {
	AudioURLCache  int      `json:"audio_url_cache"`
	TrackInfoCache int      `json:"track_info_cache"`
	RelatedCache   int      `json:"related_cache"`
	InFlight       []string `json:"inflight"`
}

// Snapshot collects current cache sizes and the set of ids with a
// resolution in flight.
func (s *Service) Snapshot() Stats {
	return Stats{
		AudioURLCache:  s.audio.Len(),
		TrackInfoCache: s.tracks.Len(),
		RelatedCache:   s.related.Len(),
		InFlight:       s.flights.Keys(),
	}
}
