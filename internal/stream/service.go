package stream

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/I-No-oNe/TuneX/internal/cache"
	"github.com/I-No-oNe/TuneX/internal/flight"
	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/resolver"
	"github.com/I-No-oNe/TuneX/internal/shared"
	"github.com/I-No-oNe/TuneX/internal/store"
)

// Options configures a [Service].
type Options struct {
	Resolver      resolver.Resolver
	Store         *store.Store
	Spawner       Spawner
	Logger        *log.Logger
	AudioTTL      time.Duration
	RelatedTTL    time.Duration
	SearchTTL     time.Duration
	PrefetchLimit int
	TrendingQuery string
}

// Service coordinates resolution across the cache tiers, the single-flight
// group, the upstream resolver, and the per-user store.
type Service struct {
	resolver resolver.Resolver
	store    *store.Store
	spawner  Spawner
	logger   *log.Logger
	flights  *flight.Group

	audio   *cache.Store[resolver.Resolution]
	tracks  *cache.Store[models.Track]
	related *cache.Store[[]models.Track]

	searchTTL     time.Duration
	prefetchLimit int
	trendingQuery string
}

// NewService creates a [Service] from the given options, applying the
// original server's defaults for anything unset.
func NewService(opts Options) *Service {
	if opts.AudioTTL <= 0 {
		opts.AudioTTL = 4 * time.Hour
	}
	if opts.RelatedTTL <= 0 {
		opts.RelatedTTL = time.Hour
	}
	if opts.SearchTTL <= 0 {
		opts.SearchTTL = 30 * time.Minute
	}
	if opts.PrefetchLimit <= 0 {
		opts.PrefetchLimit = 3
	}
	if opts.TrendingQuery == "" {
		opts.TrendingQuery = "trending music 2026"
	}
	if opts.Spawner == nil {
		opts.Spawner = NewPoolSpawner(4)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Service{
		resolver:      opts.Resolver,
		store:         opts.Store,
		spawner:       opts.Spawner,
		logger:        shared.WithLogger(opts.Logger, "component", "stream"),
		flights:       flight.NewGroup(),
		audio:         cache.New[resolver.Resolution]("audio_url", opts.AudioTTL),
		tracks:        cache.New[models.Track]("track_info", opts.AudioTTL),
		related:       cache.New[[]models.Track]("related", opts.RelatedTTL),
		searchTTL:     opts.SearchTTL,
		prefetchLimit: opts.PrefetchLimit,
		trendingQuery: opts.TrendingQuery,
	}
}

// Resolve returns the playable URL and metadata for a media id, serving
// from the audio cache when fresh and otherwise coalescing concurrent
// callers into a single upstream call.
//
// The upstream call runs on a context detached from the caller's: an
// abandoned request still completes and still populates the caches for
// later callers.
func (s *Service) Resolve(ctx context.Context, id string) (*resolver.Resolution, error) {
	if res, ok := s.audio.Get(id); ok {
		return &res, nil
	}

	detached := context.WithoutCancel(ctx)
	v, err := s.flights.Do(id, func() (any, error) {
		if res, ok := s.audio.Get(id); ok {
			return &res, nil
		}

		res, err := s.resolver.Resolve(detached, id)
		if err != nil {
			return nil, err
		}

		s.audio.Put(id, *res)
		s.tracks.Put(id, res.Track)
		return res, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*resolver.Resolution), nil
}

// Stream resolves a media id for an identity, records the play in their
// history, and fires prefetch for any hinted follow-up ids.
func (s *Service) Stream(ctx context.Context, identity, id string, hints []string) (*resolver.Resolution, error) {
	res, err := s.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.RecordPlay(identity, res.Track); err != nil {
		return nil, fmt.Errorf("failed to record play: %w", err)
	}

	s.Prefetch(hints)

	return res, nil
}

// TrackInfo returns metadata for a media id, reusing a full resolve on a
// metadata cache miss so a later stream request finds the audio URL warm.
func (s *Service) TrackInfo(ctx context.Context, id string) (models.Track, error) {
	if track, ok := s.tracks.Get(id); ok {
		return track, nil
	}

	res, err := s.Resolve(ctx, id)
	if err != nil {
		return models.Track{}, err
	}
	return res.Track, nil
}

// Related returns the related list for a media id. An upstream failure is
// recovered by caching an empty list for the TTL window, so a consistently
// failing id cannot trigger repeated expensive upstream calls.
func (s *Service) Related(ctx context.Context, id string) ([]models.Track, error) {
	if related, ok := s.related.Get(id); ok {
		return related, nil
	}

	related, err := s.resolver.Related(context.WithoutCancel(ctx), id)
	if err != nil {
		s.logger.Debug("related lookup failed", "id", id, "err", err)
		related = []models.Track{}
	}
	if related == nil {
		related = []models.Track{}
	}

	s.related.Put(id, related)
	return related, nil
}

// Search runs a per-identity cached search. The query is normalized
// (lowercased, trimmed) before cache lookup and storage.
func (s *Service) Search(ctx context.Context, identity, query string) ([]models.Track, error) {
	normalized := store.NormalizeQuery(query)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	if results, ok, err := s.store.CachedSearch(identity, normalized, s.searchTTL); err != nil {
		return nil, err
	} else if ok {
		return results, nil
	}

	results, err := s.resolver.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.store.StoreSearch(identity, normalized, results); err != nil {
		return nil, err
	}

	return results, nil
}

// Suggestions builds a suggestion list for an identity from their most
// recent play. With no history it falls back to the trending query; with an
// empty related list it falls back to searching the seed's channel.
// The second return value names what the suggestions are based on.
func (s *Service) Suggestions(ctx context.Context, identity string) ([]models.Track, string, error) {
	history, err := s.store.History(identity, 1)
	if err != nil {
		return nil, "", err
	}

	if len(history) == 0 {
		results, err := s.Search(ctx, identity, s.trendingQuery)
		if err != nil {
			return nil, "", err
		}
		return results, "trending", nil
	}

	seed := history[0]
	related, err := s.Related(ctx, seed.ID)
	if err != nil {
		return nil, "", err
	}

	if len(related) == 0 {
		channel := seed.Channel
		if channel == "" {
			channel = "music"
		}
		related, err = s.Search(ctx, identity, fmt.Sprintf("%s music", channel))
		if err != nil {
			return nil, "", err
		}
	}

	basedOn := seed.Title
	if basedOn == "" {
		basedOn = "recent"
	}

	return related, basedOn, nil
}
