package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/resolver"
	"github.com/I-No-oNe/TuneX/internal/store"
	apptest "github.com/I-No-oNe/TuneX/internal/testing"
)

func newTestService(t *testing.T, mock *apptest.MockResolver, opts Options) *Service {
	t.Helper()

	opts.Resolver = mock
	if opts.Store == nil {
		opts.Store = store.New(apptest.SetupTestDB(t))
	}
	if opts.Spawner == nil {
		opts.Spawner = SyncSpawner{}
	}

	return NewService(opts)
}

func TestResolveUsesCache(t *testing.T) {
	mock := &apptest.MockResolver{}
	s := newTestService(t, mock, Options{})

	for i := 0; i < 3; i++ {
		res, err := s.Resolve(context.Background(), "v1")
		if err != nil {
			t.Fatalf("resolve %d failed: %v", i, err)
		}
		if res.StreamURL != "https://audio.example/v1" {
			t.Errorf("unexpected stream URL: %s", res.StreamURL)
		}
	}

	if calls := mock.ResolveCalls(); calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}

func TestResolveTTLExpiry(t *testing.T) {
	mock := &apptest.MockResolver{}
	s := newTestService(t, mock, Options{AudioTTL: 50 * time.Millisecond})

	if _, err := s.Resolve(context.Background(), "v1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if _, err := s.Resolve(context.Background(), "v1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if calls := mock.ResolveCalls(); calls != 1 {
		t.Fatalf("expected 1 call within TTL, got %d", calls)
	}

	time.Sleep(80 * time.Millisecond)

	if _, err := s.Resolve(context.Background(), "v1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if calls := mock.ResolveCalls(); calls != 2 {
		t.Errorf("expected a second call after TTL, got %d", calls)
	}
}

func TestResolveSingleFlight(t *testing.T) {
	gate := make(chan struct{})
	mock := &apptest.MockResolver{
		ResolveFn: func(ctx context.Context, id string) (*resolver.Resolution, error) {
			<-gate
			return &resolver.Resolution{StreamURL: "url", Track: models.Track{ID: id}}, nil
		},
	}
	s := newTestService(t, mock, Options{})

	const callers = 8
	results := make([]*resolver.Resolution, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Resolve(context.Background(), "v1")
		}(i)
	}

	// Give every caller a chance to reach the in-flight join.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if calls := mock.ResolveCalls(); calls != 1 {
		t.Errorf("expected exactly 1 upstream call for %d concurrent callers, got %d", callers, calls)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Errorf("caller %d: unexpected error: %v", i, errs[i])
		}
		if results[i].StreamURL != "url" {
			t.Errorf("caller %d: unexpected result: %+v", i, results[i])
		}
	}
}

func TestResolveFailureNotCached(t *testing.T) {
	wantErr := errors.New("no playable format")
	mock := &apptest.MockResolver{
		ResolveFn: func(ctx context.Context, id string) (*resolver.Resolution, error) {
			return nil, wantErr
		},
	}
	s := newTestService(t, mock, Options{})

	for i := 0; i < 2; i++ {
		if _, err := s.Resolve(context.Background(), "v1"); !errors.Is(err, wantErr) {
			t.Fatalf("attempt %d: expected failure, got %v", i, err)
		}
	}

	if calls := mock.ResolveCalls(); calls != 2 {
		t.Errorf("expected a fresh attempt per caller after failure, got %d calls", calls)
	}
}

func TestStreamRecordsHistoryAndPrefetches(t *testing.T) {
	users := store.New(apptest.SetupTestDB(t))
	mock := &apptest.MockResolver{}
	s := newTestService(t, mock, Options{Store: users})

	res, err := s.Stream(context.Background(), "alice", "v1", []string{"v2", "v3", "v4", "v5"})
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if res.Track.ID != "v1" {
		t.Errorf("unexpected track: %+v", res.Track)
	}

	history, err := users.History("alice", 50)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(history) != 1 || history[0].ID != "v1" {
		t.Errorf("expected play recorded, got %v", history)
	}

	// v1 plus the first three hints; the fourth hint is beyond the limit.
	if calls := mock.ResolveCalls(); calls != 4 {
		t.Fatalf("expected 4 upstream calls, got %d", calls)
	}

	// Prefetched ids are warm: resolving them again costs nothing.
	for _, id := range []string{"v2", "v3", "v4"} {
		if _, err := s.Resolve(context.Background(), id); err != nil {
			t.Fatalf("resolve %s failed: %v", id, err)
		}
	}
	if calls := mock.ResolveCalls(); calls != 4 {
		t.Errorf("expected prefetched ids to be cached, got %d calls", calls)
	}

	if _, err := s.Resolve(context.Background(), "v5"); err != nil {
		t.Fatalf("resolve v5 failed: %v", err)
	}
	if calls := mock.ResolveCalls(); calls != 5 {
		t.Errorf("expected v5 to need a fresh call, got %d", calls)
	}
}

func TestPrefetchSkipsFreshEntries(t *testing.T) {
	mock := &apptest.MockResolver{}
	s := newTestService(t, mock, Options{})

	if _, err := s.Resolve(context.Background(), "v1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	s.Prefetch([]string{"v1", ""})

	if calls := mock.ResolveCalls(); calls != 1 {
		t.Errorf("expected no prefetch for warm or empty ids, got %d calls", calls)
	}
}

func TestPrefetchSwallowsFailures(t *testing.T) {
	mock := &apptest.MockResolver{
		ResolveFn: func(ctx context.Context, id string) (*resolver.Resolution, error) {
			if id == "bad" {
				return nil, errors.New("extraction failed")
			}
			return &resolver.Resolution{StreamURL: "url", Track: models.Track{ID: id}}, nil
		},
	}
	s := newTestService(t, mock, Options{})

	if _, err := s.Stream(context.Background(), "alice", "v1", []string{"bad"}); err != nil {
		t.Fatalf("stream should not surface prefetch failures: %v", err)
	}
}

func TestTrackInfoReusesResolution(t *testing.T) {
	mock := &apptest.MockResolver{}
	s := newTestService(t, mock, Options{})

	if _, err := s.Resolve(context.Background(), "v1"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	track, err := s.TrackInfo(context.Background(), "v1")
	if err != nil {
		t.Fatalf("track info failed: %v", err)
	}
	if track.ID != "v1" {
		t.Errorf("unexpected track: %+v", track)
	}
	if calls := mock.ResolveCalls(); calls != 1 {
		t.Errorf("expected metadata served from cache, got %d calls", calls)
	}

	// Cold metadata lookup performs a full resolve, warming the audio cache.
	if _, err := s.TrackInfo(context.Background(), "v2"); err != nil {
		t.Fatalf("track info failed: %v", err)
	}
	if _, err := s.Resolve(context.Background(), "v2"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if calls := mock.ResolveCalls(); calls != 2 {
		t.Errorf("expected 2 calls total, got %d", calls)
	}
}

func TestRelatedFailureCachesEmpty(t *testing.T) {
	mock := &apptest.MockResolver{
		RelatedFn: func(ctx context.Context, id string) ([]models.Track, error) {
			return nil, errors.New("related unavailable")
		},
	}
	s := newTestService(t, mock, Options{})

	for i := 0; i < 2; i++ {
		related, err := s.Related(context.Background(), "v1")
		if err != nil {
			t.Fatalf("related should recover from upstream failure: %v", err)
		}
		if len(related) != 0 {
			t.Errorf("expected empty list, got %v", related)
		}
	}

	if calls := mock.RelatedCalls(); calls != 1 {
		t.Errorf("expected the empty result to be cached, got %d calls", calls)
	}
}

func TestSearchCachesPerIdentity(t *testing.T) {
	mock := &apptest.MockResolver{
		SearchFn: func(ctx context.Context, query string) ([]models.Track, error) {
			return []models.Track{{ID: "v1", Title: query}}, nil
		},
	}
	s := newTestService(t, mock, Options{})

	for i := 0; i < 2; i++ {
		if _, err := s.Search(context.Background(), "alice", "  Jazz "); err != nil {
			t.Fatalf("search failed: %v", err)
		}
	}
	if _, err := s.Search(context.Background(), "alice", "jazz"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if calls := mock.SearchCalls(); calls != 1 {
		t.Errorf("expected normalized queries to share one upstream call, got %d", calls)
	}

	if _, err := s.Search(context.Background(), "bob", "jazz"); err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if calls := mock.SearchCalls(); calls != 2 {
		t.Errorf("expected a separate call for another identity, got %d", calls)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	s := newTestService(t, &apptest.MockResolver{}, Options{})

	if _, err := s.Search(context.Background(), "alice", "   "); err == nil {
		t.Error("expected an error for an empty query")
	}
}

func TestSuggestions(t *testing.T) {
	t.Run("empty history falls back to trending", func(t *testing.T) {
		var gotQuery string
		mock := &apptest.MockResolver{
			SearchFn: func(ctx context.Context, query string) ([]models.Track, error) {
				gotQuery = query
				return []models.Track{{ID: "t1"}}, nil
			},
		}
		s := newTestService(t, mock, Options{TrendingQuery: "trending music 2026"})

		suggestions, basedOn, err := s.Suggestions(context.Background(), "alice")
		if err != nil {
			t.Fatalf("suggestions failed: %v", err)
		}
		if basedOn != "trending" {
			t.Errorf("expected based_on trending, got %q", basedOn)
		}
		if gotQuery != "trending music 2026" {
			t.Errorf("expected trending query, got %q", gotQuery)
		}
		if len(suggestions) != 1 {
			t.Errorf("expected trending results, got %v", suggestions)
		}
	})

	t.Run("related seeds from most recent play", func(t *testing.T) {
		users := store.New(apptest.SetupTestDB(t))
		mock := &apptest.MockResolver{
			RelatedFn: func(ctx context.Context, id string) ([]models.Track, error) {
				return []models.Track{{ID: "r1"}, {ID: "r2"}}, nil
			},
		}
		s := newTestService(t, mock, Options{Store: users})

		if err := users.RecordPlay("alice", models.Track{ID: "v1", Title: "So What", Channel: "Jazz"}); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}

		suggestions, basedOn, err := s.Suggestions(context.Background(), "alice")
		if err != nil {
			t.Fatalf("suggestions failed: %v", err)
		}
		if basedOn != "So What" {
			t.Errorf("expected based_on to name the seed, got %q", basedOn)
		}
		if len(suggestions) != 2 {
			t.Errorf("expected related results, got %v", suggestions)
		}
	})

	t.Run("empty related falls back to channel search", func(t *testing.T) {
		users := store.New(apptest.SetupTestDB(t))
		var gotQuery string
		mock := &apptest.MockResolver{
			SearchFn: func(ctx context.Context, query string) ([]models.Track, error) {
				gotQuery = query
				return []models.Track{{ID: "c1"}}, nil
			},
		}
		s := newTestService(t, mock, Options{Store: users})

		if err := users.RecordPlay("alice", models.Track{ID: "v1", Channel: "Jazz"}); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}

		suggestions, _, err := s.Suggestions(context.Background(), "alice")
		if err != nil {
			t.Fatalf("suggestions failed: %v", err)
		}
		if gotQuery != "Jazz music" {
			t.Errorf("expected channel fallback query, got %q", gotQuery)
		}
		if len(suggestions) != 1 {
			t.Errorf("expected fallback results, got %v", suggestions)
		}
	})
}

func TestSnapshot(t *testing.T) {
	mock := &apptest.MockResolver{}
	s := newTestService(t, mock, Options{})

	for i := 0; i < 3; i++ {
		if _, err := s.Resolve(context.Background(), fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
	}
	if _, err := s.Related(context.Background(), "v0"); err != nil {
		t.Fatalf("related failed: %v", err)
	}

	stats := s.Snapshot()
	if stats.AudioURLCache != 3 {
		t.Errorf("expected 3 audio entries, got %d", stats.AudioURLCache)
	}
	if stats.TrackInfoCache != 3 {
		t.Errorf("expected 3 track entries, got %d", stats.TrackInfoCache)
	}
	if stats.RelatedCache != 1 {
		t.Errorf("expected 1 related entry, got %d", stats.RelatedCache)
	}
	if len(stats.InFlight) != 0 {
		t.Errorf("expected no in-flight keys, got %v", stats.InFlight)
	}
}
