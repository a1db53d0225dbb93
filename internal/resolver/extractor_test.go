package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/shared"
)

func newTestExtractor(t *testing.T, handler http.HandlerFunc) *Extractor {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewExtractor(shared.UpstreamConfig{BaseURL: srv.URL}, nil)
}

func TestExtractorResolve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/extract/v1" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"stream_url": "https://audio.example/v1",
				"track": map[string]any{
					"id":      "v1",
					"title":   "Song",
					"channel": "Jazz",
				},
			})
		})

		res, err := e.Resolve(context.Background(), "v1")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if res.StreamURL != "https://audio.example/v1" {
			t.Errorf("unexpected stream URL: %s", res.StreamURL)
		}
		if res.Track.Title != "Song" || res.Track.Channel != "Jazz" {
			t.Errorf("unexpected track: %+v", res.Track)
		}
	})

	t.Run("missing stream URL", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"track": map[string]any{"id": "v1"}})
		})

		_, err := e.Resolve(context.Background(), "v1")
		if !errors.Is(err, shared.ErrNoAudioFormat) {
			t.Errorf("expected ErrNoAudioFormat, got %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"detail": "extraction blew up"})
		})

		_, err := e.Resolve(context.Background(), "v1")
		if !errors.Is(err, shared.ErrResolutionFailed) {
			t.Fatalf("expected ErrResolutionFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "extraction blew up") {
			t.Errorf("expected upstream detail in error, got %v", err)
		}
	})

	t.Run("fills missing track id and truncates description", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"stream_url": "https://audio.example/v1",
				"track": map[string]any{
					"description": strings.Repeat("x", 400),
				},
			})
		})

		res, err := e.Resolve(context.Background(), "v1")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if res.Track.ID != "v1" {
			t.Errorf("expected track id fallback, got %q", res.Track.ID)
		}
		if got := utf8.RuneCountInString(res.Track.Description); got != 300 {
			t.Errorf("expected description truncated to 300 characters, got %d", got)
		}
	})

	t.Run("truncates multi-byte descriptions on a rune boundary", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"stream_url": "https://audio.example/v1",
				"track": map[string]any{
					"id":          "v1",
					"description": strings.Repeat("日本語", 150),
				},
			})
		})

		res, err := e.Resolve(context.Background(), "v1")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if !utf8.ValidString(res.Track.Description) {
			t.Error("truncated description is not valid UTF-8")
		}
		if got := utf8.RuneCountInString(res.Track.Description); got != 300 {
			t.Errorf("expected 300 characters, got %d", got)
		}
	})
}

func TestExtractorSearch(t *testing.T) {
	e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "miles davis" {
			t.Errorf("unexpected query: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []models.Track{
				{ID: "v1", Title: "So What"},
				{Title: "no id, dropped"},
				{ID: "v2", Title: "Blue in Green"},
			},
		})
	})

	results, err := e.Search(context.Background(), "miles davis")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "v1" || results[1].ID != "v2" {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestExtractorRelated(t *testing.T) {
	t.Run("excludes seed id", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"related": []models.Track{
					{ID: "seed"},
					{ID: "v1"},
					{ID: "v2"},
				},
			})
		})

		related, err := e.Related(context.Background(), "seed")
		if err != nil {
			t.Fatalf("related failed: %v", err)
		}
		if len(related) != 2 {
			t.Fatalf("expected 2 related tracks, got %d", len(related))
		}
		for _, tr := range related {
			if tr.ID == "seed" {
				t.Error("seed id should be excluded")
			}
		}
	})

	t.Run("caps the list", func(t *testing.T) {
		tracks := make([]models.Track, 20)
		for i := range tracks {
			tracks[i] = models.Track{ID: string(rune('a' + i))}
		}
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"related": tracks})
		})

		related, err := e.Related(context.Background(), "seed")
		if err != nil {
			t.Fatalf("related failed: %v", err)
		}
		if len(related) != 12 {
			t.Errorf("expected 12 related tracks, got %d", len(related))
		}
	})

	t.Run("empty list is legitimate", func(t *testing.T) {
		e := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"related": []models.Track{}})
		})

		related, err := e.Related(context.Background(), "seed")
		if err != nil {
			t.Fatalf("related failed: %v", err)
		}
		if len(related) != 0 {
			t.Errorf("expected empty list, got %v", related)
		}
	})
}
