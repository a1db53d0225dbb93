package models

import (
	"fmt"
	"testing"
	"time"
)

func TestUserRecordHistory(t *testing.T) {
	t.Run("dedup moves replayed track to front", func(t *testing.T) {
		record := NewUserRecord()
		for _, id := range []string{"A", "B", "A", "C"} {
			record.RecordPlay(Track{ID: id})
		}

		want := []string{"C", "A", "B"}
		if len(record.History) != len(want) {
			t.Fatalf("expected %d history entries, got %d", len(want), len(record.History))
		}
		for i, id := range want {
			if record.History[i].ID != id {
				t.Errorf("history[%d]: expected %s, got %s", i, id, record.History[i].ID)
			}
		}
	})

	t.Run("cap evicts oldest", func(t *testing.T) {
		record := NewUserRecord()
		for i := 0; i <= HistoryCap; i++ {
			record.RecordPlay(Track{ID: fmt.Sprintf("v%d", i)})
		}

		if len(record.History) != HistoryCap {
			t.Fatalf("expected %d history entries, got %d", HistoryCap, len(record.History))
		}
		if record.History[0].ID != fmt.Sprintf("v%d", HistoryCap) {
			t.Errorf("expected most recent play at front, got %s", record.History[0].ID)
		}
		for _, track := range record.History {
			if track.ID == "v0" {
				t.Error("oldest entry should have been evicted")
			}
		}
	})
}

func TestUserRecordLiked(t *testing.T) {
	t.Run("like is idempotent and prepends", func(t *testing.T) {
		record := NewUserRecord()
		record.Like("v1")
		record.Like("v2")
		record.Like("v1")

		if len(record.Liked) != 2 {
			t.Fatalf("expected 2 liked ids, got %d", len(record.Liked))
		}
		if record.Liked[0] != "v2" {
			t.Errorf("expected v2 at front, got %s", record.Liked[0])
		}
	})

	t.Run("unlike removes if present", func(t *testing.T) {
		record := NewUserRecord()
		record.Like("v1")
		record.Unlike("v1")
		record.Unlike("v1")

		if len(record.Liked) != 0 {
			t.Errorf("expected empty liked list, got %v", record.Liked)
		}
	})

	t.Run("cap", func(t *testing.T) {
		record := NewUserRecord()
		for i := 0; i <= LikedCap; i++ {
			record.Like(fmt.Sprintf("v%d", i))
		}

		if len(record.Liked) != LikedCap {
			t.Errorf("expected %d liked ids, got %d", LikedCap, len(record.Liked))
		}
	})
}

func TestUserRecordSearchCache(t *testing.T) {
	t.Run("fresh entry is returned", func(t *testing.T) {
		record := NewUserRecord()
		now := time.Now()
		record.CacheSearch("jazz", []Track{{ID: "v1"}}, now)

		results, ok := record.CachedSearch("jazz", 30*time.Minute, now.Add(time.Minute))
		if !ok {
			t.Fatal("expected cache hit")
		}
		if len(results) != 1 || results[0].ID != "v1" {
			t.Errorf("unexpected results: %v", results)
		}
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		record := NewUserRecord()
		now := time.Now()
		record.CacheSearch("jazz", []Track{{ID: "v1"}}, now)

		if _, ok := record.CachedSearch("jazz", 30*time.Minute, now.Add(31*time.Minute)); ok {
			t.Error("expected cache miss after TTL")
		}
	})

	t.Run("cap evicts earliest inserted", func(t *testing.T) {
		record := NewUserRecord()
		base := time.Now()
		for i := 0; i <= SearchCacheCap; i++ {
			record.CacheSearch(fmt.Sprintf("query %d", i), nil, base.Add(time.Duration(i)*time.Second))
		}

		if len(record.SearchCache) != SearchCacheCap {
			t.Fatalf("expected %d entries, got %d", SearchCacheCap, len(record.SearchCache))
		}
		if _, ok := record.SearchCache["query 0"]; ok {
			t.Error("earliest-inserted query should have been evicted")
		}
		if _, ok := record.SearchCache[fmt.Sprintf("query %d", SearchCacheCap)]; !ok {
			t.Error("latest query should be present")
		}
	})
}

func TestPlaylistContains(t *testing.T) {
	pl := Playlist{Tracks: []Track{{ID: "a"}, {ID: "b"}}}

	if !pl.Contains("a") {
		t.Error("expected playlist to contain a")
	}
	if pl.Contains("z") {
		t.Error("did not expect playlist to contain z")
	}
}
