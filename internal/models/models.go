package models

import "time"

// Caps applied by the per-user store. Exceeding entries are evicted
// oldest-first on every write.
const (
	HistoryCap     = 200
	SearchCacheCap = 50
	LikedCap       = 500
)

// Track represents a single playable item. Identity is the ID field only;
// everything else is descriptive metadata from the upstream extractor.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Duration    int    `json:"duration"`
	Thumbnail   string `json:"thumbnail"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SearchEntry is one cached search result set inside a UserRecord.
type SearchEntry struct {
	Results    []Track   `json:"results"`
	InsertedAt time.Time `json:"inserted_at"`
}

// Playlist is a named ordered track collection. Tracks are unique by id and
// keep insertion order as play order.
type Playlist struct {
	Name      string    `json:"name"`
	Tracks    []Track   `json:"tracks"`
	CreatedAt time.Time `json:"created_at"`
}

// Contains reports whether the playlist already holds a track with the given id.
func (p *Playlist) Contains(id string) bool {
	for _, t := range p.Tracks {
		if t.ID == id {
			return true
		}
	}
	return false
}

// PlaylistSummary is the metadata-only view returned by playlist listings.
type PlaylistSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRecord is the complete persisted mutable state for one identity.
// It is loaded, mutated, and saved as a whole on every store operation.
type UserRecord struct {
	History     []Track                `json:"history"`
	SearchCache map[string]SearchEntry `json:"search_cache"`
	Liked       []string               `json:"liked"`
	Playlists   map[string]*Playlist   `json:"playlists"`
}

// NewUserRecord returns an empty record, the state every identity starts with.
func NewUserRecord() *UserRecord {
	return &UserRecord{
		History:     []Track{},
		SearchCache: map[string]SearchEntry{},
		Liked:       []string{},
		Playlists:   map[string]*Playlist{},
	}
}

// RecordPlay moves the track to the front of the history, removing any
// previous entry with the same id, and applies the history cap.
func (u *UserRecord) RecordPlay(track Track) {
	kept := make([]Track, 0, len(u.History)+1)
	kept = append(kept, track)
	for _, t := range u.History {
		if t.ID != track.ID {
			kept = append(kept, t)
		}
	}
	if len(kept) > HistoryCap {
		kept = kept[:HistoryCap]
	}
	u.History = kept
}

// Like inserts the id at the front of the liked list if absent and applies
// the liked cap. Liking an already-liked id is a no-op.
func (u *UserRecord) Like(id string) {
	for _, v := range u.Liked {
		if v == id {
			return
		}
	}
	u.Liked = append([]string{id}, u.Liked...)
	if len(u.Liked) > LikedCap {
		u.Liked = u.Liked[:LikedCap]
	}
}

// Unlike removes the id from the liked list if present.
func (u *UserRecord) Unlike(id string) {
	kept := u.Liked[:0]
	for _, v := range u.Liked {
		if v != id {
			kept = append(kept, v)
		}
	}
	u.Liked = kept
}

// CacheSearch stores a result set under the normalized query and evicts the
// earliest-inserted entries once the cap is exceeded. Eviction is by
// insertion recency only, not by access.
func (u *UserRecord) CacheSearch(query string, results []Track, now time.Time) {
	if u.SearchCache == nil {
		u.SearchCache = map[string]SearchEntry{}
	}
	u.SearchCache[query] = SearchEntry{Results: results, InsertedAt: now}

	for len(u.SearchCache) > SearchCacheCap {
		oldest := ""
		var oldestAt time.Time
		for k, e := range u.SearchCache {
			if oldest == "" || e.InsertedAt.Before(oldestAt) {
				oldest = k
				oldestAt = e.InsertedAt
			}
		}
		delete(u.SearchCache, oldest)
	}
}

// CachedSearch returns the cached results for the normalized query if the
// entry is still fresh at now given the ttl.
func (u *UserRecord) CachedSearch(query string, ttl time.Duration, now time.Time) ([]Track, bool) {
	entry, ok := u.SearchCache[query]
	if !ok {
		return nil, false
	}
	if now.Sub(entry.InsertedAt) >= ttl {
		return nil, false
	}
	return entry.Results, true
}
