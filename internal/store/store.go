// package store persists per-user state: play history, likes, playlists,
// and the per-user search cache.
//
// Each identity owns one JSON document in SQLite. Every operation follows
// load-mutate-save on the full document; a per-identity mutex serializes
// concurrent writers for the same identity. There is no cross-identity
// locking.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/I-No-oNe/TuneX/internal/models"
)

// Store is the per-user record repository.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a [Store] backed by the given database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db, locks: make(map[string]*sync.Mutex)}
}

// NormalizeQuery lowercases and trims a search query; normalized queries
// key the per-user search cache.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func (s *Store) identityLock(identity string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identity] = l
	}
	return l
}

// Load retrieves the record for identity, returning a default-empty record
// for identities never seen before.
func (s *Store) Load(identity string) (*models.UserRecord, error) {
	var document string
	err := s.db.QueryRow("SELECT document FROM user_records WHERE identity = ?", identity).Scan(&document)
	if err == sql.ErrNoRows {
		return models.NewUserRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user record: %w", err)
	}

	record := models.NewUserRecord()
	if err := json.Unmarshal([]byte(document), record); err != nil {
		return nil, fmt.Errorf("failed to decode user record: %w", err)
	}

	return record, nil
}

func (s *Store) save(identity string, record *models.UserRecord) error {
	document, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode user record: %w", err)
	}

	query := `
		INSERT INTO user_records (identity, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`

	if _, err := s.db.Exec(query, identity, string(document), time.Now()); err != nil {
		return fmt.Errorf("failed to save user record: %w", err)
	}

	return nil
}

// Update runs one load-mutate-save cycle for identity under its lock.
// If mutate returns an error nothing is written.
func (s *Store) Update(identity string, mutate func(*models.UserRecord) error) error {
	l := s.identityLock(identity)
	l.Lock()
	defer l.Unlock()

	record, err := s.Load(identity)
	if err != nil {
		return err
	}

	if err := mutate(record); err != nil {
		return err
	}

	return s.save(identity, record)
}

// RecordPlay moves the track to the front of identity's history.
func (s *Store) RecordPlay(identity string, track models.Track) error {
	return s.Update(identity, func(r *models.UserRecord) error {
		r.RecordPlay(track)
		return nil
	})
}

// History returns up to limit entries of identity's play history,
// most recent first. A non-positive limit returns the full history.
func (s *Store) History(identity string, limit int) ([]models.Track, error) {
	record, err := s.Load(identity)
	if err != nil {
		return nil, err
	}

	history := record.History
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// Like adds the id to the front of identity's liked list. Idempotent.
func (s *Store) Like(identity, id string) error {
	return s.Update(identity, func(r *models.UserRecord) error {
		r.Like(id)
		return nil
	})
}

// Unlike removes the id from identity's liked list if present.
func (s *Store) Unlike(identity, id string) error {
	return s.Update(identity, func(r *models.UserRecord) error {
		r.Unlike(id)
		return nil
	})
}

// Liked returns identity's liked ids, most recently liked first.
func (s *Store) Liked(identity string) ([]string, error) {
	record, err := s.Load(identity)
	if err != nil {
		return nil, err
	}
	return record.Liked, nil
}

// CachedSearch returns the cached results for a normalized query when the
// entry is still within ttl.
func (s *Store) CachedSearch(identity, query string, ttl time.Duration) ([]models.Track, bool, error) {
	record, err := s.Load(identity)
	if err != nil {
		return nil, false, err
	}

	results, ok := record.CachedSearch(query, ttl, time.Now())
	return results, ok, nil
}

// StoreSearch persists a search result set under the normalized query and
// applies the search cache cap.
func (s *Store) StoreSearch(identity, query string, results []models.Track) error {
	return s.Update(identity, func(r *models.UserRecord) error {
		r.CacheSearch(query, results, time.Now())
		return nil
	})
}
