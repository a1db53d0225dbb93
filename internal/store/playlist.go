package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/shared"
)

// CreatePlaylist creates an empty named playlist and returns its generated id.
func (s *Store) CreatePlaylist(identity, name string) (string, error) {
	id := shared.GenerateID()

	err := s.Update(identity, func(r *models.UserRecord) error {
		if r.Playlists == nil {
			r.Playlists = map[string]*models.Playlist{}
		}
		r.Playlists[id] = &models.Playlist{
			Name:      name,
			Tracks:    []models.Track{},
			CreatedAt: time.Now(),
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// ListPlaylists returns metadata summaries for identity's playlists, newest
// first. The thumbnail is taken from each playlist's first track.
func (s *Store) ListPlaylists(identity string) ([]models.PlaylistSummary, error) {
	record, err := s.Load(identity)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.PlaylistSummary, 0, len(record.Playlists))
	for id, pl := range record.Playlists {
		summary := models.PlaylistSummary{
			ID:        id,
			Name:      pl.Name,
			Count:     len(pl.Tracks),
			CreatedAt: pl.CreatedAt,
		}
		if len(pl.Tracks) > 0 {
			summary.Thumbnail = pl.Tracks[0].Thumbnail
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})

	return summaries, nil
}

// GetPlaylist returns identity's playlist with the given id.
func (s *Store) GetPlaylist(identity, playlistID string) (*models.Playlist, error) {
	record, err := s.Load(identity)
	if err != nil {
		return nil, err
	}

	pl, ok := record.Playlists[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
	}
	return pl, nil
}

// RenamePlaylist sets a new name on an existing playlist.
func (s *Store) RenamePlaylist(identity, playlistID, name string) error {
	return s.Update(identity, func(r *models.UserRecord) error {
		pl, ok := r.Playlists[playlistID]
		if !ok {
			return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
		}
		pl.Name = name
		return nil
	})
}

// DeletePlaylist removes a playlist entirely.
func (s *Store) DeletePlaylist(identity, playlistID string) error {
	return s.Update(identity, func(r *models.UserRecord) error {
		if _, ok := r.Playlists[playlistID]; !ok {
			return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
		}
		delete(r.Playlists, playlistID)
		return nil
	})
}

// AddPlaylistTrack appends a track to the playlist. Adding a track whose id
// is already a member is a no-op. Returns the resulting track count.
func (s *Store) AddPlaylistTrack(identity, playlistID string, track models.Track) (int, error) {
	count := 0
	err := s.Update(identity, func(r *models.UserRecord) error {
		pl, ok := r.Playlists[playlistID]
		if !ok {
			return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
		}
		if !pl.Contains(track.ID) {
			pl.Tracks = append(pl.Tracks, track)
		}
		count = len(pl.Tracks)
		return nil
	})
	return count, err
}

// RemovePlaylistTrack removes the track with the given id from the
// playlist. Returns the resulting track count.
func (s *Store) RemovePlaylistTrack(identity, playlistID, trackID string) (int, error) {
	count := 0
	err := s.Update(identity, func(r *models.UserRecord) error {
		pl, ok := r.Playlists[playlistID]
		if !ok {
			return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
		}
		kept := pl.Tracks[:0]
		for _, t := range pl.Tracks {
			if t.ID != trackID {
				kept = append(kept, t)
			}
		}
		pl.Tracks = kept
		count = len(pl.Tracks)
		return nil
	})
	return count, err
}

// ReorderPlaylist replaces the playlist's track order with the given id
// sequence. Ids that are not members are dropped, and members omitted from
// the sequence are removed from the playlist. Returns the resulting count.
func (s *Store) ReorderPlaylist(identity, playlistID string, trackIDs []string) (int, error) {
	count := 0
	err := s.Update(identity, func(r *models.UserRecord) error {
		pl, ok := r.Playlists[playlistID]
		if !ok {
			return fmt.Errorf("%w: playlist %s", shared.ErrNotFound, playlistID)
		}

		byID := make(map[string]models.Track, len(pl.Tracks))
		for _, t := range pl.Tracks {
			byID[t.ID] = t
		}

		reordered := make([]models.Track, 0, len(trackIDs))
		for _, id := range trackIDs {
			if t, ok := byID[id]; ok {
				reordered = append(reordered, t)
				delete(byID, id)
			}
		}

		pl.Tracks = reordered
		count = len(pl.Tracks)
		return nil
	})
	return count, err
}
