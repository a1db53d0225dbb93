package resolver

import (
	"context"

	"github.com/I-No-oNe/TuneX/internal/models"
)

// Resolution is the outcome of resolving a media id: a time-limited audio
// URL plus the track metadata extracted alongside it.
type Resolution struct {
	StreamURL string       `json:"stream_url"`
	Track     models.Track `json:"track"`
}

// Resolver is the contract for the upstream extractor.
type Resolver interface {
	// Resolve turns a media id into a playable audio URL and metadata.
	// Fails with [shared.ErrResolutionFailed] when no playable form exists
	// or the upstream call fails.
	Resolve(ctx context.Context, id string) (*Resolution, error)

	// Search maps a free-text query to a ranked list of tracks.
	Search(ctx context.Context, query string) ([]models.Track, error)

	// Related lists tracks related to the given id, excluding the id
	// itself. An empty list is a legitimate result.
	Related(ctx context.Context, id string) ([]models.Track, error)
}
