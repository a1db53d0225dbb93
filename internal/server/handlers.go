package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/shared"
	"github.com/I-No-oNe/TuneX/internal/store"
	"github.com/I-No-oNe/TuneX/internal/stream"
)

// API bundles the handlers for the gateway's JSON routes.
type API struct {
	streams *stream.Service
	users   *store.Store
	logger  *log.Logger
}

// NewAPI creates the API handler set.
func NewAPI(streams *stream.Service, users *store.Store, logger *log.Logger) *API {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &API{streams: streams, users: users, logger: logger}
}

// Register attaches every route to the router.
func (a *API) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, "/healthz", a.health)
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	r.HandleFunc(http.MethodGet, "/api/search", a.search)
	r.HandleFunc(http.MethodGet, "/api/stream/{id}", a.stream)
	r.HandleFunc(http.MethodGet, "/api/track/{id}", a.track)
	r.HandleFunc(http.MethodGet, "/api/related/{id}", a.related)
	r.HandleFunc(http.MethodGet, "/api/suggestions", a.suggestions)
	r.HandleFunc(http.MethodGet, "/api/history", a.history)
	r.HandleFunc(http.MethodGet, "/api/me", a.me)
	r.HandleFunc(http.MethodGet, "/api/cache/stats", a.cacheStats)

	r.HandleFunc(http.MethodPost, "/api/like/{id}", a.like)
	r.HandleFunc(http.MethodDelete, "/api/like/{id}", a.unlike)
	r.HandleFunc(http.MethodGet, "/api/liked", a.liked)

	r.HandleFunc(http.MethodGet, "/api/playlists", a.listPlaylists)
	r.HandleFunc(http.MethodPost, "/api/playlists", a.createPlaylist)
	r.HandleFunc(http.MethodGet, "/api/playlists/{id}", a.getPlaylist)
	r.HandleFunc(http.MethodPatch, "/api/playlists/{id}", a.renamePlaylist)
	r.HandleFunc(http.MethodDelete, "/api/playlists/{id}", a.deletePlaylist)
	r.HandleFunc(http.MethodPost, "/api/playlists/{id}/tracks", a.addPlaylistTrack)
	r.HandleFunc(http.MethodDelete, "/api/playlists/{id}/tracks/{trackID}", a.removePlaylistTrack)
	r.HandleFunc(http.MethodPut, "/api/playlists/{id}/tracks", a.reorderPlaylist)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("failed to encode response", "err", err)
	}
}

// writeError maps the error taxonomy to HTTP status codes.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shared.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, shared.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		status = http.StatusBadRequest
	}

	a.writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		a.writeError(w, shared.ErrMissingArgument)
		return
	}

	results, err := a.streams.Search(r.Context(), Identity(r), query)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (a *API) stream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var hints []string
	if nextIDs := r.URL.Query().Get("next_ids"); nextIDs != "" {
		for _, hint := range strings.Split(nextIDs, ",") {
			if hint != "" {
				hints = append(hints, hint)
			}
		}
	}

	res, err := a.streams.Stream(r.Context(), Identity(r), id, hints)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"stream_url": res.StreamURL,
		"track":      res.Track,
	})
}

func (a *API) track(w http.ResponseWriter, r *http.Request) {
	track, err := a.streams.TrackInfo(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, track)
}

func (a *API) related(w http.ResponseWriter, r *http.Request) {
	related, err := a.streams.Related(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"related": related})
}

func (a *API) suggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, basedOn, err := a.streams.Suggestions(r.Context(), Identity(r))
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"based_on":    basedOn,
	})
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	history, err := a.users.History(Identity(r), 50)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"username": Identity(r)})
}

func (a *API) cacheStats(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, a.streams.Snapshot())
}

func (a *API) like(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Like(Identity(r), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"liked": true})
}

func (a *API) unlike(w http.ResponseWriter, r *http.Request) {
	if err := a.users.Unlike(Identity(r), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"liked": false})
}

func (a *API) liked(w http.ResponseWriter, r *http.Request) {
	liked, err := a.users.Liked(Identity(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"liked": liked})
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := a.users.ListPlaylists(Identity(r))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		a.writeError(w, shared.ErrInvalidInput)
		return
	}

	id, err := a.users.CreatePlaylist(Identity(r), body.Name)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": body.Name})
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	pl, err := a.users.GetPlaylist(Identity(r), id)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"id":         id,
		"name":       pl.Name,
		"tracks":     pl.Tracks,
		"created_at": pl.CreatedAt,
	})
}

func (a *API) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		a.writeError(w, shared.ErrInvalidInput)
		return
	}

	id := r.PathValue("id")
	if err := a.users.RenamePlaylist(Identity(r), id, body.Name); err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"id": id, "name": body.Name})
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := a.users.DeletePlaylist(Identity(r), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (a *API) addPlaylistTrack(w http.ResponseWriter, r *http.Request) {
	var track models.Track
	if err := json.NewDecoder(r.Body).Decode(&track); err != nil || track.ID == "" {
		a.writeError(w, shared.ErrInvalidInput)
		return
	}

	count, err := a.users.AddPlaylistTrack(Identity(r), r.PathValue("id"), track)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (a *API) removePlaylistTrack(w http.ResponseWriter, r *http.Request) {
	count, err := a.users.RemovePlaylistTrack(Identity(r), r.PathValue("id"), r.PathValue("trackID"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (a *API) reorderPlaylist(w http.ResponseWriter, r *http.Request) {
	var trackIDs []string
	if err := json.NewDecoder(r.Body).Decode(&trackIDs); err != nil {
		a.writeError(w, shared.ErrInvalidInput)
		return
	}

	count, err := a.users.ReorderPlaylist(Identity(r), r.PathValue("id"), trackIDs)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
