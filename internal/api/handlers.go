package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"camcam/internal/cache"
	"camcam/internal/config"
	"camcam/internal/detail"
	"camcam/internal/movie"
	"camcam/internal/ophim"
	"camcam/internal/router"
	"camcam/internal/session"
	"camcam/internal/storage"
	"camcam/internal/streaming"
	"camcam/internal/view"
)

const Version = "0.1.0"

type Handler struct {
	cfg      *config.Config
	client   *ophim.Client
	storage  *storage.SQLiteStorage
	logger   zerolog.Logger
	router   *router.Router
	detail   *detail.Service
	renderer *view.Renderer
	streamer *streaming.Handler
	images   movie.ImageResolver
	posters  *cache.LRUCache
	fetcher  *http.Client
	sessions SessionCounter
}

type SessionCounter interface {
	Len() int
}

func NewHandler(cfg *config.Config, client *ophim.Client, store *storage.SQLiteStorage, logger zerolog.Logger) (*Handler, error) {
	images := movie.ImageResolver{
		Host:        cfg.Images.Host,
		UploadsPath: cfg.Images.UploadsPath,
		Placeholder: cfg.Images.Placeholder,
	}

	renderer, err := view.NewRenderer(images, cfg.Images.Proxy)
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:     cfg,
		client:  client,
		storage: store,
		logger:  logger,
		router: router.New(client, router.Config{
			PageSize: cfg.Catalog.PageSize,
			MaxPages: cfg.Catalog.MaxPages,
		}, logger),
		detail:   detail.NewService(client, images, cfg.Player.UpcomingCeiling, logger),
		renderer: renderer,
		streamer: streaming.NewHandler(cfg.Player.ManifestTimeout),
		images:   images,
		posters:  cache.NewLRUCache(cfg.Images.CacheCapacity, cfg.Images.CacheMaxSize),
		fetcher:  ophim.NewHTTPClient(posterTimeout),
	}, nil
}

const posterTimeout = 15 * time.Second

func (h *Handler) SetSessions(sessions SessionCounter) {
	h.sessions = sessions
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	if h.sessions != nil {
		resp.Sessions = h.sessions.Len()
	}
	c := &resp.PosterCache
	c.Entries, c.Bytes, c.Hits, c.Misses = h.posters.Stats()
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// render buffers the template so a failure can still answer 500.
func (h *Handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "NO_SESSION", "Session unavailable")
	}
	return sess, ok
}

// Playback handlers. The session id is the viewer id.

func (h *Handler) SavePlaybackPosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	var req SavePlaybackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	if req.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Duration must be positive")
		return
	}
	req.Position = min(max(req.Position, 0), req.Duration)

	position, duration := int64(req.Position), int64(req.Duration)
	progress := req.Position / req.Duration

	state := &storage.PlaybackState{
		ViewerID: sess.ID,
		Slug:     slug,
		Position: position,
		Duration: duration,
		Progress: progress,
	}

	found, err := h.storage.SavePlaybackState(state)
	if err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to save playback state")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save position")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "ENTRY_NOT_FOUND", "Movie was never opened in the player")
		return
	}

	h.logger.Debug().
		Str("session", sess.ID).
		Str("slug", slug).
		Int64("position", position).
		Float64("progress", progress).
		Msg("playback position saved")

	writeJSON(w, http.StatusOK, PlaybackResponse{
		Slug:     slug,
		Position: position,
		Duration: duration,
		Progress: progress,
	})
}

func (h *Handler) GetPlaybackPosition(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	state, err := h.storage.GetPlaybackState(sess.ID, slug)
	if err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to get playback state")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get position")
		return
	}

	if state == nil {
		writeJSON(w, http.StatusOK, PlaybackResponse{Slug: slug})
		return
	}

	writeJSON(w, http.StatusOK, PlaybackResponse{
		Slug:     slug,
		Position: state.Position,
		Duration: state.Duration,
		Progress: state.Progress,
	})
}

func (h *Handler) DeletePlayback(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	if err := h.storage.DeleteWatchEntry(sess.ID, slug); err != nil {
		h.logger.Error().Err(err).Str("slug", slug).Msg("failed to delete watch entry")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetContinueWatching(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	items, err := h.storage.GetContinueWatching(sess.ID, h.cfg.Catalog.HomeLimit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to get continue watching")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get continue watching")
		return
	}

	if items == nil {
		items = []storage.WatchEntry{}
	}

	writeJSON(w, http.StatusOK, ContinueWatchingResponse{Items: items})
}
