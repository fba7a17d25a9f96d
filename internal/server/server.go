package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"camcam/internal/api"
	"camcam/internal/config"
	"camcam/internal/ophim"
	"camcam/internal/router"
	"camcam/internal/session"
	"camcam/internal/storage"
)

type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	httpServer *http.Server
	router     *chi.Mux
	storage    *storage.SQLiteStorage
	sessions   *session.Store
	handler    *api.Handler
}

func New(cfg *config.Config, logger zerolog.Logger, client *ophim.Client, store *storage.SQLiteStorage, sessions *session.Store) (*Server, error) {
	handler, err := api.NewHandler(cfg, client, store, logger)
	if err != nil {
		return nil, err
	}
	handler.SetSessions(sessions)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		storage:  store,
		sessions: sessions,
		handler:  handler,
	}

	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(CORSMiddleware)
	s.router.Use(LoggingMiddleware(s.logger))
}

func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Get("/api/v1/health", h.Health)
	s.router.Get("/poster", h.Poster)

	s.router.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(s.sessions, s.cfg.Sessions.CookieName, s.logger))

		r.Get("/", h.Home)
		r.Get("/route", h.Route)
		r.Get("/the-loai/{arg}", h.FilteredPage(router.KindGenre))
		r.Get("/quoc-gia/{arg}", h.FilteredPage(router.KindCountry))
		r.Get("/tim-kiem/{arg}", h.FilteredPage(router.KindSearch))
		r.Get("/dien-vien/{arg}", h.FilteredPage(router.KindActor))
		r.Get("/phim/{slug}", h.Detail)

		r.Route("/player", func(r chi.Router) {
			r.Get("/", h.CurrentPlayer)
			r.Post("/open", h.OpenPlayer)
			r.Post("/server", h.SwitchServer)
			r.Post("/episode", h.SwitchEpisode)
			r.Post("/mode", h.SetPlayerMode)
			r.Post("/fallback", h.FallbackPlayer)
			r.Post("/close", h.ClosePlayer)
			r.Get("/stream.m3u8", h.StreamManifest)
		})

		r.Route("/search", func(r chi.Router) {
			r.Get("/suggest", h.Suggest)
			r.Get("/suggest/more", h.SuggestMore)
			r.Post("/dismiss", h.DismissSuggestions)
			r.Get("/actors", h.SuggestActors)
		})

		// Watch history, keyed by session
		r.Route("/api/v1/playback", func(r chi.Router) {
			r.Get("/continue", h.GetContinueWatching)
			r.Post("/{slug}/position", h.SavePlaybackPosition)
			r.Get("/{slug}/position", h.GetPlaybackPosition)
			r.Delete("/{slug}", h.DeletePlayback)
		})
	})
}

// Handler exposes the routed handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.httpServer.Addr).
		Msg("starting server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
