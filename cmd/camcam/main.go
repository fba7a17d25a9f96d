package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"camcam/internal/api"
	"camcam/internal/config"
	"camcam/internal/ophim"
	"camcam/internal/player"
	"camcam/internal/search"
	"camcam/internal/server"
	"camcam/internal/session"
	"camcam/internal/storage"
	"camcam/internal/streaming"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	logger.Info().
		Str("version", api.Version).
		Str("upstream", cfg.Upstream.BaseURL).
		Msg("starting camcam server")

	// Initialize storage
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	defer store.Close()

	client := ophim.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Endpoints, ophim.NewHTTPClient(cfg.Upstream.Timeout), logger)

	// Adaptive streams share one manifest client
	manifestClient := ophim.NewHTTPClient(cfg.Player.ManifestTimeout)
	streamOpts := streaming.Options{
		MaxNetworkRetries:  cfg.Player.NetworkRetries,
		MaxMediaRecoveries: cfg.Player.MediaRecoveries,
		Backoff:            cfg.Player.RetryBackoff,
	}

	sessions := session.NewStore(cfg.Sessions.Capacity, cfg.Sessions.TTL, session.Deps{
		Search: client,
		NewStream: func() player.Stream {
			return streaming.NewHLSStream(manifestClient, streamOpts, logger)
		},
		PlayerOptions: player.Options{UpcomingCeiling: cfg.Player.UpcomingCeiling},
		SearchOptions: search.Options{
			Debounce: cfg.Search.Debounce,
			MinQuery: cfg.Search.MinQuery,
			PageSize: cfg.Search.PageSize,
			Limit:    cfg.Search.SuggestionLimit,
		},
		ActorLimit: cfg.Search.PageSize,
		Observer: func(viewerID string) player.Observer {
			return api.RecordOpens(store, viewerID, logger)
		},
		Logger: logger,
	}, logger)

	// Create server
	srv, err := server.New(cfg, logger, client, store, sessions)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create server")
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info().Msg("received shutdown signal")

		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
		}
	}()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	sessions.Purge()
	logger.Info().Msg("server stopped")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Logger()
	}

	return zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
