package api

import (
	"context"

	"github.com/rs/zerolog"

	"camcam/internal/player"
	"camcam/internal/storage"
)

// RecordOpens returns a player observer that upserts a watch history row
// for viewerID on every successful open.
func RecordOpens(store *storage.SQLiteStorage, viewerID string, logger zerolog.Logger) player.Observer {
	return func(ctx context.Context, e player.Event) {
		entry := &storage.WatchEntry{
			ViewerID:    viewerID,
			Slug:        e.Detail.Slug,
			Name:        e.Detail.Name,
			Poster:      e.Detail.Poster(),
			Server:      e.Server,
			Episode:     e.Episode,
			EpisodeName: e.EpisodeInfo.Name,
		}
		if err := store.RecordOpen(entry); err != nil {
			logger.Warn().Err(err).Str("slug", entry.Slug).Msg("failed to record watch history")
		}
	}
}
