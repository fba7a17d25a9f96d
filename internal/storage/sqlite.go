package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStorage{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStorage) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS watch_history (
		viewer_id TEXT NOT NULL,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		poster TEXT DEFAULT '',
		server INTEGER DEFAULT 0,
		episode INTEGER DEFAULT 0,
		episode_name TEXT DEFAULT '',
		position INTEGER DEFAULT 0,
		duration INTEGER DEFAULT 0,
		progress REAL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (viewer_id, slug)
	);

	CREATE INDEX IF NOT EXISTS idx_watch_history_updated ON watch_history(viewer_id, updated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// RecordOpen saves the episode a viewer just opened. Switching to another
// episode resets the saved position.
func (s *SQLiteStorage) RecordOpen(e *WatchEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO watch_history (viewer_id, slug, name, poster, server, episode, episode_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(viewer_id, slug) DO UPDATE SET
			name = excluded.name,
			poster = excluded.poster,
			server = excluded.server,
			episode = excluded.episode,
			episode_name = excluded.episode_name,
			position = CASE WHEN watch_history.episode = excluded.episode THEN watch_history.position ELSE 0 END,
			duration = CASE WHEN watch_history.episode = excluded.episode THEN watch_history.duration ELSE 0 END,
			progress = CASE WHEN watch_history.episode = excluded.episode THEN watch_history.progress ELSE 0 END,
			updated_at = excluded.updated_at
	`, e.ViewerID, e.Slug, e.Name, e.Poster, e.Server, e.Episode, e.EpisodeName, s.now())
	return err
}

// GetWatchEntry returns nil when the viewer never opened slug.
func (s *SQLiteStorage) GetWatchEntry(viewerID, slug string) (*WatchEntry, error) {
	row := s.db.QueryRow(`
		SELECT viewer_id, slug, name, poster, server, episode, episode_name, position, duration, progress, updated_at
		FROM watch_history WHERE viewer_id = ? AND slug = ?
	`, viewerID, slug)

	var e WatchEntry
	err := row.Scan(&e.ViewerID, &e.Slug, &e.Name, &e.Poster, &e.Server, &e.Episode,
		&e.EpisodeName, &e.Position, &e.Duration, &e.Progress, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// SavePlaybackState updates the position of an existing entry. It reports
// false when the viewer never opened the movie.
func (s *SQLiteStorage) SavePlaybackState(state *PlaybackState) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE watch_history
		SET position = ?, duration = ?, progress = ?, updated_at = ?
		WHERE viewer_id = ? AND slug = ?
	`, state.Position, state.Duration, state.Progress, s.now(), state.ViewerID, state.Slug)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetPlaybackState returns nil when nothing was saved for slug.
func (s *SQLiteStorage) GetPlaybackState(viewerID, slug string) (*PlaybackState, error) {
	e, err := s.GetWatchEntry(viewerID, slug)
	if err != nil || e == nil {
		return nil, err
	}
	return &PlaybackState{
		ViewerID:  e.ViewerID,
		Slug:      e.Slug,
		Position:  e.Position,
		Duration:  e.Duration,
		Progress:  e.Progress,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

// GetContinueWatching returns the viewer's unfinished movies, newest first.
// Entries without a saved position count as unfinished; otherwise progress
// between 2% and 95% is considered "in progress".
func (s *SQLiteStorage) GetContinueWatching(viewerID string, limit int) ([]WatchEntry, error) {
	rows, err := s.db.Query(`
		SELECT viewer_id, slug, name, poster, server, episode, episode_name, position, duration, progress, updated_at
		FROM watch_history
		WHERE viewer_id = ? AND (duration = 0 OR (progress > 0.02 AND progress < 0.95))
		ORDER BY updated_at DESC
		LIMIT ?
	`, viewerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []WatchEntry
	for rows.Next() {
		var e WatchEntry
		if err := rows.Scan(&e.ViewerID, &e.Slug, &e.Name, &e.Poster, &e.Server, &e.Episode,
			&e.EpisodeName, &e.Position, &e.Duration, &e.Progress, &e.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}

	return items, rows.Err()
}

// DeleteWatchEntry forgets slug for the viewer.
func (s *SQLiteStorage) DeleteWatchEntry(viewerID, slug string) error {
	_, err := s.db.Exec("DELETE FROM watch_history WHERE viewer_id = ? AND slug = ?", viewerID, slug)
	return err
}
