package storage

import "time"

// WatchEntry is one movie a viewer has opened in the player.
type WatchEntry struct {
	ViewerID    string    `json:"-"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Poster      string    `json:"poster"`
	Server      int       `json:"server"`
	Episode     int       `json:"episode"`
	EpisodeName string    `json:"episode_name"`
	Position    int64     `json:"position"` // Seconds
	Duration    int64     `json:"duration"` // Seconds
	Progress    float64   `json:"progress"` // 0.0 - 1.0
	UpdatedAt   time.Time `json:"updated_at"`
}

type PlaybackState struct {
	ViewerID  string    `json:"-"`
	Slug      string    `json:"slug"`
	Position  int64     `json:"position"` // Seconds
	Duration  int64     `json:"duration"` // Seconds
	Progress  float64   `json:"progress"` // 0.0 - 1.0
	UpdatedAt time.Time `json:"-"`
}
