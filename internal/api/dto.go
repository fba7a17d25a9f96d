package api

import "camcam/internal/storage"

type HealthResponse struct {
	Status      string           `json:"status"`
	Version     string           `json:"version"`
	Sessions    int              `json:"sessions"`
	PosterCache PosterCacheStats `json:"poster_cache"`
}

type PosterCacheStats struct {
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Playback DTOs

// SavePlaybackRequest carries video element times, which are fractional.
type SavePlaybackRequest struct {
	Position float64 `json:"position"` // Seconds
	Duration float64 `json:"duration"` // Seconds
}

type PlaybackResponse struct {
	Slug     string  `json:"slug"`
	Position int64   `json:"position"`
	Duration int64   `json:"duration"`
	Progress float64 `json:"progress"`
}

type ContinueWatchingResponse struct {
	Items []storage.WatchEntry `json:"items"`
}
