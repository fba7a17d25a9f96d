package streaming

import (
	"bytes"
	"net/http"
	"time"
)

type Handler struct {
	wait time.Duration
}

// NewHandler returns a handler that holds a manifest request for up to
// wait while the stream is still loading.
func NewHandler(wait time.Duration) *Handler {
	return &Handler{wait: wait}
}

// ServeManifest writes the rewritten playlist of stream. A stream still
// loading after the wait answers 503 with Retry-After so the player polls
// again.
func (h *Handler) ServeManifest(w http.ResponseWriter, r *http.Request, stream *HLSStream) {
	if stream == nil {
		http.Error(w, "No adaptive stream", http.StatusNotFound)
		return
	}

	if h.wait > 0 && stream.State() == StateLoading {
		t := time.NewTimer(h.wait)
		select {
		case <-stream.Done():
		case <-r.Context().Done():
		case <-t.C:
		}
		t.Stop()
	}

	switch stream.State() {
	case StateLoading, StateIdle:
		w.Header().Set("Retry-After", "1")
		http.Error(w, "Stream is loading", http.StatusServiceUnavailable)
		return
	case StateFailed:
		http.Error(w, "Stream failed", http.StatusBadGateway)
		return
	case StateClosed:
		http.Error(w, "Stream closed", http.StatusGone)
		return
	}

	pl, ok := stream.Playlist()
	if !ok {
		http.Error(w, "Stream closed", http.StatusGone)
		return
	}

	w.Header().Set("Content-Type", GetContentType("stream.m3u8"))
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "stream.m3u8", time.Time{}, bytes.NewReader(pl.Body))
}
