package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"camcam/internal/cache"
)

const maxPosterSize = 4 << 20

// Poster proxies CDN images through a byte-bounded LRU. Any upstream
// failure redirects to the placeholder so the card still shows an image.
func (h *Handler) Poster(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get("u")
	if !strings.HasPrefix(u, strings.TrimRight(h.images.Host, "/")+"/") {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Only CDN images can be proxied")
		return
	}

	img, ok := h.posters.Get(u)
	if !ok {
		var err error
		img, err = h.fetchPoster(r, u)
		if err != nil {
			h.logger.Warn().Err(err).Str("url", u).Msg("poster unavailable")
			http.Redirect(w, r, h.images.Placeholder, http.StatusFound)
			return
		}
		h.posters.Set(u, img)
	}

	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	w.WriteHeader(http.StatusOK)
	w.Write(img.Data)
}

func (h *Handler) fetchPoster(r *http.Request, u string) (cache.Image, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, u, nil)
	if err != nil {
		return cache.Image{}, err
	}

	resp, err := h.fetcher.Do(req)
	if err != nil {
		return cache.Image{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cache.Image{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return cache.Image{}, fmt.Errorf("unexpected content type %q", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPosterSize+1))
	if err != nil {
		return cache.Image{}, err
	}
	if len(data) > maxPosterSize {
		return cache.Image{}, fmt.Errorf("poster larger than %d bytes", maxPosterSize)
	}
	return cache.Image{ContentType: ct, Data: data}, nil
}
