package streaming

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const masterPlaylist = `#EXTM3U
#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360
360/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2400000,RESOLUTION=1280x720
https://other.cdn/720/index.m3u8
`

const mediaPlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-KEY:METHOD=AES-128,URI="key.bin"
#EXTINF:10.0,
seg-0.ts
#EXTINF:10.0,
/abs/seg-1.ts
#EXT-X-ENDLIST
`

func testOptions() Options {
	return Options{MaxNetworkRetries: 3, MaxMediaRecoveries: 1, Backoff: time.Millisecond}
}

func waitDone(t *testing.T, s *HLSStream) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream loader did not finish")
	}
}

func TestParsePlaylistMaster(t *testing.T) {
	base, _ := url.Parse("https://cdn.example/hls/ep1/index.m3u8")
	pl, err := ParsePlaylist([]byte(masterPlaylist), base)
	require.NoError(t, err)

	assert.True(t, pl.Master)
	require.Len(t, pl.Variants, 2)
	assert.Equal(t, "https://cdn.example/hls/ep1/360/index.m3u8", pl.Variants[0].URI)
	assert.Equal(t, 800000, pl.Variants[0].Bandwidth)
	assert.Equal(t, "640x360", pl.Variants[0].Resolution)
	assert.Equal(t, "https://other.cdn/720/index.m3u8", pl.Variants[1].URI)
	assert.Contains(t, string(pl.Body), "https://cdn.example/hls/ep1/360/index.m3u8\n")
}

func TestParsePlaylistMedia(t *testing.T) {
	base, _ := url.Parse("https://cdn.example/hls/ep1/index.m3u8")
	pl, err := ParsePlaylist([]byte(mediaPlaylist), base)
	require.NoError(t, err)

	assert.False(t, pl.Master)
	assert.Equal(t, 2, pl.Segments)
	body := string(pl.Body)
	assert.Contains(t, body, `URI="https://cdn.example/hls/ep1/key.bin"`)
	assert.Contains(t, body, "https://cdn.example/hls/ep1/seg-0.ts")
	assert.Contains(t, body, "https://cdn.example/abs/seg-1.ts")
}

func TestParsePlaylistRejectsGarbage(t *testing.T) {
	base, _ := url.Parse("https://cdn.example/a.m3u8")

	_, err := ParsePlaylist([]byte("<html>blocked</html>"), base)
	assert.ErrorIs(t, err, ErrMedia)

	_, err = ParsePlaylist([]byte("#EXTM3U\n#EXT-X-VERSION:3\n"), base)
	assert.ErrorIs(t, err, ErrMedia)

	_, err = ParsePlaylist(nil, base)
	assert.ErrorIs(t, err, ErrMedia)
}

func TestStreamReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, mediaPlaylist)
	}))
	defer srv.Close()

	s := NewHLSStream(srv.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), srv.URL+"/ep/index.m3u8", func(error) {
		t.Error("unexpected fatal error")
	})
	waitDone(t, s)

	assert.Equal(t, StateReady, s.State())
	pl, ok := s.Playlist()
	require.True(t, ok)
	assert.Contains(t, string(pl.Body), srv.URL+"/ep/seg-0.ts")
}

func TestStreamRetriesNetworkErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, mediaPlaylist)
	}))
	defer srv.Close()

	s := NewHLSStream(srv.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), srv.URL+"/index.m3u8", nil)
	waitDone(t, s)

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, int32(3), calls.Load())
}

func TestStreamFatalAfterRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	fatal := make(chan error, 1)
	s := NewHLSStream(srv.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), srv.URL+"/index.m3u8", func(err error) { fatal <- err })
	waitDone(t, s)

	require.Len(t, fatal, 1)
	assert.ErrorIs(t, <-fatal, ErrNetwork)
	assert.Equal(t, StateFailed, s.State())
	assert.Equal(t, int32(4), calls.Load())
}

func TestStreamMediaErrorRecoversOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, "not a playlist")
	}))
	defer srv.Close()

	fatal := make(chan error, 1)
	s := NewHLSStream(srv.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), srv.URL+"/index.m3u8", func(err error) { fatal <- err })
	waitDone(t, s)

	require.Len(t, fatal, 1)
	assert.ErrorIs(t, <-fatal, ErrMedia)
	assert.Equal(t, int32(2), calls.Load())
}

func TestStreamClientErrorIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var fatal atomic.Bool
	s := NewHLSStream(srv.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), srv.URL+"/index.m3u8", func(error) { fatal.Store(true) })
	waitDone(t, s)

	assert.True(t, fatal.Load())
	assert.Equal(t, StateFailed, s.State())
}

func TestStreamCloseCancelsLoading(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var fatal atomic.Bool
	s := NewHLSStream(srv.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), srv.URL+"/index.m3u8", func(error) { fatal.Store(true) })
	s.Close()
	s.Close()
	waitDone(t, s)

	assert.Equal(t, StateClosed, s.State())
	assert.False(t, fatal.Load())
	_, ok := s.Playlist()
	assert.False(t, ok)
}

func TestServeManifest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, masterPlaylist)
	}))
	defer upstream.Close()

	h := NewHandler(0)

	rec := httptest.NewRecorder()
	h.ServeManifest(rec, httptest.NewRequest(http.MethodGet, "/player/stream.m3u8", nil), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s := NewHLSStream(upstream.Client(), testOptions(), zerolog.Nop())
	s.Attach(context.Background(), upstream.URL+"/index.m3u8", nil)
	waitDone(t, s)

	rec = httptest.NewRecorder()
	h.ServeManifest(rec, httptest.NewRequest(http.MethodGet, "/player/stream.m3u8", nil), s)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.apple.mpegurl", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "#EXTM3U"))

	s.Close()
	rec = httptest.NewRecorder()
	h.ServeManifest(rec, httptest.NewRequest(http.MethodGet, "/player/stream.m3u8", nil), s)
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/vnd.apple.mpegurl", GetContentType("a/index.m3u8?token=1"))
	assert.Equal(t, "video/mp2t", GetContentType("seg.TS"))
	assert.Equal(t, "application/octet-stream", GetContentType("noext"))
}
