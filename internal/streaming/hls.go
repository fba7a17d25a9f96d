// Package streaming loads HLS manifests for the adaptive player and serves
// them back to the browser.
package streaming

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNetwork marks failures that a reload may fix.
	ErrNetwork = errors.New("hls: network error")
	// ErrMedia marks a payload that is not a usable playlist.
	ErrMedia = errors.New("hls: media error")
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type Variant struct {
	URI        string
	Bandwidth  int
	Resolution string
}

// Playlist is a parsed manifest whose URIs were made absolute.
type Playlist struct {
	Master   bool
	Variants []Variant
	Segments int
	Body     []byte
}

type Options struct {
	MaxNetworkRetries  int
	MaxMediaRecoveries int
	Backoff            time.Duration
}

func DefaultOptions() Options {
	return Options{
		MaxNetworkRetries:  3,
		MaxMediaRecoveries: 1,
		Backoff:            500 * time.Millisecond,
	}
}

// HLSStream is one adaptive playback instance. It is attached once and
// closed once; a closed stream never comes back.
type HLSStream struct {
	client *http.Client
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	url      string
	playlist *Playlist
	err      error
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHLSStream(client *http.Client, opts Options, logger zerolog.Logger) *HLSStream {
	if client == nil {
		client = http.DefaultClient
	}
	return &HLSStream{
		client: client,
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Attach starts loading manifestURL in the background and returns at once.
// onFatal runs at most once, when loading fails for good.
func (s *HLSStream) Attach(ctx context.Context, manifestURL string, onFatal func(error)) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateLoading
	s.url = manifestURL
	s.mu.Unlock()

	go s.run(ctx, manifestURL, onFatal)
}

func (s *HLSStream) run(ctx context.Context, manifestURL string, onFatal func(error)) {
	defer close(s.done)

	networkRetries, mediaRecoveries := 0, 0
	backoff := s.opts.Backoff

	for {
		pl, err := s.load(ctx, manifestURL)
		if err == nil {
			s.mu.Lock()
			if s.state == StateLoading {
				s.state = StateReady
				s.playlist = pl
			}
			s.mu.Unlock()
			s.logger.Debug().
				Str("url", manifestURL).
				Bool("master", pl.Master).
				Int("variants", len(pl.Variants)).
				Int("segments", pl.Segments).
				Msg("manifest loaded")
			return
		}
		if ctx.Err() != nil {
			return
		}

		switch {
		case errors.Is(err, ErrNetwork) && networkRetries < s.opts.MaxNetworkRetries:
			networkRetries++
			s.logger.Debug().Err(err).Int("attempt", networkRetries).Dur("backoff", backoff).Msg("reloading manifest")
			if !sleep(ctx, backoff) {
				return
			}
			backoff *= 2
			continue
		case errors.Is(err, ErrMedia) && mediaRecoveries < s.opts.MaxMediaRecoveries:
			mediaRecoveries++
			s.logger.Debug().Err(err).Msg("resetting manifest parser")
			continue
		}

		s.mu.Lock()
		if s.state == StateLoading {
			s.state = StateFailed
			s.err = err
		}
		fatal := s.state == StateFailed
		s.mu.Unlock()

		if fatal {
			s.logger.Warn().Err(err).Str("url", manifestURL).Msg("adaptive stream failed")
			if onFatal != nil {
				onFatal(err)
			}
		}
		return
	}
}

func (s *HLSStream) load(ctx context.Context, manifestURL string) (*Playlist, error) {
	base, err := url.Parse(manifestURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid manifest url %q", manifestURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("hls: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return ParsePlaylist(body, base)
}

var (
	uriAttr   = regexp.MustCompile(`URI="([^"]+)"`)
	bandwidth = regexp.MustCompile(`BANDWIDTH=(\d+)`)
	resAttr   = regexp.MustCompile(`RESOLUTION=(\d+x\d+)`)
)

// ParsePlaylist validates an m3u8 body and rewrites every URI, including
// URI="..." attributes, to an absolute URL against base.
func ParsePlaylist(body []byte, base *url.URL) (*Playlist, error) {
	pl := &Playlist{}
	var out bytes.Buffer
	var pending *Variant
	sawHeader := false

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !sawHeader {
			if !strings.HasPrefix(line, "#EXTM3U") {
				return nil, fmt.Errorf("%w: missing #EXTM3U header", ErrMedia)
			}
			sawHeader = true
			out.WriteString(line + "\n")
			continue
		}

		if strings.HasPrefix(line, "#") {
			switch {
			case strings.HasPrefix(line, "#EXT-X-STREAM-INF:"):
				pl.Master = true
				pending = &Variant{}
				if m := bandwidth.FindStringSubmatch(line); m != nil {
					pending.Bandwidth, _ = strconv.Atoi(m[1])
				}
				if m := resAttr.FindStringSubmatch(line); m != nil {
					pending.Resolution = m[1]
				}
			case strings.HasPrefix(line, "#EXTINF:"):
				pl.Segments++
			}
			line = uriAttr.ReplaceAllStringFunc(line, func(attr string) string {
				m := uriAttr.FindStringSubmatch(attr)
				return `URI="` + resolve(base, m[1]) + `"`
			})
			out.WriteString(line + "\n")
			continue
		}

		abs := resolve(base, line)
		if pending != nil {
			pending.URI = abs
			pl.Variants = append(pl.Variants, *pending)
			pending = nil
		}
		out.WriteString(abs + "\n")
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMedia, err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("%w: empty playlist", ErrMedia)
	}
	if len(pl.Variants) == 0 && pl.Segments == 0 {
		return nil, fmt.Errorf("%w: playlist has no variants or segments", ErrMedia)
	}

	pl.Body = out.Bytes()
	return pl, nil
}

func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close stops any loading in flight and releases the manifest.
func (s *HLSStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.state = StateClosed
	s.playlist = nil
}

func (s *HLSStream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *HLSStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Playlist returns the loaded manifest once the stream is ready.
func (s *HLSStream) Playlist() (*Playlist, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return nil, false
	}
	return s.playlist, true
}

// Done is closed when the background loader has returned.
func (s *HLSStream) Done() <-chan struct{} {
	return s.done
}
