// Package player tracks which server and episode a visitor is watching and
// owns the adaptive stream attached to that selection.
package player

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"camcam/internal/movie"
)

type Mode string

const (
	ModeAdaptive Mode = "adaptive"
	ModeEmbedded Mode = "embedded"
)

// ParseMode maps a form value to a Mode; anything unknown is embedded.
func ParseMode(s string) Mode {
	if Mode(s) == ModeAdaptive {
		return ModeAdaptive
	}
	return ModeEmbedded
}

// Terminal errors. None of them is retried; the visitor closes the panel.
var (
	ErrNoMovie      = errors.New("player: no movie loaded")
	ErrNoEpisodes   = errors.New("player: movie has no episodes")
	ErrNoServerData = errors.New("player: server has no episodes")
)

// Message returns the panel text for a terminal error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoMovie):
		return "Không tìm thấy thông tin phim. Vui lòng thử lại."
	case errors.Is(err, ErrNoEpisodes):
		return "Phim này chưa có tập nào để xem."
	case errors.Is(err, ErrNoServerData):
		return "Server này không có dữ liệu phim."
	case err != nil:
		return "Không thể phát tập phim này."
	}
	return ""
}

// Stream is an adaptive playback instance. Attach must not block; onFatal
// reports an unrecoverable failure at most once.
type Stream interface {
	Attach(ctx context.Context, manifestURL string, onFatal func(error))
	Close()
}

type StreamFactory func() Stream

// Event describes a successful open.
type Event struct {
	Detail      *movie.Detail
	Server      int
	ServerName  string
	Episode     int
	EpisodeInfo movie.Episode
}

type Observer func(ctx context.Context, e Event)

// Panel is the view model of the player overlay.
type Panel struct {
	Err     error
	Message string

	Title        string
	Mode         Mode
	Adaptive     bool
	EmbedURL     string
	StreamURL    string
	Server       int
	Episode      int
	EpisodeName  string
	EpisodeLabel string
	Groups       []ServerGroupView
	Slots        []movie.Slot
	HasPrev      bool
	HasNext      bool
	Prev         int
	Next         int
	FellBack     bool
}

type Options struct {
	UpcomingCeiling int
	Observer        Observer
}

// Player is the per-session playback state machine. It holds at most one
// live Stream; every transition closes the previous one before attaching.
type Player struct {
	newStream StreamFactory
	opts      Options
	logger    zerolog.Logger

	mu         sync.Mutex
	detail     *movie.Detail
	open       bool
	server     int
	episode    int
	mode       Mode
	fellBack   bool
	embedURL   string
	name       string
	stream     Stream
	generation uint64
}

func New(newStream StreamFactory, opts Options, logger zerolog.Logger) *Player {
	if opts.UpcomingCeiling <= 0 {
		opts.UpcomingCeiling = movie.DefaultUpcomingCeiling
	}
	return &Player{
		newStream: newStream,
		opts:      opts,
		logger:    logger,
		mode:      ModeAdaptive,
	}
}

// Load makes d the current movie and resets the selection to (0, 0).
func (p *Player) Load(d *movie.Detail) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	p.detail = d
	p.open = false
	p.server = 0
	p.episode = 0
	p.embedURL = ""
	p.name = ""
}

func (p *Player) Detail() *movie.Detail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detail
}

// Open validates and selects (server, episode) of the current movie.
// An out of range server or episode is clamped to 0. embedURL and name
// are used when the selected episode lacks its own link or the movie its
// own name.
func (p *Player) Open(ctx context.Context, embedURL, name string, server, episode int) Panel {
	p.mu.Lock()
	p.embedURL = embedURL
	p.name = name
	panel, ev := p.openLocked(ctx, server, episode)
	p.mu.Unlock()

	p.notify(ctx, ev)
	return panel
}

// SwitchServer moves to another server, starting at episode.
func (p *Player) SwitchServer(ctx context.Context, server, episode int) Panel {
	return p.reopen(ctx, server, episode)
}

// SwitchEpisode moves to another episode of server.
func (p *Player) SwitchEpisode(ctx context.Context, server, episode int) Panel {
	return p.reopen(ctx, server, episode)
}

func (p *Player) reopen(ctx context.Context, server, episode int) Panel {
	p.mu.Lock()
	p.releaseLocked()
	panel, ev := p.openLocked(ctx, server, episode)
	p.mu.Unlock()

	p.notify(ctx, ev)
	return panel
}

// SetMode switches between adaptive and embedded playback of the same
// episode. The selection is kept.
func (p *Player) SetMode(ctx context.Context, mode Mode) Panel {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mode = mode
	p.fellBack = false
	if !p.open {
		return Panel{Mode: mode}
	}
	panel, _ := p.openLocked(ctx, p.server, p.episode)
	return panel
}

// Current renders the panel for the current selection without touching
// the stream, e.g. after an automatic fallback.
func (p *Player) Current() Panel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

// Fallback abandons adaptive playback of the current selection, as when
// the browser reports an unrecoverable stream error. Embedded mode sticks
// until SetMode.
func (p *Player) Fallback(err error) Panel {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.open {
		p.fallbackLocked(err)
	}
	return p.currentLocked()
}

func (p *Player) currentLocked() Panel {
	if !p.open {
		return Panel{Err: ErrNoMovie, Message: Message(ErrNoMovie)}
	}
	panel, _, err := p.panelLocked(p.server, p.episode)
	if err != nil {
		return Panel{Err: err, Message: Message(err)}
	}
	if panel.Mode == ModeAdaptive {
		if p.stream != nil {
			panel.StreamURL = p.streamURLLocked()
		} else {
			panel.Mode = ModeEmbedded
		}
	}
	return panel
}

func (p *Player) streamURLLocked() string {
	return "/player/stream.m3u8?g=" + strconv.FormatUint(p.generation, 10)
}

// Close releases the stream and hides the player. The movie stays loaded.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.open = false
}

// Stream returns the live adaptive instance, if any.
func (p *Player) Stream() Stream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stream
}

func (p *Player) Selection() (server, episode int, mode Mode, open bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.server, p.episode, p.mode, p.open
}

func (p *Player) openLocked(ctx context.Context, server, episode int) (Panel, *Event) {
	p.releaseLocked()

	panel, ep, err := p.panelLocked(server, episode)
	if err != nil {
		p.open = false
		p.logger.Debug().Err(err).Int("server", server).Int("episode", episode).Msg("player open refused")
		return Panel{Err: err, Message: Message(err)}, nil
	}

	p.open = true
	p.server = panel.Server
	p.episode = panel.Episode

	if panel.Mode == ModeAdaptive {
		p.attachLocked(ctx, ep.ManifestURL)
		if p.stream != nil {
			panel.StreamURL = p.streamURLLocked()
		} else {
			panel.Mode = ModeEmbedded
		}
	}

	return panel, &Event{
		Detail:      p.detail,
		Server:      panel.Server,
		ServerName:  p.detail.Servers[panel.Server].Name,
		Episode:     panel.Episode,
		EpisodeInfo: ep,
	}
}

// panelLocked validates the coordinates and builds the view model.
func (p *Player) panelLocked(server, episode int) (Panel, movie.Episode, error) {
	d := p.detail
	if d == nil {
		return Panel{}, movie.Episode{}, ErrNoMovie
	}
	if len(d.Servers) == 0 {
		return Panel{}, movie.Episode{}, ErrNoEpisodes
	}
	if server < 0 || server >= len(d.Servers) {
		server = 0
	}
	episodes := d.Servers[server].Episodes
	if len(episodes) == 0 {
		return Panel{}, movie.Episode{}, fmt.Errorf("server %q: %w", d.Servers[server].Name, ErrNoServerData)
	}
	if episode < 0 || episode >= len(episodes) {
		episode = 0
	}
	ep := episodes[episode]

	title := d.Name
	if title == "" {
		title = p.name
	}
	embed := ep.EmbedURL
	if embed == "" {
		embed = p.embedURL
	}

	mode := p.mode
	if !ep.Adaptive() {
		mode = ModeEmbedded
	}

	panel := Panel{
		Title:        title,
		Mode:         mode,
		Adaptive:     ep.Adaptive(),
		EmbedURL:     embed,
		Server:       server,
		Episode:      episode,
		EpisodeName:  ep.Name,
		EpisodeLabel: fmt.Sprintf("Tập %d / %d", episode+1, len(episodes)),
		Groups:       GroupServers(d.Servers, server),
		Slots:        movie.EpisodeSlots(episodes, d.EpisodeTotal, p.opts.UpcomingCeiling),
		HasPrev:      episode > 0,
		HasNext:      episode < len(episodes)-1,
		Prev:         episode - 1,
		Next:         episode + 1,
		FellBack:     p.fellBack,
	}
	return panel, ep, nil
}

func (p *Player) attachLocked(ctx context.Context, manifestURL string) {
	if p.newStream == nil {
		return
	}
	p.generation++
	gen := p.generation

	s := p.newStream()
	p.stream = s
	// The stream outlives the request that opened it.
	s.Attach(context.WithoutCancel(ctx), manifestURL, func(err error) {
		p.fallback(gen, err)
	})
	p.logger.Debug().Uint64("generation", gen).Str("manifest", manifestURL).Msg("adaptive stream attached")
}

// fallback switches to embedded playback when stream gen is still current.
func (p *Player) fallback(gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation || p.stream == nil {
		return
	}
	p.fallbackLocked(err)
}

func (p *Player) fallbackLocked(err error) {
	p.releaseLocked()
	p.mode = ModeEmbedded
	p.fellBack = true

	p.logger.Info().Err(err).Int("server", p.server).Int("episode", p.episode).Msg("adaptive playback failed, using embedded player")
}

func (p *Player) releaseLocked() {
	if p.stream == nil {
		return
	}
	p.stream.Close()
	p.stream = nil
	p.generation++
}

func (p *Player) notify(ctx context.Context, ev *Event) {
	if ev == nil || p.opts.Observer == nil {
		return
	}
	p.opts.Observer(ctx, *ev)
}
