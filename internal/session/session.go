// Package session holds the per-visitor state: movie cache, player,
// suggestion panel, taxonomy and browse state.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"camcam/internal/cache"
	"camcam/internal/movie"
	"camcam/internal/player"
	"camcam/internal/search"
)

// Deps builds the components every session owns.
type Deps struct {
	Search        search.Source
	NewStream     player.StreamFactory
	PlayerOptions player.Options
	SearchOptions search.Options
	ActorLimit    int
	// Observer, when set, returns the player observer for a session id.
	Observer func(sessionID string) player.Observer
	Logger   zerolog.Logger
}

// Browse is the fetched result set of the last filtered route. Sort and
// page changes reuse it instead of refetching.
type Browse struct {
	Key    string
	Title  string
	Movies []movie.Summary
	Sort   string
	Page   int
}

type Session struct {
	ID        string
	Movies    *cache.Movies
	Player    *player.Player
	Suggester *search.Suggester
	Actors    *search.ActorIndex
	CreatedAt time.Time

	mu        sync.Mutex
	genres    []movie.Taxon
	countries []movie.Taxon
	detail    *movie.Detail
	detailSeq uint64
	browse    *Browse
	closed    bool
}

func New(id string, deps Deps) *Session {
	logger := deps.Logger.With().Str("session", id).Logger()

	popts := deps.PlayerOptions
	if deps.Observer != nil {
		popts.Observer = deps.Observer(id)
	}

	movies := cache.NewMovies()
	actors := search.NewActorIndex(deps.Search, deps.ActorLimit, logger)

	return &Session{
		ID:        id,
		Movies:    movies,
		Player:    player.New(deps.NewStream, popts, logger),
		Suggester: search.NewSuggester(deps.Search, movies, actors, deps.SearchOptions, logger),
		Actors:    actors,
		CreatedAt: time.Now(),
	}
}

func (s *Session) SetTaxonomy(genres, countries []movie.Taxon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if genres != nil {
		s.genres = genres
	}
	if countries != nil {
		s.countries = countries
	}
}

func (s *Session) Taxonomy() (genres, countries []movie.Taxon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genres, s.countries
}

// BeginDetail returns the token of a new detail request. Only the latest
// token may commit.
func (s *Session) BeginDetail() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detailSeq++
	return s.detailSeq
}

// CommitDetail makes d the current movie and resets the player to it. It
// returns false, changing nothing, when a newer request began meanwhile.
func (s *Session) CommitDetail(token uint64, d *movie.Detail) bool {
	s.mu.Lock()
	if token != s.detailSeq || s.closed {
		s.mu.Unlock()
		return false
	}
	s.detail = d
	s.mu.Unlock()

	s.Player.Load(d)
	return true
}

func (s *Session) Detail() *movie.Detail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detail
}

// Browse returns the stored result set when it belongs to key.
func (s *Session) Browse(key string) (Browse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browse == nil || s.browse.Key != key {
		return Browse{}, false
	}
	return *s.browse, true
}

func (s *Session) SetBrowse(b Browse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browse = &b
}

func (s *Session) ClearBrowse() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.browse = nil
}

// Close releases the player stream and pending searches. A closed session
// accepts no new detail.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.detail = nil
	s.browse = nil
	s.mu.Unlock()

	s.Player.Close()
	s.Suggester.Close()
	s.Movies.Clear()
}

type contextKey struct{}

func WithContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by the session middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
