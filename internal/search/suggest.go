// Package search implements the search box: debounced movie suggestions
// with infinite scroll, and actor autocomplete.
package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"camcam/internal/cache"
	"camcam/internal/movie"
	"camcam/internal/ophim"
)

// Source is the live search backend.
type Source interface {
	Search(ctx context.Context, keyword string, page, limit int) *ophim.Listing
}

type Options struct {
	Debounce time.Duration
	MinQuery int
	PageSize int
	Limit    int
}

func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		MinQuery: 2,
		PageSize: 10,
		Limit:    8,
	}
}

// Suggestions is what the panel shows. After NextPage, Items holds only the
// entries appended by that page.
type Suggestions struct {
	Query   string
	Items   []movie.Summary
	HasMore bool
}

// Suggester backs the suggestion panel of one visitor.
type Suggester struct {
	source   Source
	movies   *cache.Movies
	actors   *ActorIndex
	opts     Options
	logger   zerolog.Logger
	debounce *Debouncer

	mu       sync.Mutex
	seq      uint64
	query    string
	items    []movie.Summary
	seen     map[string]bool
	page     int
	hasMore  bool
	inFlight bool
}

func NewSuggester(source Source, movies *cache.Movies, actors *ActorIndex, opts Options, logger zerolog.Logger) *Suggester {
	if opts.MinQuery <= 0 {
		opts.MinQuery = 2
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	return &Suggester{
		source:   source,
		movies:   movies,
		actors:   actors,
		opts:     opts,
		logger:   logger,
		debounce: NewDebouncer(opts.Debounce),
	}
}

// OnQueryChange handles one keystroke. Short queries clear the panel at
// once without touching the network; longer ones are debounced, and a call
// replaced by a newer keystroke returns ErrSuperseded.
func (s *Suggester) OnQueryChange(ctx context.Context, raw string) (Suggestions, error) {
	q := strings.TrimSpace(raw)
	if utf8.RuneCountInString(q) < s.opts.MinQuery {
		s.Dismiss()
		return Suggestions{Query: q}, nil
	}

	var out Suggestions
	err := s.debounce.Do(ctx, func(ctx context.Context) error {
		out = s.fetchSuggestions(ctx, q)
		return nil
	})
	return out, err
}

// fetchSuggestions merges cached matches with the first live page. Cached
// matches come first; live results are added only when their slug is new.
func (s *Suggester) fetchSuggestions(ctx context.Context, q string) Suggestions {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	local := s.movies.MatchByName(q)
	live := s.source.Search(ctx, q, 1, s.opts.PageSize)

	var liveItems []movie.Summary
	if live != nil {
		liveItems = live.Items
		s.movies.Put(liveItems)
		if s.actors != nil {
			s.actors.Add(liveItems)
		}
	} else {
		s.logger.Debug().Str("query", q).Msg("live suggestions unavailable")
	}

	seen := make(map[string]bool, len(local)+len(liveItems))
	merged := make([]movie.Summary, 0, len(local)+len(liveItems))
	for _, group := range [][]movie.Summary{local, liveItems} {
		for _, m := range group {
			if seen[m.Slug] {
				continue
			}
			seen[m.Slug] = true
			merged = append(merged, m)
		}
	}
	if s.opts.Limit > 0 && len(merged) > s.opts.Limit {
		merged = merged[:s.opts.Limit]
	}
	// Entries cut by the limit may come back through NextPage.
	seen = make(map[string]bool, len(merged))
	for _, m := range merged {
		seen[m.Slug] = true
	}

	out := Suggestions{
		Query:   q,
		Items:   merged,
		HasMore: live != nil && len(liveItems) >= s.opts.PageSize,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return out
	}
	s.query = q
	s.items = merged
	s.seen = seen
	s.page = 1
	s.hasMore = out.HasMore
	s.inFlight = false
	return out
}

// NextPage fetches the next live page for the current query and appends
// the entries not shown yet. It does nothing while a page is in flight or
// once the last page was reached.
func (s *Suggester) NextPage(ctx context.Context) Suggestions {
	s.mu.Lock()
	if s.inFlight || !s.hasMore || s.query == "" {
		out := Suggestions{Query: s.query, HasMore: s.hasMore}
		s.mu.Unlock()
		return out
	}
	s.inFlight = true
	seq := s.seq
	q := s.query
	page := s.page + 1
	s.mu.Unlock()

	live := s.source.Search(ctx, q, page, s.opts.PageSize)
	if live != nil {
		s.movies.Put(live.Items)
		if s.actors != nil {
			s.actors.Add(live.Items)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		return Suggestions{Query: s.query, HasMore: s.hasMore}
	}
	s.inFlight = false

	if live == nil {
		s.hasMore = false
		return Suggestions{Query: q}
	}

	var added []movie.Summary
	for _, m := range live.Items {
		if m.Slug == "" || s.seen[m.Slug] {
			continue
		}
		s.seen[m.Slug] = true
		added = append(added, m)
	}
	s.items = append(s.items, added...)
	s.page = page
	s.hasMore = len(live.Items) >= s.opts.PageSize

	s.logger.Debug().Str("query", q).Int("page", page).Int("added", len(added)).Msg("suggestion page loaded")
	return Suggestions{Query: q, Items: added, HasMore: s.hasMore}
}

// Current returns everything the panel shows right now.
func (s *Suggester) Current() Suggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]movie.Summary, len(s.items))
	copy(items, s.items)
	return Suggestions{Query: s.query, Items: items, HasMore: s.hasMore}
}

// Dismiss clears the panel and drops any pending or in-flight query.
func (s *Suggester) Dismiss() {
	s.debounce.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.query = ""
	s.items = nil
	s.seen = nil
	s.page = 0
	s.hasMore = false
	s.inFlight = false
}

func (s *Suggester) Close() {
	s.Dismiss()
}
