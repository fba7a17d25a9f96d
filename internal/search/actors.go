package search

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"camcam/internal/movie"
	"camcam/internal/textnorm"
)

const actorSuggestionLimit = 10

// ActorIndex collects actor names from every result a visitor has seen.
type ActorIndex struct {
	source Source
	limit  int
	logger zerolog.Logger

	mu     sync.RWMutex
	names  []string
	folded map[string]string
}

func NewActorIndex(source Source, limit int, logger zerolog.Logger) *ActorIndex {
	return &ActorIndex{
		source: source,
		limit:  limit,
		logger: logger,
		folded: make(map[string]string),
	}
}

func (a *ActorIndex) Add(movies []movie.Summary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, m := range movies {
		for _, name := range m.Actors {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if _, ok := a.folded[name]; ok {
				continue
			}
			a.folded[name] = textnorm.Fold(name)
			a.names = append(a.names, name)
		}
	}
}

func (a *ActorIndex) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.names)
}

// Suggest returns up to 10 known actors whose name contains query. When
// none is known yet, a live search feeds the index and the match is retried.
func (a *ActorIndex) Suggest(ctx context.Context, query string) []string {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < 2 {
		return nil
	}

	if found := a.match(q); len(found) > 0 {
		return found
	}

	live := a.source.Search(ctx, q, 1, a.limit)
	if live == nil {
		a.logger.Debug().Str("query", q).Msg("actor lookup unavailable")
		return nil
	}
	a.Add(live.Items)
	return a.match(q)
}

func (a *ActorIndex) match(q string) []string {
	needle := textnorm.Fold(q)

	a.mu.RLock()
	defer a.mu.RUnlock()

	var out []string
	for _, name := range a.names {
		if strings.Contains(a.folded[name], needle) {
			out = append(out, name)
			if len(out) == actorSuggestionLimit {
				break
			}
		}
	}
	return out
}
