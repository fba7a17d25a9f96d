package cache

import (
	"strings"
	"sync"

	"camcam/internal/movie"
	"camcam/internal/textnorm"
)

// Movies remembers every movie summary a visitor has been shown, keyed by
// slug. The first record seen for a slug wins; later ones are ignored.
type Movies struct {
	mu    sync.RWMutex
	items map[string]movie.Summary
	order []string
	// folded name + origin name, computed once per entry
	keys map[string]string
}

func NewMovies() *Movies {
	return &Movies{
		items: make(map[string]movie.Summary),
		keys:  make(map[string]string),
	}
}

// Put inserts records that carry a slug and are not cached yet.
func (c *Movies) Put(movies []movie.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range movies {
		if m.Slug == "" {
			continue
		}
		if _, ok := c.items[m.Slug]; ok {
			continue
		}
		c.items[m.Slug] = m
		c.order = append(c.order, m.Slug)
		c.keys[m.Slug] = textnorm.Fold(m.Name) + "\x00" + textnorm.Fold(m.OriginName)
	}
}

func (c *Movies) Get(slug string) (movie.Summary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.items[slug]
	return m, ok
}

// MatchByName returns cached records whose name or original name contains
// query, ignoring case and diacritics, in insertion order.
func (c *Movies) MatchByName(query string) []movie.Summary {
	q := textnorm.Fold(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []movie.Summary
	for _, slug := range c.order {
		name, origin, _ := strings.Cut(c.keys[slug], "\x00")
		if strings.Contains(name, q) || strings.Contains(origin, q) {
			out = append(out, c.items[slug])
		}
	}
	return out
}

func (c *Movies) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear drops every entry.
func (c *Movies) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]movie.Summary)
	c.keys = make(map[string]string)
	c.order = nil
}
