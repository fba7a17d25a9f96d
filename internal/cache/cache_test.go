package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camcam/internal/movie"
)

func TestMoviesFirstWriteWins(t *testing.T) {
	c := NewMovies()
	c.Put([]movie.Summary{{Slug: "dem", Name: "Đêm", EpisodeCurrent: "Tập 3"}})
	c.Put([]movie.Summary{{Slug: "dem", Name: "Đêm (updated)", EpisodeCurrent: "Tập 4"}})

	got, ok := c.Get("dem")
	require.True(t, ok)
	assert.Equal(t, "Đêm", got.Name)
	assert.Equal(t, "Tập 3", got.EpisodeCurrent)
	assert.Equal(t, 1, c.Len())
}

func TestMoviesSkipsEmptySlug(t *testing.T) {
	c := NewMovies()
	c.Put([]movie.Summary{{Name: "no slug"}, {Slug: "ok", Name: "Ok"}})
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("")
	assert.False(t, ok)
}

func TestMoviesMatchByName(t *testing.T) {
	c := NewMovies()
	c.Put([]movie.Summary{
		{Slug: "dem", Name: "Đêm"},
		{Slug: "ngay", Name: "Ngày"},
		{Slug: "white-night", Name: "Bạch Dạ", OriginName: "Demon Night"},
	})

	got := c.MatchByName("dem")
	require.Len(t, got, 2)
	assert.Equal(t, "dem", got[0].Slug)
	assert.Equal(t, "white-night", got[1].Slug)

	assert.Empty(t, c.MatchByName("xyz"))
	assert.Empty(t, c.MatchByName("  "))
	assert.Len(t, c.MatchByName("NGAY"), 1)
}

func TestMoviesClear(t *testing.T) {
	c := NewMovies()
	c.Put([]movie.Summary{{Slug: "a", Name: "A"}})
	c.Clear()
	assert.Zero(t, c.Len())
	assert.Empty(t, c.MatchByName("a"))
}

func TestLRUCacheEvictsByCount(t *testing.T) {
	c := NewLRUCache(2, 1<<20)
	c.Set("a", Image{Data: []byte("1")})
	c.Set("b", Image{Data: []byte("2")})
	_, _ = c.Get("a")
	c.Set("c", Image{Data: []byte("3")})

	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUCacheEvictsBySize(t *testing.T) {
	c := NewLRUCache(10, 10)
	c.Set("a", Image{Data: make([]byte, 6)})
	c.Set("b", Image{Data: make([]byte, 6)})

	count, size, _, _ := c.Stats()
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(6), size)

	c.Set("huge", Image{Data: make([]byte, 11)})
	_, ok := c.Get("huge")
	assert.False(t, ok)
}

func TestLRUCacheReplace(t *testing.T) {
	c := NewLRUCache(4, 100)
	c.Set("a", Image{ContentType: "image/jpeg", Data: []byte("123")})
	c.Set("a", Image{ContentType: "image/webp", Data: []byte("12345")})

	img, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "image/webp", img.ContentType)
	_, size, hits, _ := c.Stats()
	assert.Equal(t, int64(5), size)
	assert.Equal(t, uint64(1), hits)

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, _, _, misses := c.Stats()
	assert.Equal(t, uint64(1), misses)
}
