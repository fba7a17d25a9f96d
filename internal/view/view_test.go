package view

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"camcam/internal/detail"
	"camcam/internal/movie"
	"camcam/internal/ophim"
	"camcam/internal/player"
	"camcam/internal/router"
	"camcam/internal/search"
	"camcam/internal/storage"
)

var testImages = movie.ImageResolver{
	Host:        "https://img.ophim.live",
	UploadsPath: "uploads/movies",
	Placeholder: "https://placehold.co/300x450?text=No+Image",
}

func newTestRenderer(t *testing.T, proxy bool) *Renderer {
	t.Helper()
	r, err := NewRenderer(testImages, proxy)
	require.NoError(t, err)
	return r
}

func render(t *testing.T, r *Renderer, name string, data any) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestListingGridEmptyIsNotAnError(t *testing.T) {
	r := newTestRenderer(t, false)

	// {data:{items:[]}} decodes to a non-nil listing with no items.
	doc := render(t, r, TplGrid, ListingGrid(&ophim.Listing{Items: []movie.Summary{}}, 12))
	placeholder := doc.Find(".grid-placeholder")
	require.Equal(t, 1, placeholder.Length())
	assert.Equal(t, MessageEmpty, placeholder.Text())
	assert.False(t, placeholder.HasClass("error"))

	doc = render(t, r, TplGrid, ListingGrid(nil, 12))
	placeholder = doc.Find(".grid-placeholder")
	assert.Equal(t, MessageError, placeholder.Text())
	assert.True(t, placeholder.HasClass("error"))
}

func TestGridLimitsCards(t *testing.T) {
	var movies []movie.Summary
	for i := 0; i < 20; i++ {
		movies = append(movies, movie.Summary{Slug: "m" + strconv.Itoa(i), Name: "Phim " + strconv.Itoa(i)})
	}
	doc := render(t, newTestRenderer(t, false), TplGrid, NewGrid(movies, 12))
	assert.Equal(t, 12, doc.Find(".movie-card").Length())
	assert.Equal(t, "m0", doc.Find(".movie-card").First().AttrOr("data-slug", ""))
}

func TestLoadingGridRendersSkeletons(t *testing.T) {
	doc := render(t, newTestRenderer(t, false), TplGrid, LoadingGrid(6))
	assert.Equal(t, 6, doc.Find(".movie-card.skeleton").Length())
	assert.Zero(t, doc.Find(".grid-placeholder").Length())
}

func TestCardDefaultsAndEscaping(t *testing.T) {
	r := newTestRenderer(t, false)
	doc := render(t, r, TplGrid, NewGrid([]movie.Summary{
		{Slug: "xss", Name: `<script>alert(1)</script>`, ThumbURL: "a.jpg"},
		{Slug: "rated", Name: "Rated", PosterURL: "/p.jpg", Quality: "FHD", EpisodeCurrent: "Tập 5", Year: 2021, Rating: 8.5},
	}, 0))

	cards := doc.Find(".movie-card")
	require.Equal(t, 2, cards.Length())

	first := cards.Eq(0)
	assert.Zero(t, first.Find("script").Length())
	assert.Equal(t, `<script>alert(1)</script>`, first.Find(".movie-title").Text())
	assert.Equal(t, "HD", first.Find(".badge-quality").Text())
	assert.Equal(t, "Full", first.Find(".badge-status").Text())
	assert.Contains(t, first.Find(".movie-meta").Text(), strconv.Itoa(time.Now().Year()))
	assert.Zero(t, first.Find(".badge-rating").Length())

	img := first.Find("img")
	assert.Equal(t, "https://img.ophim.live/uploads/movies/a.jpg", img.AttrOr("src", ""))
	assert.Equal(t, testImages.Placeholder, img.AttrOr("data-fallback", ""))
	assert.Contains(t, img.AttrOr("onerror", ""), "this.onerror=null")

	second := cards.Eq(1)
	assert.Equal(t, "FHD", second.Find(".badge-quality").Text())
	assert.Equal(t, "Tập 5", second.Find(".badge-status").Text())
	assert.Contains(t, second.Find(".badge-rating").Text(), "8.5")
	assert.Equal(t, "https://img.ophim.live/p.jpg", second.Find("img").AttrOr("src", ""))
}

func TestPosterProxy(t *testing.T) {
	r := newTestRenderer(t, true)
	assert.Equal(t, "/poster?u=https%3A%2F%2Fimg.ophim.live%2Fp.jpg", r.PosterURL("/p.jpg"))
	assert.Equal(t, "https://other.example/p.jpg", r.PosterURL("https://other.example/p.jpg"))
	assert.Equal(t, testImages.Placeholder, r.PosterURL(""))
}

func TestHero(t *testing.T) {
	assert.Nil(t, NewHero(nil))
	assert.Nil(t, NewHero(&ophim.Listing{}))

	long := strings.Repeat("á", 250)
	h := NewHero(&ophim.Listing{Items: []movie.Summary{{Slug: "a", Name: "A", Content: "<p>" + long + "</p>"}}})
	require.NotNil(t, h)
	assert.LessOrEqual(t, len([]rune(h.Description)), 203)
	assert.Equal(t, time.Now().Year(), h.Year)

	h = NewHero(&ophim.Listing{Items: []movie.Summary{{Slug: "b", Name: "B"}}})
	assert.Equal(t, heroFallback, h.Description)

	doc := render(t, newTestRenderer(t, false), TplHero, h)
	assert.Equal(t, "B", doc.Find(".hero-title").Text())
	assert.Equal(t, "b", doc.Find("button[data-slug]").AttrOr("data-slug", ""))
}

func TestDetailWithoutEpisodesOmitsSection(t *testing.T) {
	svc := detail.NewService(nil, testImages, 0, zerolog.Nop())
	m := svc.Build(&movie.Detail{Summary: movie.Summary{Slug: "dem", Name: "Đêm", Actors: []string{"Trấn Thành"}}})

	doc := render(t, newTestRenderer(t, false), TplDetail, m)
	assert.Equal(t, "Đêm", doc.Find(".detail-title").Text())
	assert.Zero(t, doc.Find(".detail-episodes").Length())

	link := doc.Find("a.actor-link")
	require.Equal(t, 1, link.Length())
	assert.Equal(t, "#dien-vien/Tr%E1%BA%A5n%20Th%C3%A0nh", link.AttrOr("href", ""))
}

func TestDetailEpisodesWithUpcoming(t *testing.T) {
	svc := detail.NewService(nil, testImages, 0, zerolog.Nop())
	m := svc.Build(&movie.Detail{
		Summary:      movie.Summary{Slug: "s", Name: "Series"},
		EpisodeTotal: "4 Tập",
		Theatrical:   true,
		Servers: []movie.ServerGroup{{Name: "Vietsub #1", Episodes: []movie.Episode{
			{Name: "1", EmbedURL: "https://e/1"},
			{Name: "2", EmbedURL: "https://e/2"},
		}}},
	})

	doc := render(t, newTestRenderer(t, false), TplDetail, m)
	assert.Equal(t, 2, doc.Find(".episode-btn[data-play]").Length())
	assert.Equal(t, 2, doc.Find(".episode-btn.upcoming[disabled]").Length())
	assert.Equal(t, 1, doc.Find(".badge-theatrical").Length())
}

func TestDetailStates(t *testing.T) {
	r := newTestRenderer(t, false)

	doc := render(t, r, TplDetail, detail.Modal{Loading: true})
	assert.Equal(t, 1, doc.Find(".modal-loading").Length())

	doc = render(t, r, TplDetail, detail.Modal{Error: "Không thể tải thông tin phim"})
	assert.Equal(t, "Không thể tải thông tin phim", strings.TrimSpace(doc.Find(".modal-error").Text()))
}

func TestPlayerPanel(t *testing.T) {
	r := newTestRenderer(t, false)

	doc := render(t, r, TplPlayer, player.Panel{Err: player.ErrNoEpisodes, Message: player.Message(player.ErrNoEpisodes)})
	assert.Equal(t, "Phim này chưa có tập nào để xem.", strings.TrimSpace(doc.Find(".player-error").Text()))

	servers := []movie.ServerGroup{
		{Name: "Vietsub #1", Episodes: []movie.Episode{{Name: "1"}, {Name: "2"}}},
		{Name: "Lồng Tiếng", Episodes: []movie.Episode{{Name: "1"}}},
	}
	panel := player.Panel{
		Title:        "Phim",
		Mode:         player.ModeEmbedded,
		EmbedURL:     "https://embed.example/1",
		Episode:      0,
		EpisodeLabel: "Tập 1 / 2",
		Groups:       player.GroupServers(servers, 0),
		Slots:        movie.EpisodeSlots(servers[0].Episodes, "", 0),
		HasNext:      true,
		Next:         1,
		Prev:         -1,
	}
	doc = render(t, r, TplPlayer, panel)
	assert.Equal(t, "https://embed.example/1", doc.Find("iframe#embedFrame").AttrOr("src", ""))
	assert.Zero(t, doc.Find("video").Length())
	assert.Equal(t, 2, doc.Find(".server-group").Length())
	assert.Equal(t, 1, doc.Find(".server-btn.active").Length())
	assert.Equal(t, "0", doc.Find(".episode-btn.active").AttrOr("data-episode-idx", ""))

	_, prevDisabled := doc.Find("[data-nav-episode]").First().Attr("disabled")
	assert.True(t, prevDisabled)
	_, nextDisabled := doc.Find("[data-nav-episode]").Last().Attr("disabled")
	assert.False(t, nextDisabled)

	panel.Mode = player.ModeAdaptive
	panel.Adaptive = true
	panel.StreamURL = "/player/stream.m3u8?g=1"
	doc = render(t, r, TplPlayer, panel)
	assert.Equal(t, "/player/stream.m3u8?g=1", doc.Find("video#hlsVideo").AttrOr("data-src", ""))
	assert.True(t, doc.Find(`.mode-toggle [data-mode="adaptive"]`).HasClass("active"))
}

func TestFilteredView(t *testing.T) {
	var movies []movie.Summary
	for i := 0; i < 20; i++ {
		movies = append(movies, movie.Summary{Slug: "m" + strconv.Itoa(i), Name: "Phim"})
	}
	p, _, _ := router.Paginate(45, 2, 20)
	v := NewFiltered(router.Result{
		Title:      "Thể loại: Hành Động",
		Sortable:   true,
		Sort:       router.SortNameAZ,
		Movies:     movies,
		Count:      "Tổng: 45 phim",
		Pagination: p,
	})

	doc := render(t, newTestRenderer(t, false), TplFiltered, v)
	assert.Equal(t, "Thể loại: Hành Động", doc.Find("#filteredTitle").Text())
	assert.Equal(t, "Tổng: 45 phim", doc.Find(".filtered-count").Text())
	assert.Equal(t, string(router.SortNameAZ), doc.Find("#sortSelect option[selected]").AttrOr("value", ""))
	assert.Equal(t, 20, doc.Find("#filteredGrid .movie-card").Length())
	assert.Equal(t, "2", doc.Find(".page-btn.active").Text())
	assert.Equal(t, p.Range, doc.Find(".page-range").Text())

	doc = render(t, newTestRenderer(t, false), TplFiltered, NewFiltered(router.Result{
		Title:   "Kết quả tìm kiếm: \"x\"",
		Failed:  true,
		Message: "Không tìm thấy kết quả",
	}))
	assert.Zero(t, doc.Find("#sortSelect").Length())
	assert.Equal(t, "Không tìm thấy kết quả", doc.Find(".grid-placeholder.error").Text())
}

func TestSuggestionsAndActors(t *testing.T) {
	r := newTestRenderer(t, false)
	s := search.Suggestions{Query: "dem", Items: []movie.Summary{{Slug: "dem", Name: "Đêm"}}, HasMore: true}

	doc := render(t, r, TplSuggestions, NewSuggestions(s, false))
	list := doc.Find(".suggestion-list")
	assert.Equal(t, "true", list.AttrOr("data-has-more", ""))
	assert.Equal(t, 1, list.Find(".suggestion-item").Length())

	doc = render(t, r, TplSuggestions, NewSuggestions(s, true))
	assert.Zero(t, doc.Find(".suggestion-list").Length())
	assert.Equal(t, 1, doc.Find(".suggestion-item").Length())

	doc = render(t, r, TplActors, NewActors("thành", []string{"Trấn Thành", "Thanh Hằng"}))
	items := doc.Find(".actor-suggestion")
	require.Equal(t, 2, items.Length())
	assert.Equal(t, "Trấn Thành", items.First().AttrOr("data-actor", ""))
	assert.Equal(t, "Thành", items.First().Find("mark").Text())
	assert.Empty(t, items.Last().Find("mark").Text())
}

func TestPage(t *testing.T) {
	r := newTestRenderer(t, false)
	page := Page{
		Title: "CamCam",
		Hero:  NewHero(&ophim.Listing{Items: []movie.Summary{{Slug: "h", Name: "Hero"}}}),
		Continue: NewContinue([]storage.WatchEntry{
			{Slug: "c", Name: "Continue", EpisodeName: "3", Progress: 0.4, UpdatedAt: time.Now().Add(-time.Hour)},
		}),
		Sections: []Section{
			{ID: "newMovies", Title: "Phim mới", Grid: NewGrid([]movie.Summary{{Slug: "a", Name: "A"}}, 12)},
			{ID: "singleMovies", Title: "Phim lẻ", Grid: ErrorGrid("")},
			{ID: "seriesMovies", Title: "Phim bộ", Grid: Grid{Message: MessageEmpty}},
			{ID: "animationMovies", Title: "Hoạt hình", Grid: LoadingGrid(6)},
		},
		Genres:    []movie.Taxon{{Slug: "hanh-dong", Name: "Hành Động"}},
		Countries: []movie.Taxon{{Slug: "han-quoc", Name: "Hàn Quốc"}},
		Skeletons: 6,
	}

	doc := render(t, r, TplPage, page)
	for _, id := range []string{"newMovies", "singleMovies", "seriesMovies", "animationMovies", "filteredSection", "movieModal", "playerModal"} {
		assert.Equal(t, 1, doc.Find("#"+id).Length(), id)
	}
	assert.Equal(t, "#the-loai/hanh-dong", doc.Find("#genreMenu a").AttrOr("href", ""))
	assert.Equal(t, "#quoc-gia/han-quoc", doc.Find("#countryMenu a").AttrOr("href", ""))
	assert.Equal(t, "Hero", doc.Find(".hero-title").Text())
	assert.Equal(t, "c", doc.Find("#continueWatching .continue-item").AttrOr("data-slug", ""))
	assert.Contains(t, doc.Find(".continue-time").Text(), "hour")
	assert.Equal(t, "display:none", doc.Find("#filteredSection").AttrOr("style", ""))
	assert.Equal(t, 1, doc.Find("template#tplGridLoading").Length())

	page.Filtered = NewFiltered(router.Result{Route: router.Parse("#the-loai/hanh-dong"), Title: "Thể loại: Hành Động", Message: "Không có phim nào trong thể loại này"})
	doc = render(t, r, TplPage, page)
	assert.Equal(t, "#the-loai/hanh-dong", doc.Find("#filteredSection").AttrOr("data-fragment", ""))
	assert.Equal(t, "display:none", doc.Find("#homeSections").AttrOr("style", ""))
}
