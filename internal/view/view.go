// Package view renders the catalog pages and fragments with html/template.
// Every API string reaches the markup through the template engine, which
// escapes it for its context.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"camcam/internal/detail"
	"camcam/internal/movie"
	"camcam/internal/ophim"
	"camcam/internal/router"
	"camcam/internal/search"
	"camcam/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	MessageEmpty = "Không có phim nào"
	MessageError = "Không thể tải dữ liệu"

	heroFallback   = "Xem ngay để khám phá nội dung hấp dẫn!"
	heroMaxContent = 200
)

// Card is one movie tile. Poster is the raw API reference; the template
// resolves it.
type Card struct {
	Slug       string
	Name       string
	OriginName string
	Poster     string
	Quality    string
	Status     string
	Lang       string
	Year       int
	Rating     float64
}

func NewCard(m movie.Summary) Card {
	c := Card{
		Slug:       m.Slug,
		Name:       m.Name,
		OriginName: m.OriginName,
		Poster:     m.Poster(),
		Quality:    m.Quality,
		Status:     m.EpisodeCurrent,
		Lang:       m.Lang,
		Year:       m.Year,
		Rating:     m.Rating,
	}
	if c.Quality == "" {
		c.Quality = "HD"
	}
	if c.Status == "" {
		c.Status = "Full"
	}
	if c.Year <= 0 {
		c.Year = time.Now().Year()
	}
	return c
}

func (c Card) HasRating() bool {
	return c.Rating > 0
}

func (c Card) RatingText() string {
	return humanize.FtoaWithDigits(c.Rating, 1)
}

// Grid fills a movie container: cards, skeletons, or a message in the
// placeholder slot.
type Grid struct {
	Cards     []Card
	Skeletons int
	Message   string
	Failed    bool
}

// NewGrid renders at most limit movies; limit <= 0 renders all.
func NewGrid(movies []movie.Summary, limit int) Grid {
	if len(movies) == 0 {
		return Grid{Message: MessageEmpty}
	}
	if limit > 0 && len(movies) > limit {
		movies = movies[:limit]
	}
	cards := make([]Card, 0, len(movies))
	for _, m := range movies {
		cards = append(cards, NewCard(m))
	}
	return Grid{Cards: cards}
}

func LoadingGrid(n int) Grid {
	return Grid{Skeletons: n}
}

func ErrorGrid(msg string) Grid {
	if msg == "" {
		msg = MessageError
	}
	return Grid{Message: msg, Failed: true}
}

// ListingGrid treats a nil listing as a fetch failure and an empty one as
// "no movies".
func ListingGrid(l *ophim.Listing, limit int) Grid {
	if l == nil {
		return ErrorGrid("")
	}
	return NewGrid(l.Items, limit)
}

// Skeleton returns n placeholders for range loops in templates.
func (g Grid) Skeleton() []struct{} {
	return make([]struct{}, g.Skeletons)
}

type Hero struct {
	Slug        string
	Name        string
	Poster      string
	Description string
	Year        int
}

// NewHero features the first movie of the newest listing, or nothing.
func NewHero(l *ophim.Listing) *Hero {
	if l == nil || len(l.Items) == 0 {
		return nil
	}
	m := l.Items[0]
	h := &Hero{
		Slug:        m.Slug,
		Name:        m.Name,
		Poster:      m.Poster(),
		Description: heroFallback,
		Year:        m.Year,
	}
	if text := movie.StripHTML(m.Content); text != "" {
		h.Description = movie.Truncate(text, heroMaxContent)
	}
	if h.Year <= 0 {
		h.Year = time.Now().Year()
	}
	return h
}

type Section struct {
	ID    string
	Title string
	Grid  Grid
}

type FilteredView struct {
	router.Result
	Grid  Grid
	Sorts []router.SortOption
}

func NewFiltered(res router.Result) *FilteredView {
	v := &FilteredView{Result: res, Sorts: router.SortOptions}
	switch {
	case res.Failed:
		v.Grid = ErrorGrid(res.Message)
	case res.Message != "":
		v.Grid = Grid{Message: res.Message}
	default:
		v.Grid = NewGrid(res.Movies, 0)
	}
	return v
}

type ContinueItem struct {
	Slug        string
	Name        string
	Poster      string
	EpisodeName string
	Percent     int
	Watched     string
}

func NewContinue(entries []storage.WatchEntry) []ContinueItem {
	items := make([]ContinueItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ContinueItem{
			Slug:        e.Slug,
			Name:        e.Name,
			Poster:      e.Poster,
			EpisodeName: e.EpisodeName,
			Percent:     int(e.Progress * 100),
			Watched:     humanize.Time(e.UpdatedAt),
		})
	}
	return items
}

type SuggestionsView struct {
	Query   string
	Cards   []Card
	HasMore bool
	// Append renders only the items, for infinite scroll.
	Append bool
}

func NewSuggestions(s search.Suggestions, appendOnly bool) SuggestionsView {
	v := SuggestionsView{Query: s.Query, HasMore: s.HasMore, Append: appendOnly}
	for _, m := range s.Items {
		v.Cards = append(v.Cards, NewCard(m))
	}
	return v
}

// Highlight splits a name around the first case-insensitive match.
type Highlight struct {
	Name   string
	Before string
	Match  string
	After  string
}

type ActorsView struct {
	Query string
	Names []Highlight
}

func NewActors(query string, names []string) ActorsView {
	v := ActorsView{Query: query}
	for _, n := range names {
		v.Names = append(v.Names, highlight(n, query))
	}
	return v
}

func highlight(name, query string) Highlight {
	h := Highlight{Name: name, Before: name}
	lower, q := strings.ToLower(name), strings.ToLower(strings.TrimSpace(query))
	if q == "" || len(lower) != len(name) {
		return h
	}
	i := strings.Index(lower, q)
	if i < 0 {
		return h
	}
	h.Before, h.Match, h.After = name[:i], name[i:i+len(q)], name[i+len(q):]
	return h
}

// Page is the full document.
type Page struct {
	Title       string
	Hero        *Hero
	Continue    []ContinueItem
	Sections    []Section
	Genres      []movie.Taxon
	Countries   []movie.Taxon
	Filtered    *FilteredView
	Skeletons   int
}

// LoadingGrid is the skeleton markup the script clones while a route loads.
func (p Page) LoadingGrid() Grid {
	return LoadingGrid(p.Skeletons)
}

func (p Page) ErrorGrid() Grid {
	return ErrorGrid("")
}

func (p Page) LoadingModal() detail.Modal {
	return detail.Modal{Loading: true}
}

// Renderer executes the embedded templates.
type Renderer struct {
	tpl    *template.Template
	images movie.ImageResolver
	proxy  bool
}

// NewRenderer parses the templates. With proxy set, poster URLs go
// through the local /poster endpoint.
func NewRenderer(images movie.ImageResolver, proxy bool) (*Renderer, error) {
	r := &Renderer{images: images, proxy: proxy}

	tpl, err := template.New("camcam").Funcs(template.FuncMap{
		"poster":      r.PosterURL,
		"placeholder": func() string { return images.Placeholder },
		"genreLink":   func(slug string) string { return "#" + string(router.KindGenre) + "/" + url.PathEscape(slug) },
		"countryLink": func(slug string) string { return "#" + string(router.KindCountry) + "/" + url.PathEscape(slug) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.tpl = tpl
	return r, nil
}

// PosterURL resolves a raw poster reference for the browser.
func (r *Renderer) PosterURL(raw string) string {
	u := r.images.Resolve(raw)
	if !r.proxy || u == r.images.Placeholder || !strings.HasPrefix(u, strings.TrimRight(r.images.Host, "/")+"/") {
		return u
	}
	return "/poster?u=" + url.QueryEscape(u)
}

func (r *Renderer) Render(w io.Writer, name string, data any) error {
	return r.tpl.ExecuteTemplate(w, name, data)
}

// Fragment names.
const (
	TplPage        = "page"
	TplGrid        = "grid"
	TplHero        = "hero"
	TplFiltered    = "filtered"
	TplDetail      = "detail"
	TplPlayer      = "player"
	TplSuggestions = "suggestions"
	TplActors      = "actors"
	TplContinue    = "continue"
)
