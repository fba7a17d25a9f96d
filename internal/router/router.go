package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"camcam/internal/movie"
	"camcam/internal/ophim"
	"camcam/internal/session"
)

// API is the part of the upstream client the router needs.
type API interface {
	Listing(ctx context.Context, path string, params map[string]any) *ophim.Listing
	Search(ctx context.Context, keyword string, page, limit int) *ophim.Listing
	Endpoints() ophim.Endpoints
}

type Config struct {
	PageSize int
	MaxPages int
}

// Options carries sort and page changes. Both zero means a fresh
// navigation that refetches.
type Options struct {
	Sort string
	Page int
}

func (o Options) fresh() bool {
	return o.Sort == "" && o.Page == 0
}

// Result is the view model of one dispatch.
type Result struct {
	Route     Route
	Home      bool
	ScrollTop bool

	Title      string
	Sortable   bool
	Sort       SortMode
	Movies     []movie.Summary
	Total      int
	Count      string
	Pagination *Pagination
	// Message replaces the grid when there is nothing to show.
	Message string
	Failed  bool
}

type Router struct {
	api    API
	cfg    Config
	logger zerolog.Logger
}

func New(api API, cfg Config, logger zerolog.Logger) *Router {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	return &Router{api: api, cfg: cfg, logger: logger}
}

// Dispatch routes fragment for sess.
func (r *Router) Dispatch(ctx context.Context, sess *session.Session, fragment string, opts Options) Result {
	route := Parse(fragment)

	r.logger.Debug().
		Str("session", sess.ID).
		Str("route", string(route.Kind)).
		Str("arg", route.Arg).
		Str("sort", opts.Sort).
		Int("page", opts.Page).
		Msg("dispatch")

	switch route.Kind {
	case KindGenre:
		genres, _ := sess.Taxonomy()
		title := "Thể loại: " + movie.LookupName(genres, route.Arg)
		return r.filtered(ctx, sess, route, title, r.api.Endpoints().GenrePath(route.Arg),
			"Không có phim nào trong thể loại này", opts)
	case KindCountry:
		_, countries := sess.Taxonomy()
		title := "Quốc gia: " + movie.LookupName(countries, route.Arg)
		return r.filtered(ctx, sess, route, title, r.api.Endpoints().CountryPath(route.Arg),
			"Không có phim nào từ quốc gia này", opts)
	case KindSearch:
		return r.search(ctx, sess, route)
	case KindActor:
		return r.actor(ctx, sess, route)
	}

	sess.ClearBrowse()
	return Result{Route: route, Home: true, ScrollTop: true}
}

func (r *Router) filtered(ctx context.Context, sess *session.Session, route Route, title, path, empty string, opts Options) Result {
	b, ok := sess.Browse(route.Key())
	if !ok || opts.fresh() {
		movies := r.LoadAllPages(ctx, path)
		sess.Movies.Put(movies)
		sess.Actors.Add(movies)
		b = session.Browse{Key: route.Key(), Title: title, Movies: movies}
	}

	mode := ParseSort(opts.Sort)
	if opts.Sort == "" && ok && !opts.fresh() {
		mode = ParseSort(b.Sort)
	}
	b.Sort = string(mode)
	b.Page = opts.Page
	sess.SetBrowse(b)

	res := Result{
		Route:    route,
		Title:    b.Title,
		Sortable: true,
		Sort:     mode,
	}
	if len(b.Movies) == 0 {
		res.Message = empty
		return res
	}

	sorted := Sort(b.Movies, mode)
	p, start, end := Paginate(len(sorted), opts.Page, r.cfg.PageSize)
	res.Movies = sorted[start:end]
	res.Total = len(sorted)
	res.Count = countLabel(len(sorted))
	res.Pagination = p
	return res
}

// LoadAllPages aggregates up to MaxPages pages of path. It stops at the
// first failed or empty page and when the reported last page is reached.
func (r *Router) LoadAllPages(ctx context.Context, path string) []movie.Summary {
	var all []movie.Summary
	for page := 1; page <= r.cfg.MaxPages; page++ {
		l := r.api.Listing(ctx, path, map[string]any{"page": page})
		if l == nil || len(l.Items) == 0 {
			break
		}
		all = append(all, l.Items...)
		if l.LastPage(page) {
			break
		}
	}
	return all
}

func (r *Router) search(ctx context.Context, sess *session.Session, route Route) Result {
	sess.ClearBrowse()
	res := Result{
		Route: route,
		Title: fmt.Sprintf("Kết quả tìm kiếm: \"%s\"", route.Arg),
	}

	l := r.api.Search(ctx, route.Arg, 0, 0)
	if l == nil {
		res.Failed = true
		res.Message = "Không tìm thấy kết quả"
		return res
	}
	sess.Movies.Put(l.Items)
	sess.Actors.Add(l.Items)

	res.Movies = l.Items
	res.Total = len(l.Items)
	res.Count = countLabel(len(l.Items))
	return res
}

func (r *Router) actor(ctx context.Context, sess *session.Session, route Route) Result {
	sess.ClearBrowse()
	res := Result{
		Route: route,
		Title: "🎭 Phim của diễn viên: " + route.Arg,
	}
	notFound := fmt.Sprintf("Không tìm thấy phim nào của diễn viên \"%s\"", route.Arg)

	l := r.api.Search(ctx, route.Arg, 0, 0)
	if l == nil {
		res.Failed = true
		res.Message = notFound
		return res
	}
	sess.Movies.Put(l.Items)
	sess.Actors.Add(l.Items)

	res.Movies = FilterByActor(l.Items, route.Arg)
	if len(res.Movies) == 0 {
		res.Message = notFound
		return res
	}
	res.Total = len(res.Movies)
	res.Count = countLabel(len(res.Movies))
	return res
}

// FilterByActor keeps movies whose actor list has a case-insensitive
// substring match of name.
func FilterByActor(movies []movie.Summary, name string) []movie.Summary {
	needle := strings.ToLower(strings.TrimSpace(name))
	var out []movie.Summary
	for _, m := range movies {
		for _, a := range m.Actors {
			if strings.Contains(strings.ToLower(a), needle) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func countLabel(n int) string {
	return "Tổng: " + humanize.Comma(int64(n)) + " phim"
}
