package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"camcam/internal/movie"
	"camcam/internal/ophim"
	"camcam/internal/router"
	"camcam/internal/session"
	"camcam/internal/view"
)

const siteTitle = "CamCam - Xem phim online"

type homeSection struct {
	id    string
	title string
	path  string
}

func (h *Handler) homeSections() []homeSection {
	ep := h.client.Endpoints()
	return []homeSection{
		{"newMovies", "🔥 Phim Mới Cập Nhật", ep.Newest},
		{"singleMovies", "🎬 Phim Lẻ", ep.Single},
		{"seriesMovies", "📺 Phim Bộ", ep.Series},
		{"animationMovies", "🎨 Hoạt Hình", ep.Animation},
	}
}

// homePage fetches the four sections and both menus concurrently. Each
// section fails on its own; a missing menu keeps whatever the session had.
func (h *Handler) homePage(ctx context.Context, sess *session.Session) view.Page {
	sections := h.homeSections()
	listings := make([]*ophim.Listing, len(sections))
	var genres, countries []movie.Taxon

	var wg sync.WaitGroup
	for i, s := range sections {
		i, s := i, s
		wg.Add(1)
		go func() {
			defer wg.Done()
			listings[i] = h.client.Listing(ctx, s.path, map[string]any{"page": 1})
		}()
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		genres = h.client.Genres(ctx)
	}()
	go func() {
		defer wg.Done()
		countries = h.client.Countries(ctx)
	}()
	wg.Wait()

	sess.SetTaxonomy(genres, countries)
	genres, countries = sess.Taxonomy()

	page := view.Page{
		Title:     siteTitle,
		Hero:      view.NewHero(listings[0]),
		Genres:    genres,
		Countries: countries,
		Skeletons: h.cfg.Catalog.Skeletons,
		Continue:  h.continueItems(sess.ID),
	}
	for i, s := range sections {
		if l := listings[i]; l != nil {
			sess.Movies.Put(l.Items)
			sess.Actors.Add(l.Items)
		}
		page.Sections = append(page.Sections, view.Section{
			ID:    s.id,
			Title: s.title,
			Grid:  view.ListingGrid(listings[i], h.cfg.Catalog.HomeLimit),
		})
	}
	return page
}

func (h *Handler) continueItems(viewerID string) []view.ContinueItem {
	if h.storage == nil {
		return nil
	}
	entries, err := h.storage.GetContinueWatching(viewerID, h.cfg.Catalog.HomeLimit)
	if err != nil {
		h.logger.Warn().Err(err).Msg("failed to load continue watching")
		return nil
	}
	return view.NewContinue(entries)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	h.render(w, view.TplPage, h.homePage(r.Context(), sess))
}

// Route dispatches a hash fragment. Home answers 204 with X-Route-Home so
// the script shows the home sections it already has.
func (h *Handler) Route(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	res := h.router.Dispatch(r.Context(), sess, q.Get("fragment"), router.Options{
		Sort: q.Get("sort"),
		Page: page,
	})
	if res.Home {
		w.Header().Set("X-Route-Home", "1")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.render(w, view.TplFiltered, view.NewFiltered(res))
}

// FilteredPage renders a filtered route as a full document, for direct
// links such as /the-loai/hanh-dong.
func (h *Handler) FilteredPage(kind router.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r)
		if !ok {
			return
		}
		arg := chi.URLParam(r, "arg")
		if u, err := url.PathUnescape(arg); err == nil {
			arg = u
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))

		p := h.homePage(r.Context(), sess)
		fragment := router.Route{Kind: kind, Arg: arg}.Fragment()
		res := h.router.Dispatch(r.Context(), sess, fragment, router.Options{
			Sort: r.URL.Query().Get("sort"),
			Page: page,
		})
		if !res.Home {
			p.Filtered = view.NewFiltered(res)
			p.Title = res.Title + " - CamCam"
		}
		h.render(w, view.TplPage, p)
	}
}

// Detail answers 204 when a newer detail request of the same session
// replaced this one.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	slug := chi.URLParam(r, "slug")

	m := h.detail.Show(r.Context(), sess, slug)
	if m.Stale {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.render(w, view.TplDetail, m)
}
