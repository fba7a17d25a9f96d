// Package detail builds the movie detail modal.
package detail

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"camcam/internal/movie"
	"camcam/internal/session"
)

const (
	placeholderContent    = "Đang cập nhật nội dung..."
	placeholderCategories = "Chưa phân loại"
	placeholderCountries  = "Không rõ"
	placeholderPeople     = "Đang cập nhật"
	loadFailed            = "Không thể tải thông tin phim"
)

type Fetcher interface {
	Detail(ctx context.Context, slug string) *movie.Detail
}

type ActorLink struct {
	Name     string
	Fragment string
}

// Modal is the view model of the detail overlay.
type Modal struct {
	Loading bool
	Error   string
	// Stale is set when a newer detail request replaced this one.
	Stale bool

	Slug       string
	Name       string
	OriginName string
	Poster     string
	Year       string
	Time       string
	Quality    string
	Lang       string
	Status     string
	Rating     float64
	Theatrical bool
	Content    string
	Categories string
	Countries  string
	Directors  string
	Actors     []ActorLink
	ActorsText string
	ServerName string
	Episodes   []movie.Slot
}

type Service struct {
	api     Fetcher
	images  movie.ImageResolver
	ceiling int
	logger  zerolog.Logger
}

func NewService(api Fetcher, images movie.ImageResolver, upcomingCeiling int, logger zerolog.Logger) *Service {
	return &Service{api: api, images: images, ceiling: upcomingCeiling, logger: logger}
}

// Loading is shown synchronously while Show runs.
func (s *Service) Loading(slug string) Modal {
	return Modal{Loading: true, Slug: slug}
}

// Show fetches slug and, unless a newer request began meanwhile, makes it
// the session's current movie.
func (s *Service) Show(ctx context.Context, sess *session.Session, slug string) Modal {
	token := sess.BeginDetail()

	d := s.api.Detail(ctx, slug)
	if d == nil {
		s.logger.Warn().Str("slug", slug).Msg("detail unavailable")
		return Modal{Slug: slug, Error: loadFailed}
	}

	if !sess.CommitDetail(token, d) {
		s.logger.Debug().Str("slug", slug).Msg("detail superseded")
		return Modal{Slug: slug, Stale: true}
	}
	sess.Movies.Put([]movie.Summary{d.Summary})
	sess.Actors.Add([]movie.Summary{d.Summary})

	return s.Build(d)
}

// Build maps a detail record to its modal.
func (s *Service) Build(d *movie.Detail) Modal {
	m := Modal{
		Slug:       d.Slug,
		Name:       d.Name,
		OriginName: orDefault(d.OriginName, d.Name),
		Poster:     s.images.Resolve(d.Poster()),
		Year:       "N/A",
		Time:       orDefault(d.Time, "N/A"),
		Quality:    orDefault(d.Quality, "HD"),
		Lang:       orDefault(d.Lang, "Vietsub"),
		Status:     orDefault(d.EpisodeCurrent, "Full"),
		Rating:     d.Rating,
		Theatrical: d.Theatrical,
		Content:    orDefault(movie.StripHTML(d.Content), placeholderContent),
		Categories: movie.JoinOr(movie.Names(d.Categories), placeholderCategories),
		Countries:  movie.JoinOr(movie.Names(d.Countries), placeholderCountries),
		Directors:  movie.JoinOr(d.Directors, placeholderPeople),
		ActorsText: movie.JoinOr(d.Actors, placeholderPeople),
	}
	if d.Year > 0 {
		m.Year = strconv.Itoa(d.Year)
	}
	for _, a := range d.Actors {
		if a == "" {
			continue
		}
		m.Actors = append(m.Actors, ActorLink{Name: a, Fragment: "#dien-vien/" + url.PathEscape(a)})
	}

	if len(d.Servers) > 0 && len(d.Servers[0].Episodes) > 0 {
		m.ServerName = d.Servers[0].Name
		m.Episodes = movie.EpisodeSlots(d.Servers[0].Episodes, d.EpisodeTotal, s.ceiling)
	}
	return m
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
