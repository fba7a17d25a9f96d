package ophim

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"camcam/internal/movie"
)

// Pagination as reported by the listing endpoints.
type Pagination struct {
	TotalItems  int `json:"total_items"`
	PerPage     int `json:"per_page"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// Listing is the canonical shape of every list response, whichever
// envelope the API used.
type Listing struct {
	Items      []movie.Summary
	Pagination *Pagination
}

// LastPage reports whether page is the last one the server knows about.
func (l *Listing) LastPage(page int) bool {
	return l != nil && l.Pagination != nil && l.Pagination.TotalPages > 0 && page >= l.Pagination.TotalPages
}

type wirePagination struct {
	TotalItems        flexInt `json:"totalItems"`
	TotalItemsPerPage flexInt `json:"totalItemsPerPage"`
	CurrentPage       flexInt `json:"currentPage"`
	TotalPages        flexInt `json:"totalPages"`
}

func (p *wirePagination) normalize() *Pagination {
	if p == nil {
		return nil
	}
	out := &Pagination{
		TotalItems:  int(p.TotalItems),
		PerPage:     int(p.TotalItemsPerPage),
		CurrentPage: int(p.CurrentPage),
		TotalPages:  int(p.TotalPages),
	}
	if out.TotalPages == 0 && out.PerPage > 0 {
		out.TotalPages = (out.TotalItems + out.PerPage - 1) / out.PerPage
	}
	return out
}

type envelopeData[T any] struct {
	Items  *[]T `json:"items"`
	Item   *T   `json:"item"`
	Params *struct {
		Pagination *wirePagination `json:"pagination"`
	} `json:"params"`
}

type envelope[T any] struct {
	Items      *[]T             `json:"items"`
	Pagination *wirePagination  `json:"pagination"`
	Data       *envelopeData[T] `json:"data"`
}

// extractItems probes the flat {items} envelope first, then the nested
// {data:{items}} one. A bare JSON array is accepted last. ok is false when
// no items list is present at all.
func extractItems[T any](raw []byte) (items []T, page *Pagination, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, nil, false
		}
		return items, nil, true
	}

	var env envelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, nil, false
	}
	if env.Items != nil {
		return *env.Items, env.Pagination.normalize(), true
	}
	if env.Data != nil && env.Data.Items != nil {
		var p *wirePagination
		if env.Data.Params != nil {
			p = env.Data.Params.Pagination
		}
		return *env.Data.Items, p.normalize(), true
	}
	return nil, nil, false
}

// extractItem reads the {data:{item}} envelope of detail responses.
func extractItem[T any](raw []byte) (*T, bool) {
	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	if env.Data == nil || env.Data.Item == nil {
		return nil, false
	}
	return env.Data.Item, true
}

type wireTaxon struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type wireEpisode struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Embed    string `json:"link_embed"`
	Manifest string `json:"link_m3u8"`
}

type wireServer struct {
	Name string        `json:"server_name"`
	Data []wireEpisode `json:"server_data"`
}

type wireMovie struct {
	Slug           string      `json:"slug"`
	Name           string      `json:"name"`
	OriginName     string      `json:"origin_name"`
	PosterURL      string      `json:"poster_url"`
	ThumbURL       string      `json:"thumb_url"`
	Year           flexInt     `json:"year"`
	Quality        string      `json:"quality"`
	EpisodeCurrent string      `json:"episode_current"`
	EpisodeTotal   flexString  `json:"episode_total"`
	Lang           string      `json:"lang"`
	Content        string      `json:"content"`
	Time           string      `json:"time"`
	Chieurap       bool        `json:"chieurap"`
	Category       []wireTaxon `json:"category"`
	Country        []wireTaxon `json:"country"`
	Actor          []string    `json:"actor"`
	Director       []string    `json:"director"`
	TMDB           *struct {
		VoteAverage flexFloat `json:"vote_average"`
	} `json:"tmdb"`
	Episodes []wireServer `json:"episodes"`
}

func (w wireMovie) summary() movie.Summary {
	s := movie.Summary{
		Slug:           w.Slug,
		Name:           w.Name,
		OriginName:     w.OriginName,
		PosterURL:      w.PosterURL,
		ThumbURL:       w.ThumbURL,
		Year:           int(w.Year),
		Quality:        w.Quality,
		EpisodeCurrent: w.EpisodeCurrent,
		Lang:           w.Lang,
		Actors:         w.Actor,
		Content:        w.Content,
	}
	if w.TMDB != nil {
		s.Rating = float64(w.TMDB.VoteAverage)
	}
	return s
}

func (w wireMovie) detail() *movie.Detail {
	d := &movie.Detail{
		Summary:      w.summary(),
		Time:         w.Time,
		EpisodeTotal: string(w.EpisodeTotal),
		Theatrical:   w.Chieurap,
		Categories:   taxa(w.Category),
		Countries:    taxa(w.Country),
		Directors:    w.Director,
	}
	for _, srv := range w.Episodes {
		group := movie.ServerGroup{Name: srv.Name}
		for _, ep := range srv.Data {
			group.Episodes = append(group.Episodes, movie.Episode{
				Name:        ep.Name,
				Slug:        ep.Slug,
				EmbedURL:    ep.Embed,
				ManifestURL: ep.Manifest,
			})
		}
		d.Servers = append(d.Servers, group)
	}
	return d
}

func taxa(in []wireTaxon) []movie.Taxon {
	out := make([]movie.Taxon, 0, len(in))
	for _, t := range in {
		out = append(out, movie.Taxon{Slug: t.Slug, Name: t.Name})
	}
	return out
}

func summaries(in []wireMovie) []movie.Summary {
	out := make([]movie.Summary, 0, len(in))
	for _, w := range in {
		out = append(out, w.summary())
	}
	return out
}

// flexInt accepts numbers, numeric strings and null.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		*n = flexInt(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = flexInt(f)
		return nil
	}
	*n = 0
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexString accepts strings and bare numbers.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	*s = flexString(b)
	return nil
}
