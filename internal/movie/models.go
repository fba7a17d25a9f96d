package movie

import "strings"

// Summary is a list-view record as returned by the listing endpoints.
type Summary struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	OriginName     string   `json:"origin_name"`
	PosterURL      string   `json:"poster_url"`
	ThumbURL       string   `json:"thumb_url"`
	Year           int      `json:"year"`
	Quality        string   `json:"quality"`
	EpisodeCurrent string   `json:"episode_current"`
	Lang           string   `json:"lang"`
	Rating         float64  `json:"rating,omitempty"`
	Actors         []string `json:"actor,omitempty"`
	Content        string   `json:"content,omitempty"`
}

// Poster returns the raw poster reference, falling back to the thumbnail.
func (s Summary) Poster() string {
	if s.PosterURL != "" {
		return s.PosterURL
	}
	return s.ThumbURL
}

type Detail struct {
	Summary
	Time         string        `json:"time"`
	EpisodeTotal string        `json:"episode_total"`
	Theatrical   bool          `json:"chieurap"`
	Categories   []Taxon       `json:"category"`
	Countries    []Taxon       `json:"country"`
	Directors    []string      `json:"director"`
	Servers      []ServerGroup `json:"episodes"`
}

// ServerGroup is a named source; index 0 is the default server.
type ServerGroup struct {
	Name     string    `json:"server_name"`
	Episodes []Episode `json:"server_data"`
}

type Episode struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	EmbedURL    string `json:"link_embed"`
	ManifestURL string `json:"link_m3u8"`
}

// Adaptive reports whether the episode carries an HLS manifest.
func (e Episode) Adaptive() bool {
	return strings.TrimSpace(e.ManifestURL) != ""
}

// Taxon is a genre or a country.
type Taxon struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// LookupName returns the display name for slug, or slug itself when absent.
func LookupName(taxa []Taxon, slug string) string {
	for _, t := range taxa {
		if t.Slug == slug && t.Name != "" {
			return t.Name
		}
	}
	return slug
}

// Names joins the display names of taxa.
func Names(taxa []Taxon) []string {
	names := make([]string, 0, len(taxa))
	for _, t := range taxa {
		names = append(names, t.Name)
	}
	return names
}
