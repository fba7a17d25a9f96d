// Package ophim talks to the public ophim movie API.
package ophim

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"camcam/internal/movie"
)

const maxBodySize = 16 << 20

// Endpoints holds the path templates of the remote API.
type Endpoints struct {
	Newest        string `yaml:"newest"`
	Single        string `yaml:"single"`
	Series        string `yaml:"series"`
	Animation     string `yaml:"animation"`
	Search        string `yaml:"search"`
	Detail        string `yaml:"detail"`
	Genres        string `yaml:"genres"`
	GenreFilter   string `yaml:"genre_filter"`
	Countries     string `yaml:"countries"`
	CountryFilter string `yaml:"country_filter"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Newest:        "/danh-sach/phim-moi-cap-nhat",
		Single:        "/v1/api/danh-sach/phim-le",
		Series:        "/v1/api/danh-sach/phim-bo",
		Animation:     "/v1/api/danh-sach/hoat-hinh",
		Search:        "/v1/api/tim-kiem",
		Detail:        "/phim",
		Genres:        "/the-loai",
		GenreFilter:   "/v1/api/the-loai",
		Countries:     "/quoc-gia",
		CountryFilter: "/v1/api/quoc-gia",
	}
}

func (e Endpoints) GenrePath(slug string) string {
	return strings.TrimRight(e.GenreFilter, "/") + "/" + url.PathEscape(slug)
}

func (e Endpoints) CountryPath(slug string) string {
	return strings.TrimRight(e.CountryFilter, "/") + "/" + url.PathEscape(slug)
}

func (e Endpoints) DetailPath(slug string) string {
	return strings.TrimRight(e.Detail, "/") + "/" + url.PathEscape(slug)
}

// Client performs single-attempt GET requests against the API. Every
// failure is logged and reported as "no data".
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL string, endpoints Endpoints, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		endpoints:  endpoints,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NewHTTPClient returns a pooled client. A zero timeout leaves requests
// bounded only by the dialer and the caller's context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
			ForceAttemptHTTP2:     true,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}

func (c *Client) Endpoints() Endpoints {
	return c.endpoints
}

// FetchJSON returns the raw JSON body of GET base+path?params, or nil on a
// non-2xx status, a transport error or a body that is not valid JSON.
func (c *Client) FetchJSON(ctx context.Context, path string, params map[string]any) []byte {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("invalid api url")
		return nil
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.logger.Error().Err(err).Str("url", u.String()).Msg("failed to build api request")
		return nil
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", u.String()).Msg("api request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Str("url", u.String()).
			Int("status", resp.StatusCode).
			Msg("api request returned non-success status")
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.logger.Warn().Err(err).Str("url", u.String()).Msg("failed to read api response")
		return nil
	}
	if !json.Valid(body) {
		c.logger.Warn().Str("url", u.String()).Msg("api response is not valid json")
		return nil
	}

	c.logger.Debug().
		Str("url", u.String()).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("api request")

	return body
}

// Listing fetches a movie list. It returns nil when the request failed or
// the payload carries no items list in either envelope.
func (c *Client) Listing(ctx context.Context, path string, params map[string]any) *Listing {
	raw := c.FetchJSON(ctx, path, params)
	if raw == nil {
		return nil
	}
	items, page, ok := extractItems[wireMovie](raw)
	if !ok {
		c.logger.Warn().Str("path", path).Msg("api response has no items")
		return nil
	}
	return &Listing{Items: summaries(items), Pagination: page}
}

// Search runs a keyword search. limit <= 0 leaves the server default.
func (c *Client) Search(ctx context.Context, keyword string, page, limit int) *Listing {
	params := map[string]any{"keyword": keyword}
	if page > 0 {
		params["page"] = page
	}
	if limit > 0 {
		params["limit"] = limit
	}
	return c.Listing(ctx, c.endpoints.Search, params)
}

// Detail fetches one movie with its episode listing.
func (c *Client) Detail(ctx context.Context, slug string) *movie.Detail {
	raw := c.FetchJSON(ctx, c.endpoints.DetailPath(slug), nil)
	if raw == nil {
		return nil
	}
	item, ok := extractItem[wireMovie](raw)
	if !ok {
		c.logger.Warn().Str("slug", slug).Msg("detail response has no item")
		return nil
	}
	return item.detail()
}

// Taxonomy fetches a genre or country list.
func (c *Client) Taxonomy(ctx context.Context, path string) []movie.Taxon {
	raw := c.FetchJSON(ctx, path, nil)
	if raw == nil {
		return nil
	}
	items, _, ok := extractItems[wireTaxon](raw)
	if !ok {
		c.logger.Warn().Str("path", path).Msg("taxonomy response has no items")
		return nil
	}
	return taxa(items)
}

func (c *Client) Genres(ctx context.Context) []movie.Taxon {
	return c.Taxonomy(ctx, c.endpoints.Genres)
}

func (c *Client) Countries(ctx context.Context) []movie.Taxon {
	return c.Taxonomy(ctx, c.endpoints.Countries)
}
