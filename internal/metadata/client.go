// Package metadata talks to the TMDB mirror for search, details and trending
// lists, and to the TMDB API for IMDb id lookups.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"unistream/internal/httputil"
	"unistream/internal/media"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

const (
	DefaultMirror  = "https://tmdb.hexa.watch/api/tmdb"
	DefaultAPIBase = "https://api.themoviedb.org/3"

	imageBase = "https://image.tmdb.org/t/p/w500"

	// source is the provider tag used on errors raised here.
	source = "metadata"
)

var (
	seasonWord = regexp.MustCompile(`(?i)\bseasons?\b`)
	detailsID  = regexp.MustCompile(`(?:^|/)(movie|tv)/(\d+)/?$`)
)

// Client is the metadata collaborator. It is safe for concurrent use.
type Client struct {
	mirror string
	api    string
	apiKey string
	hc     *http.Client
	ids    *cache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithMirror overrides the TMDB mirror base URL.
func WithMirror(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.mirror = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIBase overrides the TMDB API base URL.
func WithAPIBase(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.api = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIKey sets the TMDB bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New creates a metadata client.
func New(opts ...Option) *Client {
	c := &Client{
		mirror: DefaultMirror,
		api:    DefaultAPIBase,
		ids:    cache.New(time.Hour, 10*time.Minute), // 1 hour expiration, 10 minute cleanup
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = httputil.NewClient()
	}
	return c
}

// HasAPIKey reports whether a TMDB credential is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

func (c *Client) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + c.apiKey}
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	err := httputil.GetJSON(ctx, c.hc, u, c.headers(), v)
	var se *httputil.StatusError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
		return streamerr.New(streamerr.UpstreamAuthRequired, source, "credential rejected", err)
	}
	return err
}

type listItem struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
	MediaType    string `json:"media_type"`
}

type listResponse struct {
	Results []listItem `json:"results"`
}

func (it listItem) toResult(t media.MediaType) media.SearchResult {
	return media.SearchResult{
		ID:     fmt.Sprintf("%s/%d", t, it.ID),
		Title:  lo.Ternary(it.Title != "", it.Title, it.Name),
		Poster: poster(it.PosterPath, it.BackdropPath),
		Type:   t,
	}
}

func poster(paths ...string) string {
	p, ok := lo.Find(paths, func(s string) bool { return s != "" })
	if !ok {
		return ""
	}
	return imageBase + p
}

// Search queries movies and shows concurrently and interleaves the results
// (show, movie, show, movie, ...). The words "season" and "seasons" are
// stripped from the query first.
func (c *Client) Search(ctx context.Context, query string) ([]media.SearchResult, error) {
	cleaned := strings.Join(strings.Fields(seasonWord.ReplaceAllString(query, "")), " ")
	if cleaned == "" {
		return nil, streamerr.Invalid("empty search query")
	}

	q := url.Values{"query": {cleaned}, "page": {"1"}, "include_adult": {"false"}}
	kinds := []media.MediaType{media.Movie, media.TV}
	lists := make([][]media.SearchResult, len(kinds))
	errs := make([]error, len(kinds))

	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind media.MediaType) {
			defer wg.Done()
			var resp listResponse
			if err := c.getJSON(ctx, httputil.WithQuery(c.mirror+"/search/"+kind.String(), q), &resp); err != nil {
				errs[i] = fmt.Errorf("searching %s: %w", kind, err)
				return
			}
			lists[i] = lo.Map(resp.Results, func(it listItem, _ int) media.SearchResult { return it.toResult(kind) })
		}(i, kind)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	movies, shows := lists[0], lists[1]
	results := make([]media.SearchResult, 0, len(movies)+len(shows))
	for i := 0; i < max(len(movies), len(shows)); i++ {
		if i < len(shows) {
			results = append(results, shows[i])
		}
		if i < len(movies) {
			results = append(results, movies[i])
		}
	}

	logrus.WithFields(logrus.Fields{"query": cleaned, "results": len(results)}).Debug("search")
	return results, nil
}

// Popular returns the weekly trending movies and shows.
func (c *Client) Popular(ctx context.Context) ([]media.SearchResult, error) {
	var resp listResponse
	if err := c.getJSON(ctx, c.mirror+"/trending/all/week", &resp); err != nil {
		return nil, fmt.Errorf("fetching trending: %w", err)
	}

	var results []media.SearchResult
	for _, it := range resp.Results {
		t, ok := media.ParseMediaType(it.MediaType)
		if !ok {
			continue
		}
		results = append(results, it.toResult(t))
	}
	return results, nil
}

type detailsResponse struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	IMDbID       *string `json:"imdb_id"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Seasons      []struct {
		SeasonNumber int    `json:"season_number"`
		EpisodeCount int    `json:"episode_count"`
		AirDate      string `json:"air_date"`
		PosterPath   string `json:"poster_path"`
		BackdropPath string `json:"backdrop_path"`
	} `json:"seasons"`
}

// ParseDetailsID splits "movie/123" or "tv/123" (optionally prefixed by a
// mirror URL) into its type and numeric id.
func ParseDetailsID(id string) (media.MediaType, string, error) {
	m := detailsID.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return media.Movie, "", streamerr.Invalid("invalid details id %q (want movie/<n> or tv/<n>)", id)
	}
	t, _ := media.ParseMediaType(m[1])
	return t, m[2], nil
}

// Details fetches a title and expands it into playable units. A movie gets
// one pseudo-season holding a single entry; a show gets one entry per
// episode of every season except specials (season 0).
func (c *Client) Details(ctx context.Context, id string) (*media.Details, error) {
	kind, tmdbID, err := ParseDetailsID(id)
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	if err := c.getJSON(ctx, httputil.BuildURL(c.mirror, kind.String(), tmdbID), &resp); err != nil {
		return nil, fmt.Errorf("fetching details for %s/%s: %w", kind, tmdbID, err)
	}

	name := lo.Ternary(resp.Name != "", resp.Name, resp.Title)
	imdbID := lo.FromPtr(resp.IMDbID)

	d := &media.Details{
		ID:     fmt.Sprintf("%s/%s", kind, tmdbID),
		Title:  name,
		Poster: poster(resp.PosterPath, resp.BackdropPath),
		Type:   kind,
	}

	if kind == media.Movie {
		token, err := ref.Encode(ref.Reference{
			CatalogID:  tmdbID,
			ExternalID: imdbID,
			Title:      name,
			Year:       year(resp.ReleaseDate),
		})
		if err != nil {
			return nil, err
		}
		d.Seasons = []media.Season{{
			Title:    "Movie",
			Episodes: []media.Episode{{Number: 1, Title: "Movie", Ref: token}},
		}}
		return d, nil
	}

	for _, s := range resp.Seasons {
		if s.SeasonNumber == 0 {
			continue
		}
		season := media.Season{
			Number:   s.SeasonNumber,
			Title:    "Season " + strconv.Itoa(s.SeasonNumber),
			Poster:   poster(s.PosterPath, s.BackdropPath),
			Episodes: make([]media.Episode, 0, s.EpisodeCount),
		}
		for ep := 1; ep <= s.EpisodeCount; ep++ {
			token, err := ref.Encode(ref.Reference{
				CatalogID:  tmdbID,
				ExternalID: imdbID,
				Title:      name,
				Year:       year(s.AirDate),
				Season:     s.SeasonNumber,
				Episode:    ep,
			})
			if err != nil {
				return nil, err
			}
			season.Episodes = append(season.Episodes, media.Episode{
				Number: ep,
				Title:  "Episode " + strconv.Itoa(ep),
				Ref:    token,
			})
		}
		d.Seasons = append(d.Seasons, season)
	}
	return d, nil
}

func year(date string) string {
	y, _, _ := strings.Cut(date, "-")
	return y
}

type externalIDsResponse struct {
	IMDbID *string `json:"imdb_id"`
}

// ExternalIMDbID maps a TMDB id to its IMDb id through the TMDB API. It needs
// the API key; results are memoized for an hour.
func (c *Client) ExternalIMDbID(ctx context.Context, catalogID string, episode bool) (string, error) {
	if c.apiKey == "" {
		return "", streamerr.AuthRequired(source, "TMDB API key")
	}
	if err := httputil.ValidateNumericID(catalogID); err != nil {
		return "", streamerr.New(streamerr.InvalidReference, source, "bad catalog id", err)
	}

	kind := lo.Ternary(episode, media.TV, media.Movie)
	key := kind.String() + ":" + catalogID
	if cached, found := c.ids.Get(key); found {
		if id, ok := cached.(string); ok {
			return id, nil
		}
	}

	var resp externalIDsResponse
	u := httputil.BuildURL(c.api, kind.String(), catalogID, "external_ids")
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return "", fmt.Errorf("fetching external ids for %s: %w", key, err)
	}
	id := lo.FromPtr(resp.IMDbID)
	if id == "" {
		return "", fmt.Errorf("no IMDb id for %s", key)
	}

	c.ids.Set(key, id, cache.DefaultExpiration)
	return id, nil
}
