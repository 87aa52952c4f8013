package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samber/lo"

	"unistream/internal/httputil"
	"unistream/internal/media"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

var (
	fileURLPattern = regexp.MustCompile(`"file":"([^"]+)"`)
	csrfKeyPattern = regexp.MustCompile(`"key":"([^"]+)"`)
)

// VidSrcSource scrapes the vidsrc player page and its playlist host.
type VidSrcSource struct {
	base     string
	playlist string
	client   *http.Client
	lookup   IMDbLookup
	headers  map[string]string
}

// NewVidSrc creates the vidsrc provider. Without an IMDbLookup it can only
// serve references that already carry an IMDb id.
func NewVidSrc(opts ...Option) *VidSrcSource {
	o := buildOptions(DefaultVidSrcBase, opts)
	return &VidSrcSource{
		base:     strings.TrimRight(o.baseURL, "/"),
		playlist: strings.TrimRight(o.playlist, "/"),
		client:   o.client,
		lookup:   o.lookup,
		headers: map[string]string{
			"Referer": "https://himer365ery.com/",
			"Origin":  "https://himer365ery.com",
		},
	}
}

func (v *VidSrcSource) Name() Name { return VidSrc }

func (v *VidSrcSource) Headers() map[string]string { return cloneHeaders(v.headers) }

type playerEntry struct {
	File  string `json:"file"`
	Title string `json:"title"`
}

// Streams resolves the IMDb id, reads the player config from the page and
// fetches one playlist per language entry.
func (v *VidSrcSource) Streams(ctx context.Context, r ref.Reference) ([]media.Stream, error) {
	imdbID, err := v.imdbID(ctx, r)
	if err != nil {
		return nil, err
	}

	pageURL := httputil.BuildURL(v.base, imdbID)
	page, err := httputil.GetBody(ctx, v.client, pageURL, v.headers)
	if err != nil {
		return nil, streamerr.Unavailable(string(VidSrc), fmt.Errorf("fetching page: %w", err))
	}

	fileURL, key, err := extractPlayerConfig(page)
	if err != nil {
		return nil, streamerr.Unavailable(string(VidSrc), err)
	}
	if fileURL == "" {
		return nil, nil
	}
	fileURL = resolveAgainst(pageURL, fileURL)

	headers := cloneHeaders(v.headers)
	if key != "" {
		headers["X-CSRF-TOKEN"] = key
	}

	var entries []playerEntry
	if err := httputil.GetJSON(ctx, v.client, fileURL, headers, &entries); err != nil {
		return nil, streamerr.Unavailable(string(VidSrc), fmt.Errorf("fetching player: %w", err))
	}
	if len(entries) < 2 {
		return nil, nil
	}

	// The first entry is the player's own default and never a playlist.
	tasks := lo.Map(entries[1:], func(e playerEntry, _ int) task {
		return task{endpoint: "playlist", fetch: func(ctx context.Context) ([]media.Stream, error) {
			return v.playlistStream(ctx, e, headers)
		}}
	})
	return lo.Flatten(settle(ctx, VidSrc, tasks...)), nil
}

func (v *VidSrcSource) imdbID(ctx context.Context, r ref.Reference) (string, error) {
	id := strings.TrimSpace(r.ExternalID)
	if id == "" {
		if v.lookup == nil {
			return "", streamerr.AuthRequired(string(VidSrc), "TMDB API key")
		}
		looked, err := v.lookup.ExternalIMDbID(ctx, r.CatalogID, r.IsEpisode())
		if err != nil {
			if streamerr.KindOf(err) == streamerr.UpstreamAuthRequired {
				return "", err
			}
			return "", streamerr.Unavailable(string(VidSrc), fmt.Errorf("resolving IMDb id: %w", err))
		}
		id = looked
	}
	if err := httputil.ValidateIMDbID(id); err != nil {
		return "", streamerr.New(streamerr.InvalidReference, string(VidSrc), "bad IMDb id", err)
	}
	return id, nil
}

func (v *VidSrcSource) playlistStream(ctx context.Context, e playerEntry, headers map[string]string) ([]media.Stream, error) {
	file := strings.TrimPrefix(strings.ReplaceAll(e.File, "~", ""), "/")
	if file == "" {
		return nil, errors.New("player entry has no file")
	}
	body, err := httputil.GetBody(ctx, v.client, v.playlist+"/"+file+".txt", headers)
	if err != nil {
		return nil, err
	}
	s, ok := newStream(string(body), label("VidSrc", e.Title), nil, v.headers)
	if !ok {
		return nil, errors.New("playlist body is not a URL")
	}
	return []media.Stream{s}, nil
}

// extractPlayerConfig finds the escaped file URL and CSRF key in the page
// scripts. A missing file URL is not an error.
func extractPlayerConfig(page []byte) (fileURL, key string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("parsing page: %w", err)
	}

	var scripts strings.Builder
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		scripts.WriteString(s.Text())
		scripts.WriteByte('\n')
	})
	text := scripts.String()
	if !fileURLPattern.MatchString(text) {
		// Some pages inline the config outside of a script element.
		text = string(page)
	}

	if m := fileURLPattern.FindStringSubmatch(text); m != nil {
		fileURL = strings.ReplaceAll(m[1], `\/`, "/")
		if decoded, err := url.PathUnescape(fileURL); err == nil {
			fileURL = decoded
		}
	}
	if m := csrfKeyPattern.FindStringSubmatch(text); m != nil {
		key = m[1]
	}
	return fileURL, key, nil
}

// resolveAgainst makes target absolute relative to base.
func resolveAgainst(base, target string) string {
	if httputil.IsAbsoluteURL(target) {
		return target
	}
	b, err := url.Parse(base)
	if err != nil {
		return target
	}
	r, err := url.Parse(target)
	if err != nil {
		return target
	}
	return b.ResolveReference(r).String()
}
