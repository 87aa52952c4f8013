package provider

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"unistream/internal/httputil"
	"unistream/internal/media"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

// AutoEmbedSource queries the autoembed API in English and Hindi.
type AutoEmbedSource struct {
	base    string
	client  *http.Client
	headers map[string]string
}

// NewAutoEmbed creates the autoembed provider.
func NewAutoEmbed(opts ...Option) *AutoEmbedSource {
	o := buildOptions(DefaultAutoEmbedBase, opts)
	return &AutoEmbedSource{
		base:   strings.TrimRight(o.baseURL, "/"),
		client: o.client,
		headers: map[string]string{
			"Referer": "https://oc.autoembed.cc/",
			"Origin":  "https://oc.autoembed.cc",
		},
	}
}

func (a *AutoEmbedSource) Name() Name { return AutoEmbed }

func (a *AutoEmbedSource) Headers() map[string]string { return cloneHeaders(a.headers) }

// Streams fetches the English and Hindi variants concurrently. The Hindi
// records are dropped when they point at the same URLs as the English ones.
func (a *AutoEmbedSource) Streams(ctx context.Context, r ref.Reference) ([]media.Stream, error) {
	if err := httputil.ValidateNumericID(r.CatalogID); err != nil {
		return nil, streamerr.New(streamerr.InvalidReference, string(AutoEmbed), "catalog id required", err)
	}

	u := a.contentURL(r)
	slots := settle(ctx, AutoEmbed,
		task{endpoint: "english", fetch: func(ctx context.Context) ([]media.Stream, error) {
			return a.fetch(ctx, u, "English")
		}},
		task{endpoint: "hindi", fetch: func(ctx context.Context) ([]media.Stream, error) {
			return a.fetch(ctx, httputil.WithQuery(u, url.Values{"lang": {"Hindi"}}), "Hindi")
		}},
	)

	english, hindi := slots[0], slots[1]
	if sameURLs(english, hindi) {
		return english, nil
	}
	return append(english, hindi...), nil
}

func (a *AutoEmbedSource) contentURL(r ref.Reference) string {
	if r.IsEpisode() {
		return httputil.BuildURL(a.base, "tv", r.CatalogID, strconv.Itoa(r.Season), strconv.Itoa(r.Episode))
	}
	return httputil.BuildURL(a.base, "movie", r.CatalogID)
}

type autoEmbedResponse struct {
	Streams []struct {
		StreamURL string `json:"stream_url"`
		Quality   string `json:"quality"`
	} `json:"streams"`
	Data *struct {
		Downloads []struct {
			URL        string `json:"url"`
			Resolution any    `json:"resolution"`
		} `json:"downloads"`
		Captions []struct {
			URL     string `json:"url"`
			LanName string `json:"lanName"`
		} `json:"captions"`
	} `json:"data"`
}

func (a *AutoEmbedSource) fetch(ctx context.Context, u, lang string) ([]media.Stream, error) {
	var resp autoEmbedResponse
	if err := httputil.GetJSON(ctx, a.client, u, nil, &resp); err != nil {
		return nil, err
	}
	return a.normalize(resp, lang), nil
}

func (a *AutoEmbedSource) normalize(resp autoEmbedResponse, lang string) []media.Stream {
	var streams []media.Stream

	if len(resp.Streams) > 0 {
		for _, s := range resp.Streams {
			if rec, ok := newStream(s.StreamURL, label("AutoEmbed", s.Quality), nil, a.headers); ok {
				streams = append(streams, rec)
			}
		}
		return streams
	}

	if resp.Data == nil {
		return nil
	}
	for _, d := range resp.Data.Downloads {
		subs := make([]media.Subtitle, 0, len(resp.Data.Captions))
		for _, c := range resp.Data.Captions {
			subs = append(subs, media.Subtitle{Label: c.LanName, File: c.URL})
		}
		if rec, ok := newStream(d.URL, label("AutoEmbed "+lang, resolution(d.Resolution)), subs, a.headers); ok {
			streams = append(streams, rec)
		}
	}
	return streams
}

// resolution renders a resolution that may arrive as a number or a string.
func resolution(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case float64:
		return strconv.FormatFloat(r, 'f', -1, 64)
	default:
		return ""
	}
}

func sameURLs(a, b []media.Stream) bool {
	streamURL := func(s media.Stream, _ int) string { return s.URL }
	return slices.Equal(lo.Map(a, streamURL), lo.Map(b, streamURL))
}
