package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"unistream/internal/httputil"
	"unistream/internal/media"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

// XPrimeSource queries the three xprime backends (primebox, phoenix, primenet).
type XPrimeSource struct {
	backend string
	client  *http.Client
	headers map[string]string
}

// NewXPrime creates the xprime provider.
func NewXPrime(opts ...Option) *XPrimeSource {
	o := buildOptions(DefaultXPrimeBackend, opts)
	return &XPrimeSource{
		backend: strings.TrimRight(o.baseURL, "/"),
		client:  o.client,
		headers: map[string]string{
			"Referer": "https://xprime.tv/",
			"Origin":  "https://xprime.tv",
		},
	}
}

func (x *XPrimeSource) Name() Name { return XPrime }

func (x *XPrimeSource) Headers() map[string]string { return cloneHeaders(x.headers) }

// Streams fans out to all three backends and concatenates whatever came back.
func (x *XPrimeSource) Streams(ctx context.Context, r ref.Reference) ([]media.Stream, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, streamerr.New(streamerr.InvalidReference, string(XPrime), "reference has no title", nil)
	}

	q := x.query(r)
	slots := settle(ctx, XPrime,
		task{endpoint: "primebox", fetch: func(ctx context.Context) ([]media.Stream, error) {
			return x.primebox(ctx, q)
		}},
		task{endpoint: "phoenix", fetch: func(ctx context.Context) ([]media.Stream, error) {
			return x.phoenix(ctx, q)
		}},
		task{endpoint: "primenet", fetch: func(ctx context.Context) ([]media.Stream, error) {
			return x.primenet(ctx, q)
		}},
	)
	return lo.Flatten(slots), nil
}

// query builds the shared parameters. Absent fields are omitted, not sent empty.
func (x *XPrimeSource) query(r ref.Reference) url.Values {
	q := url.Values{}
	q.Set("name", r.Title)
	if r.Year != "" {
		q.Set("fallback_year", r.Year)
	}
	if r.CatalogID != "" {
		q.Set("id", r.CatalogID)
	}
	if r.ExternalID != "" {
		q.Set("imdb", r.ExternalID)
	}
	if r.IsEpisode() {
		q.Set("season", strconv.Itoa(r.Season))
		q.Set("episode", strconv.Itoa(r.Episode))
	}
	return q
}

func (x *XPrimeSource) endpoint(name string, q url.Values) string {
	return httputil.WithQuery(x.backend+"/"+name, q)
}

type primeboxResponse struct {
	Streams   orderedStreams  `json:"streams"`
	Subtitles []subtitleTrack `json:"subtitles"`
}

func (x *XPrimeSource) primebox(ctx context.Context, q url.Values) ([]media.Stream, error) {
	var resp primeboxResponse
	if err := httputil.GetJSON(ctx, x.client, x.endpoint("primebox", q), nil, &resp); err != nil {
		return nil, err
	}
	return x.normalizePrimebox(resp), nil
}

func (x *XPrimeSource) normalizePrimebox(resp primeboxResponse) []media.Stream {
	var streams []media.Stream
	for _, qs := range resp.Streams {
		if s, ok := newStream(qs.URL, label("Primebox", qs.Quality), subtitleList(resp.Subtitles), x.headers); ok {
			streams = append(streams, s)
		}
	}
	return streams
}

type phoenixResponse struct {
	URL       string          `json:"url"`
	Subs      json.RawMessage `json:"subs"`
	Subtitles []subtitleTrack `json:"subtitles"`
}

func (x *XPrimeSource) phoenix(ctx context.Context, q url.Values) ([]media.Stream, error) {
	var resp phoenixResponse
	if err := httputil.GetJSON(ctx, x.client, x.endpoint("phoenix", q), nil, &resp); err != nil {
		return nil, err
	}
	return x.normalizePhoenix(resp), nil
}

func (x *XPrimeSource) normalizePhoenix(resp phoenixResponse) []media.Stream {
	var subs []media.Subtitle
	// Tracks are only trusted when the subs marker list is non-empty.
	if nonEmptyJSON(resp.Subs) {
		subs = subtitleList(resp.Subtitles)
	}
	s, ok := newStream(resp.URL, "Phoenix - Auto", subs, x.headers)
	if !ok {
		return nil
	}
	return []media.Stream{s}
}

type primenetResponse struct {
	URL string `json:"url"`
}

func (x *XPrimeSource) primenet(ctx context.Context, q url.Values) ([]media.Stream, error) {
	var resp primenetResponse
	if err := httputil.GetJSON(ctx, x.client, x.endpoint("primenet", q), nil, &resp); err != nil {
		return nil, err
	}
	s, ok := newStream(resp.URL, "Primenet - Auto", nil, x.headers)
	if !ok {
		return nil, nil
	}
	return []media.Stream{s}, nil
}

type qualityURL struct {
	Quality string
	URL     string
}

// orderedStreams decodes a {quality: url} object keeping payload key order.
type orderedStreams []qualityURL

func (o *orderedStreams) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("streams: expected object, got %v", tok)
	}

	var out orderedStreams
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var u string
		if err := json.Unmarshal(raw, &u); err != nil {
			// Non-string values are not playable URLs.
			continue
		}
		out = append(out, qualityURL{Quality: key, URL: u})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*o = out
	return nil
}

// nonEmptyJSON reports whether raw holds something other than null or an empty value.
func nonEmptyJSON(raw json.RawMessage) bool {
	switch strings.TrimSpace(string(raw)) {
	case "", "null", "[]", "{}", `""`, "0", "false":
		return false
	}
	return true
}
