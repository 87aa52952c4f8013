package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"unistream/internal/media"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

var xprimeHeaders = map[string]string{
	"Referer": "https://xprime.tv/",
	"Origin":  "https://xprime.tv",
}

func newXPrimeServer(t *testing.T, handlers map[string]string) (*httptest.Server, *sync.Map) {
	t.Helper()
	queries := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries.Store(r.URL.Path, r.URL.Query())
		body, ok := handlers[r.URL.Path]
		if !ok {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, queries
}

func TestXPrimeStreams(t *testing.T) {
	srv, _ := newXPrimeServer(t, map[string]string{
		"/primebox": `{
			"streams": {"1080p": "https://cdn.test/1080.m3u8", "720p": "https://cdn.test/720.m3u8", "360p": "relative.m3u8"},
			"subtitles": [{"label": "English", "file": "https://subs.test/en.vtt"}, {"label": "Empty", "file": ""}]
		}`,
		"/phoenix": `{
			"url": "https://phx.test/master.m3u8",
			"subs": ["en"],
			"subtitles": [{"label": "English", "src": "https://subs.test/phx-en.vtt"}]
		}`,
		"/primenet": `{"url": "https://pn.test/master.m3u8"}`,
	})

	x := NewXPrime(WithBaseURL(srv.URL))
	got, err := x.Streams(context.Background(), ref.Reference{CatalogID: "533535", Title: "Deadpool & Wolverine", Year: "2024"})
	if err != nil {
		t.Fatalf("Streams() error: %v", err)
	}

	enSub := []media.Subtitle{{Label: "English", File: "https://subs.test/en.vtt"}}
	want := []media.Stream{
		{URL: "https://cdn.test/1080.m3u8", Quality: "Primebox - 1080p", Subtitles: enSub, Headers: xprimeHeaders},
		{URL: "https://cdn.test/720.m3u8", Quality: "Primebox - 720p", Subtitles: enSub, Headers: xprimeHeaders},
		{URL: "https://phx.test/master.m3u8", Quality: "Phoenix - Auto", Subtitles: []media.Subtitle{{Label: "English", File: "https://subs.test/phx-en.vtt"}}, Headers: xprimeHeaders},
		{URL: "https://pn.test/master.m3u8", Quality: "Primenet - Auto", Subtitles: []media.Subtitle{}, Headers: xprimeHeaders},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Streams() mismatch (-want +got):\n%s", diff)
	}

	// Every record owns its header map.
	got[0].Headers["Referer"] = "mutated"
	if got[1].Headers["Referer"] != "https://xprime.tv/" || x.Headers()["Referer"] != "https://xprime.tv/" {
		t.Error("records share a header map")
	}
}

func TestXPrimePartialFailure(t *testing.T) {
	srv, _ := newXPrimeServer(t, map[string]string{
		"/primenet": `{"url": "https://pn.test/master.m3u8"}`,
	})

	got, err := NewXPrime(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "1", Title: "X"})
	if err != nil {
		t.Fatalf("Streams() error: %v", err)
	}
	if len(got) != 1 || got[0].Quality != "Primenet - Auto" {
		t.Errorf("Streams() = %+v, want only the primenet record", got)
	}
}

func TestXPrimeAllEndpointsDown(t *testing.T) {
	srv, _ := newXPrimeServer(t, nil)

	got, err := NewXPrime(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "1", Title: "X"})
	if err != nil {
		t.Fatalf("Streams() error = %v, want nil (fan-out failures are absorbed)", err)
	}
	if len(got) != 0 {
		t.Errorf("Streams() = %v, want empty", got)
	}
}

func TestXPrimePhoenixSubsMarker(t *testing.T) {
	srv, _ := newXPrimeServer(t, map[string]string{
		"/phoenix": `{"url": "https://phx.test/m.m3u8", "subs": [], "subtitles": [{"label": "English", "file": "https://subs.test/en.vtt"}]}`,
	})

	got, err := NewXPrime(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "1", Title: "X"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len(Streams()) = %d, want 1", len(got))
	}
	if len(got[0].Subtitles) != 0 {
		t.Errorf("subtitles = %v, want none when subs is empty", got[0].Subtitles)
	}
}

func TestXPrimeQuery(t *testing.T) {
	tests := []struct {
		name string
		ref  ref.Reference
		want url.Values
	}{
		{
			"movie",
			ref.Reference{CatalogID: "533535", ExternalID: "tt6263850", Title: "Deadpool & Wolverine", Year: "2024"},
			url.Values{"name": {"Deadpool & Wolverine"}, "fallback_year": {"2024"}, "id": {"533535"}, "imdb": {"tt6263850"}},
		},
		{
			"episode without optional fields",
			ref.Reference{CatalogID: "1399", Title: "Game of Thrones", Season: 1, Episode: 2},
			url.Values{"name": {"Game of Thrones"}, "id": {"1399"}, "season": {"1"}, "episode": {"2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, queries := newXPrimeServer(t, map[string]string{"/primebox": `{"streams": {}}`})
			if _, err := NewXPrime(WithBaseURL(srv.URL)).Streams(context.Background(), tt.ref); err != nil {
				t.Fatal(err)
			}
			for _, path := range []string{"/primebox", "/phoenix", "/primenet"} {
				got, ok := queries.Load(path)
				if !ok {
					t.Fatalf("%s was not called", path)
				}
				if diff := cmp.Diff(tt.want, got.(url.Values)); diff != "" {
					t.Errorf("%s query mismatch (-want +got):\n%s", path, diff)
				}
			}
		})
	}
}

func TestXPrimeRequiresTitle(t *testing.T) {
	_, err := NewXPrime(WithBaseURL("http://127.0.0.1:1")).Streams(context.Background(), ref.Reference{CatalogID: "1"})
	if !errors.Is(err, streamerr.ErrInvalidReference) {
		t.Errorf("Streams() error = %v, want InvalidReference", err)
	}
}

func TestOrderedStreamsUnmarshal(t *testing.T) {
	var got orderedStreams
	data := `{"4K": "https://a/4k", "1080p": "https://a/1080", "bad": 12, "480p": "https://a/480"}`
	if err := json.Unmarshal([]byte(data), &got); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	want := orderedStreams{
		{Quality: "4K", URL: "https://a/4k"},
		{Quality: "1080p", URL: "https://a/1080"},
		{Quality: "480p", URL: "https://a/480"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("orderedStreams mismatch (-want +got):\n%s", diff)
	}

	if err := json.Unmarshal([]byte(`["https://a"]`), &got); err == nil {
		t.Error("Unmarshal() of an array should fail")
	}
}
