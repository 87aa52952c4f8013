package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"unistream/internal/media"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

// newAutoEmbedServer serves english for plain requests and hindi for ?lang=Hindi.
// An empty body answers with a 500.
func newAutoEmbedServer(t *testing.T, wantPath, english, hindi string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		body := english
		if r.URL.Query().Get("lang") == "Hindi" {
			body = hindi
		}
		if body == "" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func qualities(streams []media.Stream) []string {
	return lo.Map(streams, func(s media.Stream, _ int) string { return s.Quality })
}

func TestAutoEmbedStreamsShape(t *testing.T) {
	english := `{"streams": [{"stream_url": "https://ae.test/en/1080.m3u8", "quality": "1080p"}, {"stream_url": "", "quality": "720p"}]}`
	hindi := `{"streams": [{"stream_url": "https://ae.test/hi/1080.m3u8", "quality": "1080p"}]}`
	srv := newAutoEmbedServer(t, "/movie/533535", english, hindi)

	got, err := NewAutoEmbed(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "533535"})
	if err != nil {
		t.Fatalf("Streams() error: %v", err)
	}

	headers := map[string]string{"Referer": "https://oc.autoembed.cc/", "Origin": "https://oc.autoembed.cc"}
	want := []media.Stream{
		{URL: "https://ae.test/en/1080.m3u8", Quality: "AutoEmbed - 1080p", Subtitles: []media.Subtitle{}, Headers: headers},
		{URL: "https://ae.test/hi/1080.m3u8", Quality: "AutoEmbed - 1080p", Subtitles: []media.Subtitle{}, Headers: headers},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Streams() mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoEmbedDownloadsShape(t *testing.T) {
	english := `{"data": {
		"downloads": [{"url": "https://ae.test/dl/720.mp4", "resolution": 720}, {"url": "https://ae.test/dl/1080.mp4", "resolution": "1080p"}],
		"captions": [{"url": "https://ae.test/en.vtt", "lanName": "English"}]
	}}`
	hindi := `{"data": {"downloads": [{"url": "https://ae.test/dl/hi.mp4", "resolution": "480p"}]}}`
	srv := newAutoEmbedServer(t, "/tv/1399/1/2", english, hindi)

	got, err := NewAutoEmbed(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "1399", Season: 1, Episode: 2})
	if err != nil {
		t.Fatalf("Streams() error: %v", err)
	}

	want := []string{"AutoEmbed English - 720", "AutoEmbed English - 1080p", "AutoEmbed Hindi - 480p"}
	if diff := cmp.Diff(want, qualities(got)); diff != "" {
		t.Errorf("qualities mismatch (-want +got):\n%s", diff)
	}
	wantSubs := []media.Subtitle{{Label: "English", File: "https://ae.test/en.vtt"}}
	if diff := cmp.Diff(wantSubs, got[0].Subtitles); diff != "" {
		t.Errorf("subtitles mismatch (-want +got):\n%s", diff)
	}
	if len(got[2].Subtitles) != 0 {
		t.Errorf("hindi subtitles = %v, want none", got[2].Subtitles)
	}
}

func TestAutoEmbedDuplicateHindiDropped(t *testing.T) {
	body := `{"streams": [{"stream_url": "https://ae.test/1080.m3u8", "quality": "1080p"}]}`
	srv := newAutoEmbedServer(t, "/movie/42", body, body)

	got, err := NewAutoEmbed(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "42"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("Streams() returned %d records, want 1 when both languages match", len(got))
	}
}

func TestAutoEmbedOneLanguageFails(t *testing.T) {
	hindi := `{"streams": [{"stream_url": "https://ae.test/hi.m3u8", "quality": "720p"}]}`
	srv := newAutoEmbedServer(t, "/movie/42", "", hindi)

	got, err := NewAutoEmbed(WithBaseURL(srv.URL)).Streams(context.Background(), ref.Reference{CatalogID: "42"})
	if err != nil {
		t.Fatalf("Streams() error: %v", err)
	}
	if diff := cmp.Diff([]string{"AutoEmbed - 720p"}, qualities(got)); diff != "" {
		t.Errorf("qualities mismatch (-want +got):\n%s", diff)
	}
}

func TestAutoEmbedRequiresCatalogID(t *testing.T) {
	a := NewAutoEmbed(WithBaseURL("http://127.0.0.1:1"))
	for _, r := range []ref.Reference{{ExternalID: "tt6263850"}, {CatalogID: "../etc"}} {
		if _, err := a.Streams(context.Background(), r); !errors.Is(err, streamerr.ErrInvalidReference) {
			t.Errorf("Streams(%+v) error = %v, want InvalidReference", r, err)
		}
	}
}

func TestResolution(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{float64(1080), "1080"},
		{float64(720), "720"},
		{"480p", "480p"},
		{nil, ""},
		{true, ""},
	}
	for _, tt := range tests {
		if got := resolution(tt.in); got != tt.want {
			t.Errorf("resolution(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
