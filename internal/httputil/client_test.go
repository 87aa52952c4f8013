package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestRandomHeadersFreshMap(t *testing.T) {
	a := RandomHeaders()
	if a["User-Agent"] == "" {
		t.Fatal("RandomHeaders() should always set User-Agent")
	}
	if a["Accept-Language"] == "" {
		t.Error("RandomHeaders() should always set Accept-Language")
	}

	a["User-Agent"] = "mutated"
	for i := 0; i < 20; i++ {
		if RandomHeaders()["User-Agent"] == "mutated" {
			t.Fatal("RandomHeaders() returned a shared map")
		}
	}
}

func TestHeaderTransportCallerWins(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient()
	headers := map[string]string{
		"Referer":      "https://xprime.tv/",
		"Origin":       "https://xprime.tv",
		"X-CSRF-TOKEN": "abc",
		"User-Agent":   "custom-agent",
	}
	if _, err := GetBody(context.Background(), client, srv.URL, headers); err != nil {
		t.Fatalf("GetBody() error: %v", err)
	}

	for k, want := range headers {
		if got.Get(k) != want {
			t.Errorf("header %s = %q, want %q", k, got.Get(k), want)
		}
	}
	if got.Get("Accept-Language") == "" {
		t.Error("random profile header Accept-Language missing")
	}
}

func TestHeaderTransportDoesNotMutateRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := NewClient().Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	resp.Body.Close()

	if req.Header.Get("User-Agent") != "" {
		t.Error("transport should fill headers on a clone, not the caller's request")
	}
}

func TestConcurrentRequestsGetIndependentHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.Header.Get("Referer")))
	}))
	defer srv.Close()

	client := NewClient()
	refs := []string{"https://a.test/", "https://b.test/", "https://c.test/", "https://d.test/"}
	got := make([]string, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			body, err := GetBody(context.Background(), client, srv.URL, map[string]string{"Referer": ref})
			if err != nil {
				t.Errorf("GetBody() error: %v", err)
				return
			}
			got[i] = string(body)
		}(i, ref)
	}
	wg.Wait()

	for i := range refs {
		if got[i] != refs[i] {
			t.Errorf("request %d saw Referer %q, want %q", i, got[i], refs[i])
		}
	}
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var v map[string]any
	err := GetJSON(context.Background(), NewClient(), srv.URL, nil, &v)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("GetJSON() error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", se.StatusCode)
	}
}

func TestGetJSONDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json, text/plain, */*" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"url":"https://cdn.test/a.m3u8"}`))
	}))
	defer srv.Close()

	var v struct {
		URL string `json:"url"`
	}
	if err := GetJSON(context.Background(), NewClient(), srv.URL, nil, &v); err != nil {
		t.Fatalf("GetJSON() error: %v", err)
	}
	if v.URL != "https://cdn.test/a.m3u8" {
		t.Errorf("url = %q", v.URL)
	}
}

func TestRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	_, err := GetBody(context.Background(), NewClient(), srv.URL, nil)
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("GetBody() error = %v, want ErrTooManyRedirects", err)
	}
}

func TestGetBodyRejectsInvalidURL(t *testing.T) {
	if _, err := GetBody(context.Background(), NewClient(), "file:///etc/passwd", nil); err == nil {
		t.Error("GetBody() should reject non-HTTP URLs")
	}
}
