// Package httputil provides the shared upstream HTTP client and input validation utilities.
package httputil

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// Timeout bounds every upstream call. It is the only timeout in the system.
	Timeout = 30 * time.Second

	// MaxRedirects is the redirect hop limit per request.
	MaxRedirects = 5

	maxBodySize = 10 * 1024 * 1024 // 10MB
)

// ErrTooManyRedirects is returned when an upstream exceeds MaxRedirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// StatusError reports a non-200 upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// NewClient creates the hardened client shared by every provider. Each
// request passing through it gets a freshly generated browser header profile.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: Timeout,
		Transport: &headerTransport{
			base: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
			headers: RandomHeaders,
		},
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(_ *http.Request, via []*http.Request) error {
	if len(via) > MaxRedirects {
		return ErrTooManyRedirects
	}
	return nil
}

// headerTransport fills in a random browser profile on a clone of each
// request. Headers already set by the caller are left alone.
type headerTransport struct {
	base    http.RoundTripper
	headers func() map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	r := req.Clone(req.Context())
	for k, v := range t.headers() {
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

// Do performs a GET request carrying the given headers. The caller owns the response body.
func Do(ctx context.Context, client *http.Client, url string, headers map[string]string) (*http.Response, error) {
	if err := ValidateURL(url); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// GetBody fetches url and returns its body. Non-200 responses yield a *StatusError.
func GetBody(ctx context.Context, client *http.Client, url string, headers map[string]string) ([]byte, error) {
	resp, err := Do(ctx, client, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// GetJSON fetches url with a JSON accept header and decodes the body into v.
func GetJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) error {
	h := make(map[string]string, len(headers)+1)
	h["Accept"] = "application/json, text/plain, */*"
	for k, val := range headers {
		h[k] = val
	}

	body, err := GetBody(ctx, client, url, h)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}
