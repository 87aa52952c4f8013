package provider

import (
	"context"
	"net/http"

	"unistream/internal/httputil"
)

// Default upstream endpoints.
const (
	DefaultXPrimeBackend  = "https://backend.xprime.tv"
	DefaultAutoEmbedBase  = "https://oc.autoembed.cc"
	DefaultVidSrcBase     = "https://himer365ery.com/play"
	DefaultVidSrcPlaylist = "https://jarvi366dow.com/playlist"
)

// IMDbLookup resolves a catalog id to an IMDb id. metadata.Client implements it.
type IMDbLookup interface {
	ExternalIMDbID(ctx context.Context, catalogID string, episode bool) (string, error)
}

type options struct {
	client   *http.Client
	baseURL  string
	playlist string
	lookup   IMDbLookup
}

// Option configures a provider.
type Option func(*options)

// WithClient sets the HTTP client. Providers share one client in production.
func WithClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithBaseURL overrides the provider's upstream base URL.
func WithBaseURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.baseURL = u
		}
	}
}

// WithPlaylistURL overrides the vidsrc playlist host.
func WithPlaylistURL(u string) Option {
	return func(o *options) {
		if u != "" {
			o.playlist = u
		}
	}
}

// WithIMDbLookup sets the external id lookup used by vidsrc.
func WithIMDbLookup(l IMDbLookup) Option {
	return func(o *options) { o.lookup = l }
}

func buildOptions(base string, opts []Option) options {
	o := options{baseURL: base, playlist: DefaultVidSrcPlaylist}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = httputil.NewClient()
	}
	return o
}

// Upstreams overrides provider base URLs. Empty fields keep the defaults.
type Upstreams struct {
	XPrime         string
	AutoEmbed      string
	VidSrc         string
	VidSrcPlaylist string
}

// Deps are the shared collaborators of the production providers.
type Deps struct {
	Client    *http.Client
	Upstreams Upstreams
	IMDb      IMDbLookup
}

// Default builds the production registry: xprime, autoembed, vidsrc.
func Default(d Deps) (*Registry, error) {
	if d.Client == nil {
		d.Client = httputil.NewClient()
	}
	return NewRegistry(
		NewXPrime(WithClient(d.Client), WithBaseURL(d.Upstreams.XPrime)),
		NewAutoEmbed(WithClient(d.Client), WithBaseURL(d.Upstreams.AutoEmbed)),
		NewVidSrc(
			WithClient(d.Client),
			WithBaseURL(d.Upstreams.VidSrc),
			WithPlaylistURL(d.Upstreams.VidSrcPlaylist),
			WithIMDbLookup(d.IMDb),
		),
	)
}
