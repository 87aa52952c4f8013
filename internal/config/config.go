// Package config handles TOML-based configuration loading and validation.
// The file is parsed as data only; nothing in it is executed.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"unistream/internal/httputil"
	"unistream/internal/metadata"
	"unistream/internal/provider"
)

// APIKeyEnv overrides api_key from the config file.
const APIKeyEnv = "UNISTREAM_API_KEY"

// Config holds all application configuration.
type Config struct {
	APIKey       string    `toml:"api_key"`
	Provider     string    `toml:"provider"`
	SubsLanguage string    `toml:"subs_language"`
	LogLevel     string    `toml:"log_level"`
	LogJSON      bool      `toml:"log_json"`
	Listen       string    `toml:"listen"`
	Upstreams    Upstreams `toml:"upstreams"`
}

// Upstreams overrides upstream base URLs.
type Upstreams struct {
	XPrime         string `toml:"xprime"`
	AutoEmbed      string `toml:"autoembed"`
	VidSrc         string `toml:"vidsrc"`
	VidSrcPlaylist string `toml:"vidsrc_playlist"`
	TMDBMirror     string `toml:"tmdb_mirror"`
	TMDBAPI        string `toml:"tmdb_api"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider:     string(provider.XPrime),
		SubsLanguage: "english",
		LogLevel:     "info",
		Listen:       "127.0.0.1:8080",
		Upstreams: Upstreams{
			XPrime:         provider.DefaultXPrimeBackend,
			AutoEmbed:      provider.DefaultAutoEmbedBase,
			VidSrc:         provider.DefaultVidSrcBase,
			VidSrcPlaylist: provider.DefaultVidSrcPlaylist,
			TMDBMirror:     metadata.DefaultMirror,
			TMDBAPI:        metadata.DefaultAPIBase,
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "unistream"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "unistream"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, merges it over the defaults and applies
// environment overrides. A missing file yields the defaults.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	md, err := toml.Decode(string(data), c)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		logrus.WithField("key", key.String()).Warn("ignoring unknown config key")
	}
	return nil
}

func (c *Config) applyEnv() {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnv)); key != "" {
		c.APIKey = key
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Provider != "" {
		if _, err := provider.ParseName(c.Provider); err != nil {
			return err
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unsupported log level %q (valid: trace, debug, info, warn, error)", c.LogLevel)
	}

	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
		}
	}

	upstreams := map[string]string{
		"upstreams.xprime":          c.Upstreams.XPrime,
		"upstreams.autoembed":       c.Upstreams.AutoEmbed,
		"upstreams.vidsrc":          c.Upstreams.VidSrc,
		"upstreams.vidsrc_playlist": c.Upstreams.VidSrcPlaylist,
		"upstreams.tmdb_mirror":     c.Upstreams.TMDBMirror,
		"upstreams.tmdb_api":        c.Upstreams.TMDBAPI,
	}
	for key, u := range upstreams {
		if u == "" {
			continue
		}
		if err := httputil.ValidateURL(u); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	return nil
}

// PreferredProvider returns the configured provider name, or "" for registry order.
func (c *Config) PreferredProvider() provider.Name {
	n, err := provider.ParseName(c.Provider)
	if err != nil {
		return ""
	}
	return n
}

// ProviderUpstreams maps the config onto provider base URL overrides.
func (c *Config) ProviderUpstreams() provider.Upstreams {
	return provider.Upstreams{
		XPrime:         c.Upstreams.XPrime,
		AutoEmbed:      c.Upstreams.AutoEmbed,
		VidSrc:         c.Upstreams.VidSrc,
		VidSrcPlaylist: c.Upstreams.VidSrcPlaylist,
	}
}
