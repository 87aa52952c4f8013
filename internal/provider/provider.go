// Package provider defines the contract for upstream stream sources
// and their implementations.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"unistream/internal/media"
	"unistream/internal/ref"
)

// Name identifies a registered provider.
type Name string

// Built-in providers, in default registry order.
const (
	XPrime    Name = "xprime"
	AutoEmbed Name = "autoembed"
	VidSrc    Name = "vidsrc"
)

// ErrUnknownProvider is returned for names outside the registry.
var ErrUnknownProvider = errors.New("unknown provider")

// Names returns the built-in provider names in default order.
func Names() []Name {
	return []Name{XPrime, AutoEmbed, VidSrc}
}

// ParseName maps user input onto a built-in provider name (case-insensitive).
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Names() {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: xprime, autoembed, vidsrc)", ErrUnknownProvider, s)
}

// Provider resolves a content reference into playable streams.
//
// An error means the provider failed. An empty slice with a nil error means
// it had nothing for the reference.
type Provider interface {
	// Name returns the registry key.
	Name() Name

	// Headers returns the Referer/Origin pairing attached to every record.
	Headers() map[string]string

	// Streams fetches and normalizes streams for r.
	Streams(ctx context.Context, r ref.Reference) ([]media.Stream, error)
}
