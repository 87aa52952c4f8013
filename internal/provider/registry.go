package provider

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Registry is a read-only, ordered set of providers keyed by name.
// Declaration order is the default try-order.
type Registry struct {
	order  []Provider
	byName map[Name]Provider
}

// NewRegistry builds a registry, rejecting nil providers, empty names and duplicates.
func NewRegistry(providers ...Provider) (*Registry, error) {
	byName := make(map[Name]Provider, len(providers))
	order := make([]Provider, 0, len(providers))
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("provider %d is nil", i)
		}
		name := p.Name()
		if strings.TrimSpace(string(name)) == "" {
			return nil, fmt.Errorf("provider %d has an empty name", i)
		}
		if _, ok := byName[name]; ok {
			return nil, fmt.Errorf("duplicate provider %q", name)
		}
		byName[name] = p
		order = append(order, p)
	}
	return &Registry{order: order, byName: byName}, nil
}

// Lookup returns the provider registered under name.
func (r *Registry) Lookup(name Name) (Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Providers returns the providers in registry order.
func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.order...)
}

// Names returns the registered names in registry order.
func (r *Registry) Names() []Name {
	return lo.Map(r.order, func(p Provider, _ int) Name { return p.Name() })
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.order)
}
