// Package resolve runs content references against the provider registry,
// either stopping at the first provider with streams or merging all of them.
package resolve

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"unistream/internal/media"
	"unistream/internal/provider"
	"unistream/internal/ref"
	"unistream/internal/streamerr"
)

// Engine resolves references against a fixed registry. It is safe for concurrent use.
type Engine struct {
	registry *provider.Registry
}

// New creates an engine over reg.
func New(reg *provider.Registry) *Engine {
	return &Engine{registry: reg}
}

// Providers lists provider names in registry order.
func (e *Engine) Providers() []provider.Name {
	return e.registry.Names()
}

// FirstAvailable decodes token and tries providers one at a time, preferred
// first, returning the first non-empty result. An empty preferred name keeps
// registry order.
func (e *Engine) FirstAvailable(ctx context.Context, token string, preferred provider.Name) ([]media.Stream, error) {
	r, err := ref.Parse(token)
	if err != nil {
		return nil, err
	}
	return e.FirstAvailableRef(ctx, r, preferred)
}

// FirstAvailableRef is FirstAvailable for an already decoded reference.
func (e *Engine) FirstAvailableRef(ctx context.Context, r ref.Reference, preferred provider.Name) ([]media.Stream, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	order, err := e.tryOrder(preferred)
	if err != nil {
		return nil, err
	}

	var failures []streamerr.Failure
	for _, p := range order {
		log := logrus.WithFields(logrus.Fields{"provider": p.Name(), "ref": r.String()})

		streams, err := p.Streams(ctx, r)
		if err != nil {
			log.WithError(err).Debug("provider failed")
			failures = append(failures, streamerr.Failure{Provider: string(p.Name()), Detail: err.Error()})
			continue
		}
		if len(streams) == 0 {
			log.Debug("provider returned no streams")
			continue
		}

		log.WithField("streams", len(streams)).Debug("resolved")
		return streams, nil
	}

	return nil, streamerr.NoStreams(failures)
}

// tryOrder puts preferred first and keeps the rest in registry order.
func (e *Engine) tryOrder(preferred provider.Name) ([]provider.Provider, error) {
	all := e.registry.Providers()
	if preferred == "" {
		return all, nil
	}

	first, err := e.registry.Lookup(preferred)
	if err != nil {
		return nil, err
	}
	rest := lo.Filter(all, func(p provider.Provider, _ int) bool { return p.Name() != preferred })
	return append([]provider.Provider{first}, rest...), nil
}

// AllMerged decodes token, calls every provider except exclude concurrently
// and concatenates their results in registry order. Provider failures are
// dropped; the only error is an invalid token.
func (e *Engine) AllMerged(ctx context.Context, token string, exclude provider.Name) ([]media.Stream, error) {
	r, err := ref.Parse(token)
	if err != nil {
		return nil, err
	}
	return e.AllMergedRef(ctx, r, exclude)
}

// AllMergedRef is AllMerged for an already decoded reference.
func (e *Engine) AllMergedRef(ctx context.Context, r ref.Reference, exclude provider.Name) ([]media.Stream, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	selected := lo.Filter(e.registry.Providers(), func(p provider.Provider, _ int) bool {
		return exclude == "" || p.Name() != exclude
	})
	results := make([][]media.Stream, len(selected))

	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()
			streams, err := p.Streams(ctx, r)
			if err != nil {
				logrus.WithFields(logrus.Fields{"provider": p.Name(), "ref": r.String()}).
					WithError(err).Debug("provider failed")
				return
			}
			results[i] = streams
		}(i, p)
	}
	wg.Wait()

	merged := lo.Flatten(results)
	if merged == nil {
		merged = []media.Stream{}
	}
	return merged, nil
}
