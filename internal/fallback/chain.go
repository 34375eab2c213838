// Package fallback resolves a capability by trying its providers in a fixed
// priority order and substituting static data when none of them answers.
package fallback

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"climate-dashboard/internal/provider"
)

const defaultTimeout = 8 * time.Second

// Descriptor is read-only provider configuration for one capability.
type Descriptor[Req, P any] struct {
	Name string
	// Available reports whether the provider is configured. A false result
	// means Invoke is never called.
	Available func() bool
	Invoke    func(ctx context.Context, req Req) (P, error)
}

// Attempt records one provider that was considered during a resolution.
type Attempt struct {
	Provider string
	Reason   provider.Reason
}

// Result is always a usable payload; Source names the provider that produced
// it, or provider.SourceFallback.
type Result[P any] struct {
	Payload  P
	Source   string
	Attempts []Attempt
}

// FromFallback reports whether the payload is static fallback data.
func (r Result[P]) FromFallback() bool {
	return r.Source == provider.SourceFallback
}

type Option func(*options)

type options struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// WithTimeout bounds every provider invocation. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Chain holds the ordered descriptors for a single capability.
type Chain[Req, P any] struct {
	capability  string
	descriptors []Descriptor[Req, P]
	fallback    func(Req) P
	opts        options
}

// NewChain validates and freezes the provider order for capability.
func NewChain[Req, P any](capability string, descriptors []Descriptor[Req, P], fallbackFn func(Req) P, opts ...Option) (*Chain[Req, P], error) {
	capability = strings.TrimSpace(capability)
	if capability == "" {
		return nil, errors.New("fallback: capability must not be empty")
	}
	if fallbackFn == nil {
		return nil, errors.New("fallback: fallback payload func must not be nil")
	}
	for _, d := range descriptors {
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.New("fallback: descriptor name must not be empty")
		}
		if d.Invoke == nil {
			return nil, errors.New("fallback: descriptor " + d.Name + " has no invoke func")
		}
		if d.Name == provider.SourceFallback {
			return nil, errors.New("fallback: descriptor name is reserved")
		}
	}

	o := options{timeout: defaultTimeout, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	ds := make([]Descriptor[Req, P], len(descriptors))
	copy(ds, descriptors)
	return &Chain[Req, P]{
		capability:  capability,
		descriptors: ds,
		fallback:    fallbackFn,
		opts:        o,
	}, nil
}

func (c *Chain[Req, P]) Capability() string {
	return c.capability
}

// Resolve returns the first provider success, or the fallback payload when
// every provider is skipped or fails. It never reports an error.
func (c *Chain[Req, P]) Resolve(ctx context.Context, req Req) Result[P] {
	log := c.opts.logger.With().Str("capability", c.capability).Logger()
	attempts := make([]Attempt, 0, len(c.descriptors))

	for _, d := range c.descriptors {
		if d.Available != nil && !d.Available() {
			attempts = append(attempts, Attempt{Provider: d.Name, Reason: provider.ReasonUnavailable})
			log.Debug().Str("provider", d.Name).Msg("provider not configured, skipping")
			continue
		}

		payload, err := c.invoke(ctx, d, req)
		if err == nil {
			return Result[P]{Payload: payload, Source: d.Name, Attempts: attempts}
		}

		reason := provider.ReasonOf(err)
		attempts = append(attempts, Attempt{Provider: d.Name, Reason: reason})
		log.Warn().Err(err).Str("provider", d.Name).Str("reason", string(reason)).Msg("provider failed, trying next")
	}

	log.Info().Int("attempts", len(attempts)).Msg("all providers failed, using fallback data")
	return Result[P]{Payload: c.fallback(req), Source: provider.SourceFallback, Attempts: attempts}
}

func (c *Chain[Req, P]) invoke(ctx context.Context, d Descriptor[Req, P], req Req) (P, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()
	return d.Invoke(callCtx, req)
}
