package resolver

import (
	"strings"

	"github.com/rs/zerolog"
)

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger routes resolver debug events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithObserver registers an observer notified about every resolution.
func WithObserver(observer Observer) Option {
	return func(r *Resolver) {
		r.observer = observer
	}
}

// WithNormalizer swaps the module key cache, e.g. to keep it scoped to a
// single resolver in tests.
func WithNormalizer(n *Normalizer) Option {
	return func(r *Resolver) {
		if n != nil {
			r.normalizer = n
		}
	}
}

// WithExtensionPrecedence sets which file extensions win when several files
// share a template's base name. Unlisted extensions rank after listed ones;
// ties fall back to lexical file name order.
func WithExtensionPrecedence(exts ...string) Option {
	return func(r *Resolver) {
		r.precedence = make(map[string]int, len(exts))
		for i, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext == "" {
				continue
			}
			if _, exists := r.precedence[ext]; !exists {
				r.precedence[ext] = i
			}
		}
	}
}

// Source identifies which strategy produced a resolution.
type Source string

const (
	SourceTable      Source = "table"
	SourceDiscovery  Source = "discovery"
	SourceLastModule Source = "last_module"
)

// Observer receives resolution outcomes. Implementations must be safe for
// concurrent use when the resolver is shared.
type Observer interface {
	Resolved(source Source)
	Failed(err error)
}

type nopObserver struct{}

func (nopObserver) Resolved(Source) {}
func (nopObserver) Failed(error)    {}
