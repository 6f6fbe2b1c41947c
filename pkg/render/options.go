package render

import (
	"time"

	"github.com/rs/zerolog"
)

// RenderObserver is notified after every engine call.
type RenderObserver interface {
	Rendered(engine string, d time.Duration, err error)
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithLogger routes strategy debug events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Strategy) {
		s.logger = logger
	}
}

// WithObserver reports engine timings and failures to o.
func WithObserver(o RenderObserver) Option {
	return func(s *Strategy) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithExtensions seeds the extension to engine mapping. Later calls merge.
func WithExtensions(mapping map[string]string) Option {
	return func(s *Strategy) {
		for ext, engine := range mapping {
			s.extensions[cleanExtension(ext)] = engine
		}
	}
}

type nopObserver struct{}

func (nopObserver) Rendered(string, time.Duration, error) {}
