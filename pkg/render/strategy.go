package render

import (
	"context"
	"errors"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-viewkit/pkg/view"
)

// Strategy renders one model: it resolves the model's template to a file,
// picks the engine mapped to the file extension and lets it render.
type Strategy struct {
	resolver TemplateResolver
	registry *Registry

	mu         *sync.RWMutex
	extensions map[string]string

	logger   zerolog.Logger
	observer RenderObserver
}

var _ view.Strategy = (*Strategy)(nil)

// NewStrategy builds a Strategy resolving through resolver and rendering with
// the engines in registry.
func NewStrategy(resolver TemplateResolver, registry *Registry, options ...Option) *Strategy {
	if registry == nil {
		registry = NewRegistry()
	}
	s := &Strategy{
		resolver:   resolver,
		registry:   registry,
		mu:         &sync.RWMutex{},
		extensions: make(map[string]string),
		logger:     zerolog.Nop(),
		observer:   nopObserver{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Bind returns a Strategy sharing the registry, extension mapping, logger and
// observer of s but resolving through resolver, typically a per-request
// resolver session.
func (s *Strategy) Bind(resolver TemplateResolver) *Strategy {
	bound := *s
	bound.resolver = resolver
	return &bound
}

// Registry returns the engine registry.
func (s *Strategy) Registry() *Registry { return s.registry }

// MapExtension maps ext (with or without the leading dot) to engine.
func (s *Strategy) MapExtension(ext, engine string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensions[cleanExtension(ext)] = engine
}

// SetExtensions replaces the whole mapping.
func (s *Strategy) SetExtensions(mapping map[string]string) {
	next := make(map[string]string, len(mapping))
	for ext, engine := range mapping {
		next[cleanExtension(ext)] = engine
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.extensions)
	maps.Copy(s.extensions, next)
}

// Extensions returns a copy of the mapping.
func (s *Strategy) Extensions() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.extensions)
}

// RenderModel implements view.Strategy.
func (s *Strategy) RenderModel(ctx context.Context, m *view.Model) (string, error) {
	if s.resolver == nil {
		return "", errors.New("render: template resolver is required")
	}
	if m == nil {
		return "", errors.New("render: model is required")
	}

	file, err := s.resolver.Resolve(m.Template(), m.Module())
	if err != nil {
		return "", err
	}

	ext := cleanExtension(filepath.Ext(file))
	s.mu.RLock()
	name, ok := s.extensions[ext]
	s.mu.RUnlock()
	if !ok {
		return "", &UnmappedExtensionError{Template: m.Template(), Module: m.Module(), Extension: ext, File: file}
	}

	engine, err := s.registry.Get(name)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := engine.Render(ctx, file, m)
	elapsed := time.Since(start)
	s.observer.Rendered(name, elapsed, err)
	if err != nil {
		return "", err
	}

	s.logger.Debug().
		Str("template", m.Template()).
		Str("file", file).
		Str("engine", name).
		Dur("elapsed", elapsed).
		Msg("template rendered")
	return out, nil
}

func cleanExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
