// Package viewkit wires the resolver, the rendering strategy with its
// engines, the output processor and the dispatch pipeline into a single Kit.
package viewkit

import (
	"context"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-viewkit/internal/metrics"
	"github.com/goliatone/go-viewkit/pkg/config"
	"github.com/goliatone/go-viewkit/pkg/dispatch"
	"github.com/goliatone/go-viewkit/pkg/output"
	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/render/markdown"
	"github.com/goliatone/go-viewkit/pkg/render/template/gotemplate"
	"github.com/goliatone/go-viewkit/pkg/render/template/htmltemplate"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/view"
	"github.com/goliatone/go-viewkit/pkg/viewhttp"
)

// Engine names registered by New.
const (
	EnginePongo2   = gotemplate.DefaultName
	EngineHTML     = htmltemplate.DefaultName
	EngineMarkdown = markdown.DefaultName
)

// DefaultExtensions returns the extension to engine mapping New starts
// from. Configuration entries are merged on top.
func DefaultExtensions() map[string]string {
	return map[string]string{
		"tpl":    EnginePongo2,
		"html":   EnginePongo2,
		"gohtml": EngineHTML,
		"tmpl":   EngineHTML,
		"md":     EngineMarkdown,
	}
}

// Option configures a Kit.
type Option func(*Kit)

// WithLogger routes every component's events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(k *Kit) {
		k.logger = logger
	}
}

// WithConfig applies cfg instead of config.Default().
func WithConfig(cfg *config.Config) Option {
	return func(k *Kit) {
		if cfg != nil {
			k.cfg = cfg
		}
	}
}

// WithMetrics registers resolver and render metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(k *Kit) {
		k.registerer = reg
	}
}

// WithSanitizer runs policy over text/html output before blank lines are
// collapsed.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(k *Kit) {
		k.sanitizer = policy
	}
}

// WithEngine registers an additional engine. Map extensions to it through
// the configuration or Strategy().MapExtension.
func WithEngine(engine render.Engine) Option {
	return func(k *Kit) {
		if engine != nil {
			k.extra = append(k.extra, engine)
		}
	}
}

// Kit is a configured view layer. It is safe for concurrent use; every
// view and every dispatch gets its own resolver session.
type Kit struct {
	cfg        *config.Config
	logger     zerolog.Logger
	registerer prometheus.Registerer
	sanitizer  *bluemonday.Policy
	extra      []render.Engine

	metrics   *metrics.Collector
	resolver  *resolver.Resolver
	strategy  *render.Strategy
	processor *output.Processor
	modules   *dispatch.Modules
	pipeline  *dispatch.Pipeline
}

// New builds a Kit with the pongo2, html/template and Markdown engines.
func New(options ...Option) (*Kit, error) {
	k := &Kit{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(k)
	}
	if k.cfg == nil {
		k.cfg = config.Default()
	}
	if k.registerer != nil {
		k.metrics = metrics.NewWithRegistry(k.registerer)
	}

	resolverOpts := append([]resolver.Option{resolver.WithLogger(k.logger)}, k.cfg.ResolverOptions()...)
	if k.metrics != nil {
		resolverOpts = append(resolverOpts, resolver.WithObserver(k.metrics))
	}
	k.resolver = resolver.New(resolverOpts...)

	registry, err := k.engines()
	if err != nil {
		return nil, err
	}

	strategyOpts := []render.Option{
		render.WithLogger(k.logger),
		render.WithExtensions(DefaultExtensions()),
	}
	if k.metrics != nil {
		strategyOpts = append(strategyOpts, render.WithObserver(k.metrics))
	}
	k.strategy = render.NewStrategy(k.resolver, registry, strategyOpts...)

	if err := k.cfg.ApplyResolver(k.resolver); err != nil {
		return nil, fmt.Errorf("viewkit: %w", err)
	}
	if err := k.cfg.ApplyStrategy(k.strategy); err != nil {
		return nil, fmt.Errorf("viewkit: %w", err)
	}

	k.modules = dispatch.NewModules()
	for ns, dir := range k.cfg.ModuleDirs() {
		if err := k.modules.Register(ns, dir); err != nil {
			return nil, fmt.Errorf("viewkit: %w", err)
		}
	}

	processorOpts := []output.Option{output.WithLogger(k.logger)}
	if k.sanitizer != nil {
		processorOpts = append(processorOpts, output.WithSanitizer(k.sanitizer))
	}
	k.processor = output.NewProcessor(processorOpts...)

	k.pipeline = dispatch.New(k.resolver, k.strategy, k.modules,
		dispatch.WithLogger(k.logger),
		dispatch.WithProcessor(k.processor),
	)
	return k, nil
}

func (k *Kit) engines() (*render.Registry, error) {
	pongoOpts := []gotemplate.Option{gotemplate.WithLogger(k.logger)}
	htmlOpts := []htmltemplate.Option{htmltemplate.WithLogger(k.logger)}
	if k.cfg.View.NoCache {
		pongoOpts = append(pongoOpts, gotemplate.WithoutCache())
		htmlOpts = append(htmlOpts, htmltemplate.WithoutCache())
	}

	pongo, err := gotemplate.New(pongoOpts...)
	if err != nil {
		return nil, fmt.Errorf("viewkit: pongo2 engine: %w", err)
	}

	registry := render.NewRegistry()
	engines := []render.Engine{
		pongo,
		htmltemplate.New(htmlOpts...),
		markdown.New(markdown.WithPreprocessor(pongo), markdown.WithLogger(k.logger)),
	}
	for _, engine := range append(engines, k.extra...) {
		if err := registry.Register(engine); err != nil {
			return nil, fmt.Errorf("viewkit: %w", err)
		}
	}
	return registry, nil
}

// NewView returns a View rendering through its own resolver session.
func (k *Kit) NewView(options ...view.Option) *view.View {
	opts := append([]view.Option{view.WithLogger(k.logger)}, options...)
	return view.New(k.strategy.Bind(k.resolver.Session()), opts...)
}

// Render renders the tree rooted at m in a fresh view and post-processes
// the output according to m's content type.
func (k *Kit) Render(ctx context.Context, m *view.Model) (string, error) {
	body, err := k.NewView().Render(ctx, m)
	if err != nil {
		return "", err
	}
	return k.processor.Process(m.ContentType(), body), nil
}

// Handler returns an HTTP adapter over the pipeline.
func (k *Kit) Handler(options ...viewhttp.Option) *viewhttp.Handler {
	opts := append([]viewhttp.Option{viewhttp.WithLogger(k.logger)}, options...)
	return viewhttp.New(k.pipeline, opts...)
}

// Watch starts a template watcher that evicts removed files from the
// resolver and drops compiled templates of changed files from every engine
// that caches them. Call Stop on the returned watcher when done.
func (k *Kit) Watch() (*resolver.Watcher, error) {
	w := resolver.NewWatcher(k.resolver, k.logger)
	registry := k.strategy.Registry()
	for _, name := range registry.List() {
		engine, err := registry.Get(name)
		if err != nil {
			continue
		}
		if cache, ok := engine.(interface{ Forget(file string) }); ok {
			w.OnChange(cache.Forget)
		}
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// Config returns the applied configuration.
func (k *Kit) Config() *config.Config { return k.cfg }

// Logger returns the kit's logger.
func (k *Kit) Logger() zerolog.Logger { return k.logger }

// Resolver returns the shared resolver.
func (k *Kit) Resolver() *resolver.Resolver { return k.resolver }

// Strategy returns the rendering strategy bound to the shared resolver.
func (k *Kit) Strategy() *render.Strategy { return k.strategy }

// Modules returns the dispatch module registry.
func (k *Kit) Modules() *dispatch.Modules { return k.modules }

// RegisterModule registers namespace for dispatch and its "view" sub
// directory as the module's template root.
func (k *Kit) RegisterModule(namespace, dir string) error {
	if err := k.modules.Register(namespace, dir); err != nil {
		return err
	}
	k.resolver.RegisterModulePath(namespace, dir, true)
	return nil
}

// Pipeline returns the dispatch pipeline.
func (k *Kit) Pipeline() *dispatch.Pipeline { return k.pipeline }

// Processor returns the output processor.
func (k *Kit) Processor() *output.Processor { return k.processor }
