// Package htmltemplate renders resolved files with the standard library's
// html/template, for projects that prefer Go template syntax over pongo2.
package htmltemplate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"maps"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	viewtemplate "github.com/goliatone/go-viewkit/pkg/render/template"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// DefaultName is the engine name used when WithName is not given.
const DefaultName = "html"

// Option configures the engine.
type Option func(*Engine)

// WithName overrides the engine name used in strategy mappings.
func WithName(name string) Option {
	return func(e *Engine) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			e.name = trimmed
		}
	}
}

// WithFuncs adds template functions. Later calls override earlier names.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Engine) {
		maps.Copy(e.funcs, funcs)
	}
}

// WithoutCache parses the template file on every render.
func WithoutCache() Option {
	return func(e *Engine) {
		e.noCache = true
	}
}

// WithLogger routes parse events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine renders a file as a standalone html/template. Slot variables are
// passed as template.HTML; everything else is escaped by html/template.
type Engine struct {
	mu        sync.RWMutex
	name      string
	funcs     template.FuncMap
	globals   map[string]any
	templates map[string]*template.Template
	noCache   bool
	logger    zerolog.Logger
}

var _ viewtemplate.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine.
func New(options ...Option) *Engine {
	e := &Engine{
		name: DefaultName,
		funcs: template.FuncMap{
			"kebab": resolver.Kebab,
			"trim":  strings.TrimSpace,
		},
		globals:   make(map[string]any),
		templates: make(map[string]*template.Template),
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Name implements render.Engine.
func (e *Engine) Name() string { return e.name }

// Render executes file with the variables of m merged over the globals.
func (e *Engine) Render(ctx context.Context, file string, m *view.Model) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tmpl, err := e.getTemplate(file)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, e.modelData(m)); err != nil {
		return "", fmt.Errorf("htmltemplate: execute template %q: %w", file, err)
	}
	return buf.String(), nil
}

// RenderString parses and executes content. Map data is merged over the
// globals; any other data is passed through unchanged.
func (e *Engine) RenderString(ctx context.Context, content string, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.RLock()
	tmpl, err := template.New("inline").Funcs(e.funcs).Parse(content)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("htmltemplate: parse template string: %w", err)
	}

	var payload any = data
	switch v := data.(type) {
	case nil:
		payload = e.data()
	case map[string]any:
		merged := e.data()
		maps.Copy(merged, v)
		payload = merged
	case *view.Model:
		payload = e.modelData(v)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("htmltemplate: execute template string: %w", err)
	}
	return buf.String(), nil
}

// GlobalContext merges data into the variables visible to every template.
// data must be a map with string keys or a struct.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	m, err := view.ModelFrom(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	maps.Copy(e.globals, m.Variables())
	return nil
}

// Forget drops the parsed template for file.
func (e *Engine) Forget(file string) {
	key, err := filepath.Abs(file)
	if err != nil {
		key = file
	}
	e.mu.Lock()
	delete(e.templates, key)
	e.mu.Unlock()
}

func (e *Engine) data() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return maps.Clone(e.globals)
}

// modelData merges the variables of m over the globals. Slot variables are
// typed template.HTML so composed markup is not escaped again.
func (e *Engine) modelData(m *view.Model) map[string]any {
	data := e.data()
	for name, value := range m.Variables() {
		if m.IsSlot(name) {
			data[name] = template.HTML(fmt.Sprint(value))
			continue
		}
		data[name] = value
	}
	if _, taken := data[viewtemplate.MetaVariable]; !taken {
		data[viewtemplate.MetaVariable] = viewtemplate.Meta(m)
	}
	return data
}

func (e *Engine) getTemplate(file string) (*template.Template, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("htmltemplate: template path %q: %w", file, err)
	}
	if e.noCache {
		e.mu.RLock()
		defer e.mu.RUnlock()
		return e.parse(path)
	}

	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err = e.parse(path)
	if err != nil {
		return nil, err
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

func (e *Engine) parse(path string) (*template.Template, error) {
	if path == "" {
		return nil, errors.New("htmltemplate: template path is required")
	}
	tmpl, err := template.New(filepath.Base(path)).Funcs(e.funcs).ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("htmltemplate: parse template %q: %w", path, err)
	}
	e.logger.Debug().Str("engine", e.name).Str("file", path).Msg("template parsed")
	return tmpl, nil
}
