package view

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// DefaultLayoutTemplate is the template of the layout created by Layout.
const DefaultLayoutTemplate = "layout/layout"

// Strategy turns a single model into its output once its children have been
// merged into its variables. Implementations resolve the template and pick an
// engine; View never does either.
type Strategy interface {
	RenderModel(ctx context.Context, m *Model) (string, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, m *Model) (string, error)

// RenderModel calls f.
func (f StrategyFunc) RenderModel(ctx context.Context, m *Model) (string, error) {
	return f(ctx, m)
}

// Option configures a View.
type Option func(*View)

// WithLogger routes composition debug events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(v *View) {
		v.logger = logger
	}
}

// WithLayout sets the root model instead of the lazily created default.
func WithLayout(layout *Model) Option {
	return func(v *View) {
		v.layout = layout
	}
}

// View composes a tree of models into a single output. A View holds the
// request's layout and is not meant to be shared between requests.
type View struct {
	strategy Strategy
	layout   *Model
	logger   zerolog.Logger
}

// New constructs a View rendering nodes through strategy.
func New(strategy Strategy, options ...Option) *View {
	v := &View{
		strategy: strategy,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// Layout returns the root model, creating one bound to DefaultLayoutTemplate
// on first use.
func (v *View) Layout() *Model {
	if v.layout == nil {
		layout := NewModel()
		layout.SetTemplate(DefaultLayoutTemplate)
		v.layout = layout
	}
	return v.layout
}

// SetLayout replaces the root model.
func (v *View) SetLayout(layout *Model) {
	v.layout = layout
}

// Render renders m depth first. Every child with a non-empty group id is
// rendered before m and its output appended, in child order, to the variable
// of m named after the group id; children with an empty group id are skipped.
// m itself is then rendered by the strategy. The first error aborts the whole
// render and is returned as the strategy produced it.
func (v *View) Render(ctx context.Context, m *Model) (string, error) {
	if ctx == nil {
		return "", errors.New("view: context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if v.strategy == nil {
		return "", errors.New("view: strategy is required")
	}
	if m == nil {
		return "", errors.New("view: model is required")
	}
	return v.render(ctx, m, 0)
}

func (v *View) render(ctx context.Context, m *Model, depth int) (string, error) {
	for child := range m.Children() {
		groupID := child.GroupID()
		if groupID == "" {
			continue
		}
		out, err := v.render(ctx, child, depth+1)
		if err != nil {
			return "", err
		}
		m.appendSlot(groupID, out)
	}

	out, err := v.strategy.RenderModel(ctx, m)
	if err != nil {
		v.logger.Debug().Err(err).Str("template", m.Template()).Int("depth", depth).Msg("view render failed")
		return "", err
	}
	v.logger.Debug().
		Str("template", m.Template()).
		Str("module", m.Module()).
		Int("depth", depth).
		Int("bytes", len(out)).
		Msg("view rendered")
	return out, nil
}
