package render

import (
	"context"

	"github.com/goliatone/go-viewkit/pkg/view"
)

// Engine renders a single, already resolved template file with the variables
// of a model. Composition has merged child output into the model before the
// engine sees it; variables for which m.IsSlot reports true hold trusted
// markup and must not be escaped again.
type Engine interface {
	Name() string
	Render(ctx context.Context, file string, m *view.Model) (string, error)
}

// TemplateResolver maps a template name and optional module onto a file.
// *resolver.Resolver and *resolver.Session both satisfy it.
type TemplateResolver interface {
	Resolve(template, module string) (string, error)
}
