package template

import (
	"context"

	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// TemplateRenderer is an Engine backed by a template language. Besides
// rendering resolved files it renders inline template strings and carries
// global data shared by every template it renders.
type TemplateRenderer interface {
	render.Engine
	RenderString(ctx context.Context, content string, data any) (string, error)
	GlobalContext(data any) error
}

// MetaVariable is the variable under which engines expose the rendered
// model's template, module and content type.
const MetaVariable = "_view"

// Meta describes m for MetaVariable.
func Meta(m *view.Model) map[string]any {
	return map[string]any{
		"template":     m.Template(),
		"module":       m.Module(),
		"content_type": m.ContentType(),
	}
}
