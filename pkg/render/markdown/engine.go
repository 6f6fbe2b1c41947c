// Package markdown renders Markdown template files to sanitised HTML.
package markdown

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/russross/blackfriday"

	viewtemplate "github.com/goliatone/go-viewkit/pkg/render/template"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// DefaultName is the engine name used when WithName is not given.
const DefaultName = "markdown"

const extensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
	blackfriday.EXTENSION_TABLES |
	blackfriday.EXTENSION_AUTOLINK |
	blackfriday.EXTENSION_FENCED_CODE |
	blackfriday.EXTENSION_STRIKETHROUGH |
	blackfriday.EXTENSION_HEADER_IDS |
	blackfriday.EXTENSION_LAX_HTML_BLOCKS

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

// WithPolicy replaces the sanitiser policy. A nil policy disables
// sanitising.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithPreprocessor runs the Markdown source through a template engine before
// converting it, so files can use the model's variables.
func WithPreprocessor(r viewtemplate.TemplateRenderer) Option {
	return func(e *Engine) {
		e.pre = r
	}
}

// WithLogger routes render events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine converts Markdown files with blackfriday and sanitises the result
// with bluemonday.
type Engine struct {
	name     string
	renderer blackfriday.Renderer
	policy   *bluemonday.Policy
	pre      viewtemplate.TemplateRenderer
	logger   zerolog.Logger
}

// DefaultPolicy is the UGC policy plus class attributes on the elements
// fenced code blocks and callouts produce.
func DefaultPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("div", "i", "span", "code")
	return policy
}

// New constructs an Engine.
func New(options ...Option) *Engine {
	e := &Engine{
		name: DefaultName,
		renderer: blackfriday.HtmlRenderer(
			blackfriday.HTML_SAFELINK|blackfriday.HTML_NOFOLLOW_LINKS, "", ""),
		policy: DefaultPolicy(),
		logger: zerolog.Nop(),
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

// Render converts file. With a preprocessor the source is first rendered
// against the variables of m.
func (e *Engine) Render(ctx context.Context, file string, m *view.Model) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("markdown: read %q: %w", file, err)
	}

	source := string(raw)
	if e.pre != nil {
		source, err = e.pre.RenderString(ctx, source, m)
		if err != nil {
			return "", fmt.Errorf("markdown: preprocess %q: %w", file, err)
		}
	}

	out := e.Convert([]byte(source))
	e.logger.Debug().Str("engine", e.name).Str("file", file).Int("bytes", len(out)).Msg("markdown rendered")
	return out, nil
}

// Convert turns Markdown into HTML, sanitised when the engine has a policy.
func (e *Engine) Convert(source []byte) string {
	html := blackfriday.Markdown(source, e.renderer, extensions)
	if e.policy == nil {
		return string(html)
	}
	return e.policy.Sanitize(string(html))
}
