// Package output post-processes rendered bodies before they are written to
// the client.
package output

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// HTMLContentType prefixes every content type Process rewrites.
const HTMLContentType = "text/html"

var blankLines = regexp.MustCompile(`(\s)*(\n)+(\r)*`)

// ClearBlankLines collapses every run of whitespace that contains a line
// break into a single "\n".
func ClearBlankLines(body string) string {
	return blankLines.ReplaceAllString(body, "\n")
}

// Option configures a Processor.
type Option func(*Processor)

// WithSanitizer sanitises HTML bodies with policy before blank lines are
// cleared.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(p *Processor) {
		p.policy = policy
	}
}

// WithLogger routes processing events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor rewrites HTML bodies and leaves every other content type
// untouched.
type Processor struct {
	policy *bluemonday.Policy
	logger zerolog.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(options ...Option) *Processor {
	p := &Processor{logger: zerolog.Nop()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	return p
}

// Process returns body cleaned for contentType.
func (p *Processor) Process(contentType, body string) string {
	if !strings.HasPrefix(contentType, HTMLContentType) {
		return body
	}
	if p.policy != nil {
		body = p.policy.Sanitize(body)
	}
	cleaned := ClearBlankLines(body)
	p.logger.Debug().Str("content_type", contentType).Int("before", len(body)).Int("after", len(cleaned)).Msg("output cleared")
	return cleaned
}
