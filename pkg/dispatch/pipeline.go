// Package dispatch turns the result of a controller action into a rendered
// response: it wraps results into view models, works out their module and
// template, attaches them to the layout, renders the layout and cleans the
// output.
package dispatch

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-viewkit/pkg/output"
	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// Responder is a result that writes its own response, bypassing the view
// layer.
type Responder = http.Handler

// Request is one controller action to dispatch.
type Request struct {
	// Controller identifies the controller; see ControllerName.
	Controller any
	// Action is the action name, "index" when empty.
	Action string
	// Result is what the action returned.
	Result any
}

// Response is the outcome of a dispatch. Either Responder is set or Body
// holds the rendered layout.
type Response struct {
	ContentType string
	Body        string
	Responder   Responder
}

// Phase groups stages. Phases run in declaration order.
type Phase int

// Phases in execution order.
const (
	PhaseDispatch Phase = iota
	PhaseRender
	PhaseFinish
)

// Stage is one step of the pipeline. Within a phase stages run by
// descending priority.
type Stage struct {
	Name     string
	Phase    Phase
	Priority int
	Run      func(ctx context.Context, x *Exchange) error
}

// Exchange carries the state of a single dispatch between stages.
type Exchange struct {
	Request  Request
	Result   any
	Model    *view.Model
	View     *view.View
	Session  *resolver.Session
	Response *Response

	pipeline *Pipeline
	module   string
}

// Module returns the namespace found by the inject_module stage.
func (x *Exchange) Module() string { return x.module }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger routes pipeline events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithProcessor replaces the output processor.
func WithProcessor(processor *output.Processor) Option {
	return func(p *Pipeline) {
		if processor != nil {
			p.processor = processor
		}
	}
}

// WithLayoutTemplate sets the template of every request's layout.
func WithLayoutTemplate(template string) Option {
	return func(p *Pipeline) {
		p.layoutTemplate = template
	}
}

// WithStage adds a stage. A stage with the name of a built in stage
// replaces it.
func WithStage(stage Stage) Option {
	return func(p *Pipeline) {
		p.addStage(stage)
	}
}

// Pipeline dispatches controller results through the view layer. A
// Pipeline is shared; every Run builds its own View and resolver Session.
type Pipeline struct {
	resolver  *resolver.Resolver
	strategy  *render.Strategy
	modules   *Modules
	processor *output.Processor
	logger    zerolog.Logger

	layoutTemplate string
	stages         []Stage
}

// Built in stage names.
const (
	StageCreateModel    = "create_model"
	StageInjectModule   = "inject_module"
	StageInjectTemplate = "inject_template"
	StageInjectModel    = "inject_model"
	StageRender         = "render"
	StageClearOutput    = "clear_output"
)

// New builds a Pipeline. The strategy is bound to a fresh session of r for
// every request.
func New(r *resolver.Resolver, strategy *render.Strategy, modules *Modules, options ...Option) *Pipeline {
	if modules == nil {
		modules = NewModules()
	}
	p := &Pipeline{
		resolver:       r,
		strategy:       strategy,
		modules:        modules,
		processor:      output.NewProcessor(),
		logger:         zerolog.Nop(),
		layoutTemplate: view.DefaultLayoutTemplate,
	}
	p.stages = []Stage{
		{Name: StageCreateModel, Phase: PhaseDispatch, Priority: 9000, Run: createModel},
		{Name: StageInjectModule, Phase: PhaseDispatch, Priority: 8000, Run: injectModule},
		{Name: StageInjectTemplate, Phase: PhaseDispatch, Priority: 7000, Run: injectTemplate},
		{Name: StageInjectModel, Phase: PhaseDispatch, Priority: 6000, Run: injectModel},
		{Name: StageRender, Phase: PhaseRender, Priority: 1000, Run: renderLayout},
		{Name: StageClearOutput, Phase: PhaseFinish, Priority: 10500, Run: clearOutput},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	p.sortStages()
	return p
}

// Modules returns the module registry consulted by InjectModule.
func (p *Pipeline) Modules() *Modules { return p.modules }

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run dispatches req. A Responder result short circuits the pipeline.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Response, error) {
	if p.resolver == nil || p.strategy == nil {
		return nil, errors.New("dispatch: resolver and strategy are required")
	}
	if responder, ok := req.Result.(Responder); ok {
		return &Response{Responder: responder}, nil
	}

	session := p.resolver.Session()
	v := view.New(p.strategy.Bind(session), view.WithLogger(p.logger))
	v.Layout().SetTemplate(p.layoutTemplate)

	x := &Exchange{
		Request:  req,
		Result:   req.Result,
		View:     v,
		Session:  session,
		pipeline: p,
	}

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stage.Run(ctx, x); err != nil {
			p.logger.Debug().Err(err).Str("stage", stage.Name).Msg("dispatch stage failed")
			return nil, err
		}
		if x.Response != nil && x.Response.Responder != nil {
			return x.Response, nil
		}
	}
	if x.Response == nil {
		return nil, errors.New("dispatch: no stage produced a response")
	}
	return x.Response, nil
}

func (p *Pipeline) addStage(stage Stage) {
	for i, existing := range p.stages {
		if existing.Name == stage.Name {
			p.stages[i] = stage
			return
		}
	}
	p.stages = append(p.stages, stage)
}

func (p *Pipeline) sortStages() {
	sort.SliceStable(p.stages, func(i, j int) bool {
		a, b := p.stages[i], p.stages[j]
		if a.Phase != b.Phase {
			return a.Phase < b.Phase
		}
		return a.Priority > b.Priority
	})
}
