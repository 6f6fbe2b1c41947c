package dispatch

import (
	"context"

	"github.com/goliatone/go-viewkit/pkg/view"
)

func createModel(_ context.Context, x *Exchange) error {
	switch result := x.Result.(type) {
	case nil:
		return nil
	case bool:
		if !result {
			return nil
		}
	case *view.Model:
		x.Model = result
		return nil
	case Responder:
		x.Response = &Response{Responder: result}
		return nil
	}

	m, err := view.ModelFrom(x.Result)
	if err != nil {
		return err
	}
	x.Model = m
	x.Result = m
	return nil
}

func injectModule(_ context.Context, x *Exchange) error {
	name, err := ControllerName(x.Request.Controller)
	if err != nil {
		return err
	}
	module, ok := x.pipeline.modules.ModuleOf(name)
	if !ok {
		return &ModuleNotFoundError{Controller: name}
	}
	x.module = module

	layout := x.View.Layout()
	if layout.Module() == "" {
		layout.SetModule(module)
	}
	if x.Model != nil && x.Model.Module() == "" {
		x.Model.SetModule(module)
	}
	return nil
}

func injectTemplate(_ context.Context, x *Exchange) error {
	if x.Model == nil || x.Model.Template() != "" {
		return nil
	}
	name, err := ControllerName(x.Request.Controller)
	if err != nil {
		return err
	}
	module := x.Model.Module()
	if module == "" {
		return &MissingModuleError{Controller: name}
	}
	template, err := TemplateFor(name, module, x.Request.Action)
	if err != nil {
		return err
	}
	x.Model.SetTemplate(template)
	x.pipeline.logger.Debug().Str("controller", name).Str("template", template).Msg("template injected")
	return nil
}

func injectModel(_ context.Context, x *Exchange) error {
	if x.Model != nil {
		x.View.Layout().AddChild(x.Model)
	}
	return nil
}

func renderLayout(ctx context.Context, x *Exchange) error {
	layout := x.View.Layout()
	body, err := x.View.Render(ctx, layout)
	if err != nil {
		return err
	}
	x.Response = &Response{ContentType: layout.ContentType(), Body: body}
	return nil
}

func clearOutput(_ context.Context, x *Exchange) error {
	if x.Response == nil || x.Response.Responder != nil {
		return nil
	}
	x.Response.Body = x.pipeline.processor.Process(x.Response.ContentType, x.Response.Body)
	return nil
}
