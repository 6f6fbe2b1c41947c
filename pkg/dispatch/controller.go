package dispatch

import (
	"reflect"
	"strings"

	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/view"
)

// Named lets a controller choose the name used for module and template
// lookup instead of its Go type.
type Named interface {
	ControllerName() string
}

// ControllerName returns "<package path>/<type name>" for controller, after
// dereferencing pointers. Strings and Named controllers supply their own
// name; backslashes become slashes.
func ControllerName(controller any) (string, error) {
	switch c := controller.(type) {
	case nil:
		return "", &view.InvalidInputError{Field: "controller", Got: "nil", Want: "a named type, a string or a dispatch.Named"}
	case string:
		return cleanNamespace(c), nil
	case Named:
		return cleanNamespace(c.ControllerName()), nil
	}

	t := reflect.TypeOf(controller)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return "", &view.InvalidInputError{Field: "controller", Got: view.TypeName(controller), Want: "a named type, a string or a dispatch.Named"}
	}
	return t.PkgPath() + "/" + t.Name(), nil
}

// TemplateFor derives the template of an action: the module prefix is cut
// from the controller name, every "Controller" is removed along with Go
// packages named controller or controllers, the action (default "index")
// is appended and the result is kebab cased.
//
//	TemplateFor("acme/blog/Controller/IndexController", "acme/blog", "")
//	// "index/index"
func TemplateFor(controller, module, action string) (string, error) {
	name := cleanNamespace(controller)
	ns := cleanNamespace(module)
	if !strings.HasPrefix(name, ns+"/") {
		return "", &ModuleMismatchError{Controller: name, Module: module}
	}
	if action == "" {
		action = "index"
	}

	rest := strings.ReplaceAll(name[len(ns)+1:], "Controller", "")
	segments := make([]string, 0, 4)
	for _, segment := range strings.Split(rest, "/") {
		switch segment {
		case "", "controller", "controllers":
			continue
		}
		segments = append(segments, segment)
	}
	segments = append(segments, action)
	return resolver.Kebab(strings.Join(segments, "/")), nil
}
