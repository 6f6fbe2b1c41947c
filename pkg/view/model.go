// Package view holds the view model tree and the composition engine that
// renders children into their parent's slots before the parent itself.
package view

import (
	"fmt"
	"iter"
	"reflect"
	"strings"
)

const (
	// DefaultContentType is the content type of a new Model.
	DefaultContentType = "text/html"
	// DefaultGroupID is the slot a new Model is merged into when attached as
	// a child.
	DefaultGroupID = "content"
)

// VariableSource lets arbitrary types supply their view variables.
type VariableSource interface {
	ViewVariables() map[string]any
}

// Model is a node of a view tree: a variable bag plus the template, module
// and content type used to render it, and ordered children merged into its
// variables by slot (group id) when the tree is rendered.
type Model struct {
	variables   map[string]any
	slots       map[string]struct{}
	template    string
	module      string
	contentType string
	groupID     string
	children    []*Model
}

// NewModel returns an empty Model with the default content type and group id.
func NewModel() *Model {
	return &Model{
		variables:   make(map[string]any),
		slots:       make(map[string]struct{}),
		contentType: DefaultContentType,
		groupID:     DefaultGroupID,
	}
}

// ModelFrom returns a Model seeded with variables; see AddVariables for the
// accepted shapes.
func ModelFrom(variables any) (*Model, error) {
	m := NewModel()
	if err := m.AddVariables(variables); err != nil {
		return nil, err
	}
	return m, nil
}

// SetVariable sets a single variable. Setting a slot variable turns it back
// into an ordinary value.
func (m *Model) SetVariable(name string, value any) {
	m.variables[name] = value
	delete(m.slots, name)
}

// Variable returns the named variable, or def when it is missing or nil.
func (m *Model) Variable(name string, def any) any {
	if v, ok := m.variables[name]; ok && v != nil {
		return v
	}
	return def
}

// Variables returns a copy of the variable bag.
func (m *Model) Variables() map[string]any {
	out := make(map[string]any, len(m.variables))
	for k, v := range m.variables {
		out[k] = v
	}
	return out
}

// SetVariables replaces the variable bag with variables.
func (m *Model) SetVariables(variables any) error {
	vars, err := toVariables(variables)
	if err != nil {
		return err
	}
	m.variables = vars
	m.slots = make(map[string]struct{})
	return nil
}

// AddVariables merges variables into the bag, later keys winning. Accepted
// shapes are maps with string keys, structs (or pointers to them), *Model and
// VariableSource. Struct keys come from the `view` tag, then the `json` tag,
// then the field name; "-" skips a field.
func (m *Model) AddVariables(variables any) error {
	vars, err := toVariables(variables)
	if err != nil {
		return err
	}
	for k, v := range vars {
		m.SetVariable(k, v)
	}
	return nil
}

// IsSlot reports whether name holds rendered child output written during
// composition. Engines treat slot values as trusted markup.
func (m *Model) IsSlot(name string) bool {
	_, ok := m.slots[name]
	return ok
}

// appendSlot concatenates out onto the slot variable name.
func (m *Model) appendSlot(name, out string) {
	prev := m.Variable(name, "")
	s, ok := prev.(string)
	if !ok {
		s = fmt.Sprint(prev)
	}
	m.variables[name] = s + out
	m.slots[name] = struct{}{}
}

// Template returns the template name, "" when unset.
func (m *Model) Template() string { return m.template }

// SetTemplate sets the template name, short or module qualified.
func (m *Model) SetTemplate(template string) { m.template = template }

// Module returns the owning module name, "" when unset.
func (m *Model) Module() string { return m.module }

// SetModule sets the owning module name.
func (m *Model) SetModule(module string) { m.module = module }

// ContentType returns the content type of the rendered output.
func (m *Model) ContentType() string { return m.contentType }

// SetContentType sets the content type, e.g. "text/plain".
func (m *Model) SetContentType(kind string) { m.contentType = kind }

// GroupID returns the slot this model is merged into as a child. An empty
// group id keeps the child out of the output.
func (m *Model) GroupID() string { return m.groupID }

// SetGroupID sets the slot name.
func (m *Model) SetGroupID(id string) { m.groupID = id }

// AddChild appends child, keeping its own group id. Models form a tree: a
// nil child, m itself or any model m already descends from is ignored.
func (m *Model) AddChild(child *Model) {
	if child == nil || child.reaches(m) {
		return
	}
	m.children = append(m.children, child)
}

// AddChildGroup appends child and stamps groupID onto it. It ignores the
// same children AddChild does.
func (m *Model) AddChildGroup(child *Model, groupID string) {
	if child == nil || child.reaches(m) {
		return
	}
	child.SetGroupID(groupID)
	m.children = append(m.children, child)
}

// reaches reports whether target is m or one of its descendants.
func (m *Model) reaches(target *Model) bool {
	if m == target {
		return true
	}
	for _, child := range m.children {
		if child.reaches(target) {
			return true
		}
	}
	return false
}

// Children iterates the direct children in insertion order.
func (m *Model) Children() iter.Seq[*Model] {
	children := m.children
	return func(yield func(*Model) bool) {
		for _, child := range children {
			if !yield(child) {
				return
			}
		}
	}
}

// Len returns the number of direct children.
func (m *Model) Len() int { return len(m.children) }

const acceptedShapes = "a map with string keys, a struct, a *view.Model or a view.VariableSource"

func toVariables(v any) (map[string]any, error) {
	invalid := &InvalidInputError{Field: "variables", Got: TypeName(v), Want: acceptedShapes}
	if v == nil {
		return nil, invalid
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, invalid
	}

	switch vars := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vars))
		for k, val := range vars {
			out[k] = val
		}
		return out, nil
	case *Model:
		return vars.Variables(), nil
	case VariableSource:
		out := make(map[string]any)
		for k, val := range vars.ViewVariables() {
			out[k] = val
		}
		return out, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, invalid
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, invalid
		}
		out := make(map[string]any, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			out[it.Key().String()] = it.Value().Interface()
		}
		return out, nil
	case reflect.Struct:
		return structVariables(rv), nil
	default:
		return nil, invalid
	}
}

func structVariables(rv reflect.Value) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := fieldName(field)
		if name == "" {
			continue
		}
		out[name] = rv.Field(i).Interface()
	}
	return out
}

func fieldName(field reflect.StructField) string {
	for _, key := range []string{"view", "json"} {
		tag, ok := field.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}
