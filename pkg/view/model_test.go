package view_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewkit/pkg/view"
)

func TestNewModel_Defaults(t *testing.T) {
	m := view.NewModel()

	if m.ContentType() != "text/html" {
		t.Fatalf("content type %q", m.ContentType())
	}
	if m.GroupID() != "content" {
		t.Fatalf("group id %q", m.GroupID())
	}
	if m.Template() != "" || m.Module() != "" {
		t.Fatalf("template/module must start empty, got %q/%q", m.Template(), m.Module())
	}
	if len(m.Variables()) != 0 || m.Len() != 0 {
		t.Fatalf("new model must be empty")
	}
}

func TestModel_Variables(t *testing.T) {
	m := view.NewModel()
	m.SetVariable("title", "Hello")
	m.SetVariable("empty", nil)

	if got := m.Variable("title", "x"); got != "Hello" {
		t.Fatalf("title = %v", got)
	}
	if got := m.Variable("missing", "fallback"); got != "fallback" {
		t.Fatalf("missing = %v", got)
	}
	if got := m.Variable("empty", "fallback"); got != "fallback" {
		t.Fatalf("nil variable should yield default, got %v", got)
	}

	snapshot := m.Variables()
	snapshot["title"] = "mutated"
	if got := m.Variable("title", nil); got != "Hello" {
		t.Fatalf("Variables must return a copy, model now has %v", got)
	}
}

type pageData struct {
	Title   string `view:"title"`
	Summary string `json:"summary,omitempty"`
	Author  string
	Secret  string `view:"-"`
	hidden  string
}

type sourced struct{}

func (sourced) ViewVariables() map[string]any {
	return map[string]any{"from": "source"}
}

func TestModel_AddVariablesShapes(t *testing.T) {
	cases := []struct {
		name  string
		input any
		want  map[string]any
	}{
		{
			name:  "map any",
			input: map[string]any{"a": 1},
			want:  map[string]any{"a": 1},
		},
		{
			name:  "typed map",
			input: map[string]string{"b": "two"},
			want:  map[string]any{"b": "two"},
		},
		{
			name:  "struct",
			input: pageData{Title: "T", Summary: "S", Author: "A", Secret: "x", hidden: "h"},
			want:  map[string]any{"title": "T", "summary": "S", "Author": "A"},
		},
		{
			name:  "struct pointer",
			input: &pageData{Title: "P"},
			want:  map[string]any{"title": "P", "summary": "", "Author": ""},
		},
		{
			name:  "variable source",
			input: sourced{},
			want:  map[string]any{"from": "source"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := view.NewModel()
			if err := m.AddVariables(tc.input); err != nil {
				t.Fatalf("add variables: %v", err)
			}
			if diff := cmp.Diff(tc.want, m.Variables()); diff != "" {
				t.Fatalf("variables mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModel_AddVariablesFromModel(t *testing.T) {
	src := view.NewModel()
	src.SetVariable("x", 1)

	m, err := view.ModelFrom(src)
	if err != nil {
		t.Fatalf("model from model: %v", err)
	}
	if m.Variable("x", nil) != 1 {
		t.Fatalf("expected x copied from source model")
	}
}

func TestModel_AddVariablesMerges(t *testing.T) {
	m := view.NewModel()
	if err := m.AddVariables(map[string]any{"a": 1, "b": 2}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddVariables(map[string]any{"b": 3, "c": 4}); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"a": 1, "b": 3, "c": 4}
	if diff := cmp.Diff(want, m.Variables()); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}

	if err := m.SetVariables(map[string]any{"z": true}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]any{"z": true}, m.Variables()); diff != "" {
		t.Fatalf("set variables mismatch (-want +got):\n%s", diff)
	}
}

func TestModel_AddVariablesInvalid(t *testing.T) {
	var nilMap *map[string]any
	for _, input := range []any{nil, 42, "text", []string{"a"}, map[int]string{1: "a"}, nilMap} {
		m := view.NewModel()
		err := m.AddVariables(input)
		if !errors.Is(err, view.ErrInvalidInput) {
			t.Fatalf("input %T: expected invalid input error, got %v", input, err)
		}
		var invalid *view.InvalidInputError
		if !errors.As(err, &invalid) || invalid.Field != "variables" {
			t.Fatalf("input %T: unexpected error %#v", input, err)
		}
	}

	if _, err := view.ModelFrom(7); !errors.Is(err, view.ErrInvalidInput) {
		t.Fatalf("ModelFrom should reject ints, got %v", err)
	}
}

func TestModel_Children(t *testing.T) {
	parent := view.NewModel()
	a := view.NewModel()
	b := view.NewModel()
	b.SetGroupID("sidebar")
	c := view.NewModel()

	parent.AddChild(a)
	parent.AddChild(b)
	parent.AddChildGroup(c, "footer")
	parent.AddChild(nil)

	got := slices.Collect(parent.Children())
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("unexpected children order: %v", got)
	}
	if a.GroupID() != "content" || b.GroupID() != "sidebar" || c.GroupID() != "footer" {
		t.Fatalf("unexpected group ids %q %q %q", a.GroupID(), b.GroupID(), c.GroupID())
	}

	grandchild := view.NewModel()
	a.AddChild(grandchild)
	if parent.Len() != 3 {
		t.Fatalf("children iteration must stay shallow, got %d", parent.Len())
	}

	blank := view.NewModel()
	parent.AddChildGroup(blank, "")
	if blank.GroupID() != "" {
		t.Fatalf("explicit empty group id must be stamped")
	}
}

func TestModel_ChildrenStayATree(t *testing.T) {
	root := view.NewModel()
	child := view.NewModel()
	grandchild := view.NewModel()
	root.AddChild(child)
	child.AddChild(grandchild)

	root.AddChild(root)
	child.AddChildGroup(root, "loop")
	grandchild.AddChild(child)

	if root.Len() != 1 || child.Len() != 1 || grandchild.Len() != 0 {
		t.Fatalf("cycles must be ignored, got lens %d %d %d", root.Len(), child.Len(), grandchild.Len())
	}
	if root.GroupID() != "content" {
		t.Fatalf("rejected child must keep its group id, got %q", root.GroupID())
	}

	shared := view.NewModel()
	root.AddChild(shared)
	child.AddChild(shared)
	if root.Len() != 2 || child.Len() != 2 {
		t.Fatalf("a model may appear under two parents")
	}
}
