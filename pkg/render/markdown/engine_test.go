package markdown_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/render/markdown"
	"github.com/goliatone/go-viewkit/pkg/render/template/gotemplate"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/testsupport"
	"github.com/goliatone/go-viewkit/pkg/view"
)

func TestEngine_Render(t *testing.T) {
	dir := testsupport.TemplateTree(t, map[string]string{
		"intro.md": "# Hello\n\nSome *text* and <script>alert(1)</script>.\n",
	})

	engine := markdown.New()
	got, err := engine.Render(context.Background(), filepath.Join(dir, "intro.md"), view.NewModel())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	if !strings.Contains(got, `<h1 id="hello">Hello</h1>`) {
		t.Fatalf("expected heading with id, got %q", got)
	}
	if !strings.Contains(got, "<em>text</em>") {
		t.Fatalf("expected emphasis, got %q", got)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("script must be sanitised, got %q", got)
	}
	if engine.Name() != markdown.DefaultName {
		t.Fatalf("unexpected name %q", engine.Name())
	}
}

func TestEngine_WithoutPolicy(t *testing.T) {
	engine := markdown.New(markdown.WithPolicy(nil), markdown.WithName("md"))
	got := engine.Convert([]byte("<span onclick=\"x()\">raw</span>\n"))
	if !strings.Contains(got, `onclick`) {
		t.Fatalf("nil policy should leave html untouched, got %q", got)
	}
	if engine.Name() != "md" {
		t.Fatalf("WithName ignored")
	}
}

func TestEngine_Preprocessor(t *testing.T) {
	dir := testsupport.TemplateTree(t, map[string]string{
		"post.md": "## {{ title }}\n\nBy {{ author }} in {{ _view.module }}\n",
	})
	pongo, err := gotemplate.New()
	if err != nil {
		t.Fatalf("new pongo2 engine: %v", err)
	}
	engine := markdown.New(markdown.WithPreprocessor(pongo))

	m := view.NewModel()
	m.SetVariable("title", "Release notes")
	m.SetVariable("author", "Ada")
	m.SetModule("news")

	got, err := engine.Render(context.Background(), filepath.Join(dir, "post.md"), m)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, ">Release notes</h2>") || !strings.Contains(got, "By Ada in news") {
		t.Fatalf("variables not substituted, got %q", got)
	}
}

// composed wires a pongo2 engine and a preprocessed markdown engine behind a
// strategy resolving names against dir.
func composed(t *testing.T, dir string, names ...string) *view.View {
	t.Helper()

	pongo, err := gotemplate.New()
	if err != nil {
		t.Fatalf("new pongo2 engine: %v", err)
	}
	registry := render.NewRegistry()
	registry.MustRegister(pongo)
	registry.MustRegister(markdown.New(markdown.WithPreprocessor(pongo)))

	r := resolver.New()
	for _, name := range names {
		r.RegisterTemplatePath(name, filepath.Join(dir, name))
	}
	strategy := render.NewStrategy(r, registry, render.WithExtensions(map[string]string{
		"tpl": gotemplate.DefaultName,
		"md":  markdown.DefaultName,
	}))
	return view.New(strategy)
}

func TestEngine_ComposedChildIsNotEscaped(t *testing.T) {
	dir := testsupport.TemplateTree(t, map[string]string{
		"page.md":   "# Page\n\n{{ content }}\n",
		"child.tpl": "<strong>child</strong>",
	})
	v := composed(t, dir, "page.md", "child.tpl")

	page := view.NewModel()
	page.SetTemplate("page.md")
	child := view.NewModel()
	child.SetTemplate("child.tpl")
	page.AddChild(child)

	got, err := v.Render(context.Background(), page)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(got, "<p><strong>child</strong></p>") {
		t.Fatalf("child markup escaped, got %q", got)
	}
}

type article struct {
	Title string `json:"title"`
}

func TestEngine_SeesSameVariablesAsTemplates(t *testing.T) {
	dir := testsupport.TemplateTree(t, map[string]string{
		"post.md":  "T={{ post.Title }}\n",
		"post.tpl": "T={{ post.Title }}",
	})
	v := composed(t, dir, "post.md", "post.tpl")

	for name, want := range map[string]string{
		"post.tpl": "T=Hello",
		"post.md":  "<p>T=Hello</p>\n",
	} {
		m := view.NewModel()
		m.SetTemplate(name)
		m.SetVariable("post", article{Title: "Hello"})
		m.SetVariable("events", make(chan int))

		got, err := v.Render(context.Background(), m)
		if err != nil {
			t.Fatalf("%s: render: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: want %q, got %q", name, want, got)
		}
	}
}

func TestEngine_MissingFile(t *testing.T) {
	engine := markdown.New()
	if _, err := engine.Render(context.Background(), filepath.Join(t.TempDir(), "nope.md"), view.NewModel()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
