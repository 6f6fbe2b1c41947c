package viewkit_test

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"

	viewkit "github.com/goliatone/go-viewkit"
	"github.com/goliatone/go-viewkit/pkg/config"
	"github.com/goliatone/go-viewkit/pkg/dispatch"
	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/testsupport"
	"github.com/goliatone/go-viewkit/pkg/view"
	"github.com/goliatone/go-viewkit/pkg/viewhttp"
)

// skeletonKit writes the starter project to a temporary directory and
// builds a Kit from its configuration.
func skeletonKit(t *testing.T, options ...viewkit.Option) (*viewkit.Kit, string) {
	t.Helper()

	dir := t.TempDir()
	if err := viewkit.WriteSkeleton(dir); err != nil {
		t.Fatalf("write skeleton: %v", err)
	}
	cfg, err := config.Load(filepath.Join(dir, viewkit.SkeletonConfig))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	kit, err := viewkit.New(append([]viewkit.Option{viewkit.WithConfig(cfg)}, options...)...)
	if err != nil {
		t.Fatalf("new kit: %v", err)
	}
	return kit, dir
}

func TestSkeleton_Renders(t *testing.T) {
	reg := prometheus.NewRegistry()
	kit, dir := skeletonKit(t, viewkit.WithMetrics(reg))

	tree, err := config.LoadTree(filepath.Join(dir, viewkit.SkeletonTree))
	if err != nil {
		t.Fatalf("load tree: %v", err)
	}
	out, err := kit.Render(context.Background(), tree)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"<title>Welcome</title>",
		"<main><h1>It works</h1>",
		"<li>engines</li>",
		"About</h2>",
		"<strong>viewkit</strong>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\n\n") {
		t.Errorf("blank lines were not collapsed:\n%s", out)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{"viewkit_resolver_resolutions_total", "viewkit_render_duration_seconds"} {
		if !names[want] {
			t.Errorf("metric %s not found", want)
		}
	}
}

func TestSkeleton_Files(t *testing.T) {
	var files []string
	err := fs.WalkDir(viewkit.Skeleton(), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}

	want := []string{
		"app/view/index/about.md",
		"app/view/index/index.tpl",
		"app/view/layout/layout.tpl",
		"tree.yaml",
		"view.yaml",
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Fatalf("skeleton files (-want +got):\n%s", diff)
	}
}

func TestWriteSkeleton_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, viewkit.SkeletonConfig), []byte("mine"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := viewkit.WriteSkeleton(dir); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("expected exist error, got %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, viewkit.SkeletonConfig))
	if err != nil || string(data) != "mine" {
		t.Fatalf("existing file changed: %q %v", data, err)
	}
}

func TestKit_Defaults(t *testing.T) {
	kit, err := viewkit.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if diff := cmp.Diff(viewkit.DefaultExtensions(), kit.Strategy().Extensions()); diff != "" {
		t.Fatalf("extensions (-want +got):\n%s", diff)
	}
	want := []string{viewkit.EngineHTML, viewkit.EngineMarkdown, viewkit.EnginePongo2}
	if diff := cmp.Diff(want, kit.Strategy().Registry().List()); diff != "" {
		t.Fatalf("engines (-want +got):\n%s", diff)
	}
}

func TestKit_ConfigErrors(t *testing.T) {
	cfg, err := config.Parse([]byte("view:\n  strategy:\n    tpl: jinja\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := viewkit.New(viewkit.WithConfig(cfg)); !errors.Is(err, render.ErrEngineNotFound) {
		t.Fatalf("expected engine not found, got %v", err)
	}

	cfg, err = config.Parse([]byte("view:\n  resolver:\n    Blog:\n      index/index: 42\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := viewkit.New(viewkit.WithConfig(cfg)); !errors.Is(err, view.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestKit_Dispatch(t *testing.T) {
	kit, _ := skeletonKit(t)

	resp, err := kit.Pipeline().Run(context.Background(), dispatch.Request{
		Controller: "App/Controller/IndexController",
		Result:     map[string]any{"heading": "Dispatched", "items": []string{"OneItem"}},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"<h1>Dispatched</h1>", "<li>one-item</li>"} {
		if !strings.Contains(resp.Body, want) {
			t.Errorf("body lacks %q:\n%s", want, resp.Body)
		}
	}
}

func TestKit_RegisterModuleAndHandler(t *testing.T) {
	kit, err := viewkit.New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	root := testsupport.ModuleTree(t, map[string]map[string]string{
		"shop": {
			"layout/layout.html": "<body>{{ content }}</body>",
			"cart/index.gohtml":  "<p>{{ .count }} items</p>",
		},
	})
	if err := kit.RegisterModule("Acme/Shop", filepath.Join(root, "shop")); err != nil {
		t.Fatalf("register: %v", err)
	}

	router := kit.Handler().NewRouter(viewhttp.Route{
		Pattern:    "/cart",
		Controller: "Acme/Shop/CartController",
		Fn: func(*http.Request) (any, error) {
			return map[string]any{"count": 2}, nil
		},
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff("<body><p>2 items</p></body>", rec.Body.String()); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestKit_WithSanitizer(t *testing.T) {
	kit, err := viewkit.New(viewkit.WithSanitizer(bluemonday.UGCPolicy()))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	root := testsupport.ModuleTree(t, map[string]map[string]string{
		"site": {"page.tpl": "<script>alert(1)</script><p>ok</p>"},
	})
	if err := kit.RegisterModule("Site", filepath.Join(root, "site")); err != nil {
		t.Fatalf("register: %v", err)
	}

	m := view.NewModel()
	m.SetTemplate("page")
	m.SetModule("Site")
	out, err := kit.Render(context.Background(), m)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "<p>ok</p>" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestKit_WatchDropsCompiledTemplates(t *testing.T) {
	kit, dir := skeletonKit(t)
	w, err := kit.Watch()
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer w.Stop()

	renderIndex := func() string {
		m := view.NewModel()
		m.SetTemplate("index/index")
		m.SetModule("App")
		m.SetVariable("heading", "x")
		out, err := kit.Render(context.Background(), m)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		return out
	}
	if got := renderIndex(); !strings.Contains(got, "<h1>x</h1>") {
		t.Fatalf("unexpected first render %q", got)
	}

	file := filepath.Join(dir, "app", "view", "index", "index.tpl")
	if err := os.WriteFile(file, []byte("<h2>{{ heading }}</h2>"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if got := renderIndex(); got == "<h2>x</h2>" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("changed template was never recompiled")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
