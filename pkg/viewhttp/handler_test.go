package viewhttp_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/goliatone/go-viewkit/pkg/dispatch"
	"github.com/goliatone/go-viewkit/pkg/render"
	"github.com/goliatone/go-viewkit/pkg/render/template/gotemplate"
	"github.com/goliatone/go-viewkit/pkg/resolver"
	"github.com/goliatone/go-viewkit/pkg/testsupport"
	"github.com/goliatone/go-viewkit/pkg/viewhttp"
)

const postController = "Acme/Blog/Controller/PostController"

func newHandler(t *testing.T) *viewhttp.Handler {
	t.Helper()

	root := testsupport.ModuleTree(t, map[string]map[string]string{
		"blog": {
			"layout/layout.tpl": "<html>{{ content }}</html>",
			"post/index.tpl":    "posts: {{ count }}",
			"post/show.tpl":     "<h1>{{ title }}</h1>",
		},
	})

	r := resolver.New(resolver.WithNormalizer(resolver.NewNormalizer()))
	modules := dispatch.NewModules()
	if err := modules.Register("Acme/Blog", filepath.Join(root, "blog")); err != nil {
		t.Fatalf("register: %v", err)
	}
	modules.ConfigureResolver(r)

	engine, err := gotemplate.New()
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	registry := render.NewRegistry()
	registry.MustRegister(engine)
	strategy := render.NewStrategy(r, registry, render.WithExtensions(map[string]string{"tpl": gotemplate.DefaultName}))

	return viewhttp.New(dispatch.New(r, strategy, modules))
}

type teapotError struct{}

func (teapotError) Error() string   { return "short and stout" }
func (teapotError) StatusCode() int { return http.StatusTeapot }

func TestAction_RendersResult(t *testing.T) {
	h := newHandler(t)
	router := h.NewRouter(
		viewhttp.Route{Pattern: "/posts", Controller: postController, Fn: func(*http.Request) (any, error) {
			return map[string]any{"count": 3}, nil
		}},
		viewhttp.Route{Pattern: "/posts/{action}", Controller: postController, Fn: func(r *http.Request) (any, error) {
			return map[string]any{"title": r.URL.Query().Get("title")}, nil
		}},
	)

	cases := []struct {
		path string
		want string
	}{
		{path: "/posts", want: "<html>posts: 3</html>"},
		{path: "/posts/show?title=Hello", want: "<html><h1>Hello</h1></html>"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status %d, body %q", tc.path, rec.Code, rec.Body.String())
		}
		if diff := cmp.Diff(tc.want, rec.Body.String()); diff != "" {
			t.Fatalf("%s: body mismatch (-want +got):\n%s", tc.path, diff)
		}
		if got := rec.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
			t.Fatalf("%s: content type %q", tc.path, got)
		}
		if _, err := uuid.Parse(rec.Header().Get(viewhttp.RequestIDHeader)); err != nil {
			t.Fatalf("%s: request id: %v", tc.path, err)
		}
	}
}

func TestAction_KeepsIncomingRequestID(t *testing.T) {
	h := newHandler(t)
	handler := h.Action(postController, "", func(*http.Request) (any, error) { return nil, nil })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(viewhttp.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(viewhttp.RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q", got)
	}
	if rec.Body.String() != "<html></html>" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestAction_ServesResponders(t *testing.T) {
	h := newHandler(t)
	handler := h.Action(postController, "show", func(*http.Request) (any, error) {
		return http.RedirectHandler("/login", http.StatusFound), nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAction_ErrorStatus(t *testing.T) {
	h := newHandler(t)

	cases := []struct {
		name       string
		controller any
		fn         viewhttp.ActionFunc
		want       int
	}{
		{
			name:       "coded action error",
			controller: postController,
			fn:         func(*http.Request) (any, error) { return nil, teapotError{} },
			want:       http.StatusTeapot,
		},
		{
			name:       "plain action error",
			controller: postController,
			fn:         func(*http.Request) (any, error) { return nil, errors.New("boom") },
			want:       http.StatusInternalServerError,
		},
		{
			name:       "unknown module",
			controller: "Other/IndexController",
			want:       http.StatusInternalServerError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Action(tc.controller, "", tc.fn).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	if got := viewhttp.StatusCode(&dispatch.ModuleNotFoundError{Controller: "x"}); got != http.StatusInternalServerError {
		t.Fatalf("module not found: %d", got)
	}
	wrapped := errors.Join(errors.New("context"), teapotError{})
	if got := viewhttp.StatusCode(wrapped); got != http.StatusTeapot {
		t.Fatalf("wrapped: %d", got)
	}
}
