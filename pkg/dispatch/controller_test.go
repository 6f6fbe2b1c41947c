package dispatch_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-viewkit/pkg/dispatch"
	"github.com/goliatone/go-viewkit/pkg/view"
)

type namedController struct{}

func (namedController) ControllerName() string { return `Acme\Shop\CartController` }

func TestControllerName(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{in: IndexController{}, want: "github.com/goliatone/go-viewkit/pkg/dispatch_test/IndexController"},
		{in: &IndexController{}, want: "github.com/goliatone/go-viewkit/pkg/dispatch_test/IndexController"},
		{in: `\Acme\Blog\Controller\IndexController`, want: "Acme/Blog/Controller/IndexController"},
		{in: namedController{}, want: "Acme/Shop/CartController"},
	}
	for _, tc := range cases {
		got, err := dispatch.ControllerName(tc.in)
		if err != nil {
			t.Fatalf("%T: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ControllerName(%T) = %q, want %q", tc.in, got, tc.want)
		}
	}

	for _, bad := range []any{nil, struct{}{}, 42} {
		if _, err := dispatch.ControllerName(bad); !errors.Is(err, view.ErrInvalidInput) {
			t.Errorf("ControllerName(%T): expected invalid input, got %v", bad, err)
		}
	}
}

func TestTemplateFor(t *testing.T) {
	cases := []struct {
		controller, module, action, want string
	}{
		{"Acme/Blog/Controller/IndexController", "Acme/Blog", "", "index/index"},
		{`Acme\Blog\Controller\IndexController`, `Acme\Blog`, "show", "index/show"},
		{"Acme/Blog/Controller/Admin/UserProfileController", "Acme/Blog", "editForm", "admin/user-profile/edit-form"},
		{"github.com/acme/blog/controllers/PostController", "github.com/acme/blog", "list", "post/list"},
		{"github.com/acme/blog/admin/DashboardController", "github.com/acme/blog", "", "admin/dashboard/index"},
	}
	for _, tc := range cases {
		got, err := dispatch.TemplateFor(tc.controller, tc.module, tc.action)
		if err != nil {
			t.Fatalf("TemplateFor(%q, %q): %v", tc.controller, tc.module, err)
		}
		if got != tc.want {
			t.Errorf("TemplateFor(%q, %q, %q) = %q, want %q", tc.controller, tc.module, tc.action, got, tc.want)
		}
	}

	_, err := dispatch.TemplateFor("Acme/Blog/Controller/IndexController", "Acme/Shop", "")
	var mismatch *dispatch.ModuleMismatchError
	if !errors.As(err, &mismatch) || mismatch.Module != "Acme/Shop" {
		t.Fatalf("expected module mismatch, got %v", err)
	}
	if _, err := dispatch.TemplateFor("Acme/BlogExtra/IndexController", "Acme/Blog", ""); !errors.Is(err, dispatch.ErrModuleMismatch) {
		t.Fatalf("a sibling namespace sharing a prefix must not match, got %v", err)
	}
}

func TestModules(t *testing.T) {
	modules := dispatch.NewModules()
	if err := modules.Register(`Acme\Blog`, "/srv/blog"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := modules.Register("Acme/Blog/Admin", "/srv/admin"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := modules.Register(`\`, "/srv"); err == nil {
		t.Fatalf("expected error for empty namespace")
	}

	if diff := cmp.Diff([]string{"Acme/Blog", "Acme/Blog/Admin"}, modules.Namespaces()); diff != "" {
		t.Fatalf("namespaces (-want +got):\n%s", diff)
	}
	if dir, ok := modules.Dir("Acme/Blog/"); !ok || dir != "/srv/blog" {
		t.Fatalf("Dir = %q %v", dir, ok)
	}

	cases := map[string]string{
		"Acme/Blog/Admin/Controller/UserController": "Acme/Blog/Admin",
		"Acme/Blog/Controller/IndexController":      "Acme/Blog",
		"Acme/Blog/IndexController":                 "Acme/Blog",
	}
	for controller, want := range cases {
		got, ok := modules.ModuleOf(controller)
		if !ok || got != want {
			t.Errorf("ModuleOf(%q) = %q %v, want %q", controller, got, ok, want)
		}
	}
	if _, ok := modules.ModuleOf("Acme/Blog"); ok {
		t.Fatalf("a namespace is not its own controller")
	}
	if _, ok := modules.ModuleOf("Other/IndexController"); ok {
		t.Fatalf("unexpected module for foreign controller")
	}
}
