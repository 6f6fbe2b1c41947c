package dispatch

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-viewkit/pkg/resolver"
)

// Modules is the set of registered module namespaces and their directories.
// A namespace is a slash separated prefix of controller names, typically a
// Go package path such as "github.com/acme/shop/blog".
type Modules struct {
	mu   sync.RWMutex
	dirs map[string]string
}

// NewModules creates an empty set.
func NewModules() *Modules {
	return &Modules{dirs: make(map[string]string)}
}

// Register adds namespace with its module directory. Backslashes in the
// namespace are treated as separators. Registering a namespace twice
// replaces its directory.
func (m *Modules) Register(namespace, dir string) error {
	ns := cleanNamespace(namespace)
	if ns == "" {
		return fmt.Errorf("dispatch: module namespace is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[ns] = dir
	return nil
}

// Has reports whether namespace is registered.
func (m *Modules) Has(namespace string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.dirs[cleanNamespace(namespace)]
	return ok
}

// Dir returns the directory of namespace.
func (m *Modules) Dir(namespace string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dir, ok := m.dirs[cleanNamespace(namespace)]
	return dir, ok
}

// Namespaces returns the registered namespaces, sorted.
func (m *Modules) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.dirs))
	for ns := range m.dirs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// ConfigureResolver registers every module directory on r, with the view
// sub directory appended.
func (m *Modules) ConfigureResolver(r *resolver.Resolver) {
	for _, ns := range m.Namespaces() {
		dir, _ := m.Dir(ns)
		r.RegisterModulePath(ns, dir, true)
	}
}

// ModuleOf walks up the segments of controller name and returns the first
// registered namespace.
func (m *Modules) ModuleOf(name string) (string, bool) {
	current := cleanNamespace(name)
	for {
		pos := strings.LastIndex(current, "/")
		if pos < 0 {
			return "", false
		}
		current = current[:pos]
		if m.Has(current) {
			return current, true
		}
	}
}

func cleanNamespace(ns string) string {
	return strings.Trim(strings.ReplaceAll(ns, `\`, "/"), "/")
}
