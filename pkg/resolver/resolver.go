// Package resolver maps template names to files through an explicit
// template table and per-module directories searched by base name.
package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultPrefix is the sub directory of a module root holding its templates.
const DefaultPrefix = "view"

const nameSeparator = "::"

// Resolver maps template names to files on disk using an explicit template
// table, per-module template roots searched by base name, and a last used
// module fallback.
//
// Registrations and the discovery cache are shared and guarded by a mutex.
// The last used module is kept per Session; Resolve on the Resolver itself
// uses a single process-wide session.
type Resolver struct {
	mu         sync.RWMutex
	modules    map[string]string
	templates  map[string]string
	discovered map[string]struct{}
	precedence map[string]int

	normalizer *Normalizer
	logger     zerolog.Logger
	observer   Observer
	global     *Session
}

// New constructs an empty Resolver.
func New(options ...Option) *Resolver {
	r := &Resolver{
		modules:    make(map[string]string),
		templates:  make(map[string]string),
		discovered: make(map[string]struct{}),
		normalizer: DefaultNormalizer,
		logger:     zerolog.Nop(),
		observer:   nopObserver{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	r.global = r.Session()
	return r
}

// FullTemplateName joins a module and a short template name using the
// default normalizer: FullTemplateName("EsUser", "/foo/index") is
// "es-user::foo/index".
func FullTemplateName(module, shortName string) string {
	return DefaultNormalizer.Normalize(module) + nameSeparator + strings.TrimLeft(shortName, "/")
}

// FullTemplateName is FullTemplateName using the resolver's normalizer.
func (r *Resolver) FullTemplateName(module, shortName string) string {
	return r.normalizer.Normalize(module) + nameSeparator + strings.TrimLeft(shortName, "/")
}

// NormalizeModule returns the module key for module.
func (r *Resolver) NormalizeModule(module string) string {
	return r.normalizer.Normalize(module)
}

// RegisterModulePath registers root as the template directory of module,
// appending DefaultPrefix when addPrefix is set. A previous root for the same
// module is replaced.
func (r *Resolver) RegisterModulePath(module, root string, addPrefix bool) {
	dir := normalizePath(root)
	if addPrefix {
		dir = filepath.Join(dir, DefaultPrefix)
	}
	key := r.normalizer.Normalize(module)

	r.mu.Lock()
	r.modules[key] = dir
	r.mu.Unlock()
}

// ModulesMap returns a copy of the registered module roots keyed by module
// key.
func (r *Resolver) ModulesMap() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.modules))
	for k, v := range r.modules {
		out[k] = v
	}
	return out
}

// RegisterTemplatePath stores an explicit path for name, which may be short
// or module qualified. Existing entries are overwritten.
func (r *Resolver) RegisterTemplatePath(name, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates[name] = path
	delete(r.discovered, name)
}

// RegisterTemplatePaths merges entries into the template table, overwriting
// keys that already exist.
func (r *Resolver) RegisterTemplatePaths(entries map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, path := range entries {
		r.templates[name] = path
		delete(r.discovered, name)
	}
}

// TemplatesMap returns a copy of the template table, including entries
// cached by discovery.
func (r *Resolver) TemplatesMap() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.templates))
	for k, v := range r.templates {
		out[k] = v
	}
	return out
}

// HasTemplate reports whether name has an entry in the template table.
func (r *Resolver) HasTemplate(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.templates[name]
	return ok
}

// Resolve resolves template through the resolver's process-wide session.
// Prefer a per-request Session when requests are unrelated.
func (r *Resolver) Resolve(template, module string) (string, error) {
	return r.global.Resolve(template, module)
}

// LastModule returns the process-wide session's last resolved module.
func (r *Resolver) LastModule() string {
	return r.global.LastModule()
}

// Forget evicts discovery cache entries pointing at path and returns how many
// were removed. Explicit registrations are kept.
func (r *Resolver) Forget(path string) int {
	target := filepath.Clean(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for name := range r.discovered {
		if filepath.Clean(r.templates[name]) != target {
			continue
		}
		delete(r.templates, name)
		delete(r.discovered, name)
		removed++
	}
	if removed > 0 {
		r.logger.Debug().Str("file", target).Int("entries", removed).Msg("evicted discovered templates")
	}
	return removed
}

func (r *Resolver) resolve(template, module string, last *string) (string, error) {
	if module != "" {
		module = r.normalizer.Normalize(module)
	}
	name := template
	if pos := strings.Index(name, nameSeparator); pos >= 0 {
		if module == "" {
			module = name[:pos]
		}
		name = name[pos+len(nameSeparator):]
	}
	name = strings.TrimLeft(name, "/")

	if module != "" {
		file, source, err := r.resolveModule(name, module)
		if err != nil {
			return "", r.fail(err)
		}
		if file == "" {
			return "", r.fail(&TemplateNotFoundError{Template: name, Module: module})
		}
		*last = module
		r.observer.Resolved(source)
		return file, nil
	}

	r.mu.RLock()
	path, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		file := normalizePath(path)
		if !fileExists(file) {
			return "", r.fail(&BrokenRegistrationError{Template: name, Path: file})
		}
		r.observer.Resolved(SourceTable)
		return file, nil
	}

	if *last != "" {
		file, _, err := r.resolveModule(name, *last)
		if err != nil {
			return "", r.fail(err)
		}
		if file != "" {
			r.logger.Debug().Str("template", name).Str("module", *last).Msg("resolved through last module")
			r.observer.Resolved(SourceLastModule)
			return file, nil
		}
	}

	return "", r.fail(&TemplateNotFoundError{Template: name})
}

// resolveModule looks name up under module: first the qualified table entry,
// then the module root. An empty file with a nil error means not found.
func (r *Resolver) resolveModule(name, module string) (string, Source, error) {
	full := module + nameSeparator + name

	r.mu.RLock()
	path, ok := r.templates[full]
	r.mu.RUnlock()
	if ok {
		file := normalizePath(path)
		if !fileExists(file) {
			return "", "", &BrokenRegistrationError{Template: name, Path: file}
		}
		return file, SourceTable, nil
	}

	file := r.findFile(module, name)
	if file == "" {
		return "", "", nil
	}
	return file, SourceDiscovery, nil
}

func (r *Resolver) findFile(module, name string) string {
	r.mu.RLock()
	root, ok := r.modules[module]
	r.mu.RUnlock()
	if !ok || name == "" {
		return ""
	}

	candidate := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, candidate) {
		return ""
	}
	dir, base := filepath.Split(candidate)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	prefix := base + "."
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		matches = append(matches, entry.Name())
	}
	if len(matches) == 0 {
		return ""
	}
	r.rank(matches)
	file := filepath.Join(dir, matches[0])

	full := module + nameSeparator + name
	r.mu.Lock()
	r.templates[full] = file
	r.discovered[full] = struct{}{}
	r.mu.Unlock()

	r.logger.Debug().Str("template", full).Str("file", file).Int("candidates", len(matches)).Msg("template discovered")
	return file
}

// rank orders file names by extension precedence, then lexically.
func (r *Resolver) rank(names []string) {
	if len(r.precedence) == 0 {
		sort.Strings(names)
		return
	}
	weight := func(name string) int {
		if w, ok := r.precedence[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))]; ok {
			return w
		}
		return len(r.precedence)
	}
	sort.SliceStable(names, func(i, j int) bool {
		wi, wj := weight(names[i]), weight(names[j])
		if wi != wj {
			return wi < wj
		}
		return names[i] < names[j]
	})
}

func (r *Resolver) fail(err error) error {
	r.observer.Failed(err)
	return err
}

func normalizePath(path string) string {
	normalized := filepath.FromSlash(strings.ReplaceAll(path, `\`, "/"))
	return strings.TrimRight(normalized, string(os.PathSeparator))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
