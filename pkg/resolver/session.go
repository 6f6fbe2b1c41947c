package resolver

import "sync"

// Session carries the request-scoped part of resolution: the module of the
// last successful module-qualified lookup, which unqualified names fall back
// to. Sessions share the parent Resolver's registrations and cache.
type Session struct {
	r *Resolver

	mu         sync.Mutex
	lastModule string
}

// Session starts a new resolution session with no last module.
func (r *Resolver) Session() *Session {
	return &Session{r: r}
}

// Resolve returns the file for template, optionally scoped to module (empty
// for none).
//
// A module, explicit or embedded as "module::name", restricts the lookup to
// that module: its table entry, then its template root. Without one, the
// short name is looked up in the table and then under the session's last
// module. A table entry whose file is missing fails with
// BrokenRegistrationError; anything else unresolved fails with
// TemplateNotFoundError.
func (s *Session) Resolve(template, module string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.r.resolve(template, module, &s.lastModule)
}

// LastModule returns the module key of the last successful module-qualified
// resolution, or "".
func (s *Session) LastModule() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastModule
}
