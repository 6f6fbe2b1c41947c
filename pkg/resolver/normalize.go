package resolver

import (
	"strings"
	"sync"
)

// DefaultNormalizer is the process-wide module key cache. Normalisation is a
// pure function of its input so sharing it between resolvers is safe.
var DefaultNormalizer = NewNormalizer()

// Normalizer converts arbitrary module names (Go import paths, backslash
// separated namespaces, CamelCase identifiers) into stable module keys and
// memoises every result for its lifetime.
type Normalizer struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewNormalizer creates an empty normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{cache: make(map[string]string)}
}

// Normalize returns the module key for raw. "FooBarBaz\BatBan" becomes
// "foo-bar-baz/bat-ban".
func (n *Normalizer) Normalize(raw string) string {
	n.mu.RLock()
	key, ok := n.cache[raw]
	n.mu.RUnlock()
	if ok {
		return key
	}

	key = normalizeModule(raw)

	n.mu.Lock()
	n.cache[raw] = key
	n.mu.Unlock()
	return key
}

// Len reports how many distinct raw inputs have been memoised.
func (n *Normalizer) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.cache)
}

func normalizeModule(raw string) string {
	return kebab(strings.Trim(strings.ReplaceAll(raw, `\`, "/"), "/"))
}

// kebab applies the same letter boundary rule to template paths derived from
// controller names.
func kebab(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		b.WriteByte(c)
		if i+1 < len(s) && isASCIILetter(c) && isASCIIUpper(s[i+1]) {
			b.WriteByte('-')
		}
	}
	return strings.ToLower(b.String())
}

// Kebab lower-cases s, inserting a dash between a letter and a following
// upper-case letter. Used for controller-derived template names.
func Kebab(s string) string {
	return kebab(s)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}
