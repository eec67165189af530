// Package registry maps full identifiers to the short names shown to the
// user, and back.
package registry

import (
	"strings"
	"sync"

	"github.com/wbrown/janus-ontology/ontology"
)

// ShortName returns the display name of an identifier: the part after the
// last '/', then after the last '#'.
func ShortName(id ontology.IRI) string {
	s := string(id)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// Registry is a bidirectional short name index. When two identifiers share
// a short name the most recently registered one wins; every identifier ever
// registered under a name stays listed as an alias.
type Registry struct {
	kind string

	mu      sync.RWMutex
	current map[string]ontology.IRI
	aliases map[string][]ontology.IRI
	known   map[ontology.IRI]bool
	order   []ontology.IRI
}

// New creates an empty registry. kind names the entries in lookup errors
// ("class", "property", "instance").
func New(kind string) *Registry {
	r := &Registry{kind: kind}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.current = make(map[string]ontology.IRI)
	r.aliases = make(map[string][]ontology.IRI)
	r.known = make(map[ontology.IRI]bool)
	r.order = nil
}

// Kind returns the entry kind
func (r *Registry) Kind() string { return r.kind }

// Register records id under its short name and returns the name
func (r *Registry) Register(id ontology.IRI) string {
	name := ShortName(id)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current[name] = id
	if !r.known[id] {
		r.known[id] = true
		r.order = append(r.order, id)
		r.aliases[name] = append(r.aliases[name], id)
	}
	return name
}

// Resolve returns the identifier currently registered under name
func (r *Registry) Resolve(name string) (ontology.IRI, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.current[name]
	if !ok {
		return "", &ontology.LookupError{Kind: r.kind, Name: name}
	}
	return id, nil
}

// Aliases lists every identifier registered under name, in registration order
func (r *Registry) Aliases(name string) []ontology.IRI {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ontology.IRI(nil), r.aliases[name]...)
}

// Entries lists registered identifiers in discovery order
func (r *Registry) Entries() []ontology.IRI {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ontology.IRI(nil), r.order...)
}

// Names lists the short names of all entries in discovery order. A name
// shared by several identifiers is listed once per identifier.
func (r *Registry) Names() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, id := range entries {
		out[i] = ShortName(id)
	}
	return out
}

// Contains reports whether id was ever registered
func (r *Registry) Contains(id ontology.IRI) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known[id]
}

// Len returns the number of distinct identifiers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Reset forgets every entry
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}
