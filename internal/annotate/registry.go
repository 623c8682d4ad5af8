// Package annotate performs reversible word substitutions on a live document
// and keeps the registry that is the single source of truth for which words
// are currently substituted.
package annotate

import (
	"sync"

	"golang.org/x/net/html"

	"github.com/metcalfc/simplyread/internal/prompt"
)

// Entry is one live substitution.
type Entry struct {
	// Original is the exact trimmed selection text. It is the registry key.
	Original string
	// Substituted is the accepted replacement and never equals Original.
	Substituted string
	Level       prompt.Level
	// Anchor is the element currently displaying Substituted. Only the
	// annotator may rewrite it while the entry is live.
	Anchor *html.Node
	// Lead and Trail are the whitespace absorbed from either side of the
	// original word, restored verbatim on revert.
	Lead, Trail string
}

// Registry maps original words to their live substitution. At most one entry
// exists per original word.
type Registry struct {
	mu         sync.RWMutex
	byOriginal map[string]*Entry
	byAnchor   map[*html.Node]*Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byOriginal: make(map[string]*Entry),
		byAnchor:   make(map[*html.Node]*Entry),
	}
}

// TryActivate records e. It fails without mutation when e.Original already
// has a live entry, when the substitution is not a change, or when e has no
// anchor.
func (r *Registry) TryActivate(e Entry) bool {
	if e.Original == "" || e.Substituted == "" || e.Substituted == e.Original || e.Anchor == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byOriginal[e.Original]; exists {
		return false
	}
	if _, exists := r.byAnchor[e.Anchor]; exists {
		return false
	}
	entry := e
	r.byOriginal[e.Original] = &entry
	r.byAnchor[e.Anchor] = &entry
	return true
}

// Revert removes and returns the entry owning anchor. An unknown anchor is a
// no-op and reports false.
func (r *Registry) Revert(anchor *html.Node) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byAnchor[anchor]
	if !ok {
		return Entry{}, false
	}
	delete(r.byAnchor, anchor)
	delete(r.byOriginal, e.Original)
	return *e, true
}

// Active reports whether original is currently substituted.
func (r *Registry) Active(original string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byOriginal[original]
	return ok
}

// Lookup returns the entry owning anchor.
func (r *Registry) Lookup(anchor *html.Node) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byAnchor[anchor]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byOriginal)
}

// Entries returns a copy of the live entries in no particular order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.byOriginal))
	for _, e := range r.byOriginal {
		out = append(out, *e)
	}
	return out
}
