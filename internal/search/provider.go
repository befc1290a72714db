package search

import (
	"context"
	"fmt"

	"github.com/workfree/search-briefing/internal/models"
)

// Provider is one external search backend. Search returns up to limit
// results ranked 1-based; an empty slice is a normal "no results" outcome,
// not an error. Errors mean the provider itself failed or timed out.
type Provider interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]models.SearchResult, error)
}

// Registry holds providers in declaration order. Briefing reports preserve
// that order when merging result sets.
type Registry struct {
	names  []string
	byName map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.names = append(r.names, p.Name())
		r.byName[p.Name()] = p
	}
	return r
}

// Get returns the named provider or an error for unknown names.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return p, nil
}

// Names returns provider identifiers in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Select filters requested names down to registered providers, preserving
// the requested order.
func (r *Registry) Select(requested []string) []Provider {
	out := make([]Provider, 0, len(requested))
	for _, name := range requested {
		if p, ok := r.byName[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
