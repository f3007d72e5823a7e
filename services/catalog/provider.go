package catalog

import (
	"context"
	"errors"

	"cineseek/models"
)

var (
	// ErrContentUnavailable means the id was syntactically valid but the
	// catalog no longer resolves it (removed or never existed). Callers show
	// a "no longer available" message, distinct from a malformed token.
	ErrContentUnavailable = errors.New("content unavailable")
)

// Provider is a single external catalog service. Implementations normalize
// their own response shapes into models types; callers never see provider
// wire formats.
type Provider interface {
	Name() string

	// SearchByTitle returns results in the provider's own relevance order.
	// kind and year are hints; the aggregator re-applies them as a post-filter.
	SearchByTitle(ctx context.Context, query string, kind models.MediaKind, year int) ([]models.SearchResult, error)

	GetDetail(ctx context.Context, id string, kind models.MediaKind) (*models.TitleDetail, error)

	// ListSeasons returns season numbers for a series id, ascending.
	ListSeasons(ctx context.Context, id string) ([]int, error)

	// ListEpisodes returns episode numbers for one season, ascending.
	ListEpisodes(ctx context.Context, id string, season int) ([]int, error)
}

// Registry maps provider names to providers, preserving registration order
// for deterministic aggregation.
type Registry struct {
	order     []string
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		if p == nil {
			continue
		}
		if _, dup := r.providers[p.Name()]; dup {
			continue
		}
		r.order = append(r.order, p.Name())
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the named provider, or nil if not registered.
func (r *Registry) Get(name string) Provider {
	return r.providers[name]
}

// All returns providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}
