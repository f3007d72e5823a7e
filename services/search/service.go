package search

import (
	"context"
	"log"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"cineseek/models"
	"cineseek/services/catalog"
)

// Resolver turns a free-text description into a single best-guess title.
type Resolver interface {
	IsConfigured() bool
	SuggestTitle(ctx context.Context, freeText string) (string, error)
}

// Admitter gates paid resolver calls per user.
type Admitter interface {
	TryConsume(userID string) (bool, error)
}

// Result is one aggregated search response. Suggestion is set only when the
// resolver ran; QuotaExhausted is set only when the resolver was needed but
// the user's daily allowance was spent.
type Result struct {
	Items          []models.SearchResult
	Suggestion     string
	QuotaExhausted bool
}

// Service fans a query out to every registered catalog provider and merges
// the hits. When every provider comes back empty it falls back to the AI
// resolver, charging the user's daily quota.
type Service struct {
	registry *catalog.Registry
	resolver Resolver
	quota    Admitter
	limit    int
}

func NewService(registry *catalog.Registry, resolver Resolver, quota Admitter, limit int) *Service {
	if limit <= 0 {
		limit = 8
	}
	return &Service{
		registry: registry,
		resolver: resolver,
		quota:    quota,
		limit:    limit,
	}
}

// Search queries all providers concurrently. Provider failures are logged and
// treated as empty: one slow or broken catalog never blanks the others.
func (s *Service) Search(ctx context.Context, userID, query string, kind models.MediaKind, year int) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{}, nil
	}

	items := s.fanOut(ctx, query, kind, year)
	if len(items) > 0 {
		return &Result{Items: items}, nil
	}

	return s.resolveFallback(ctx, userID, query, kind, year)
}

// Identify goes straight to the AI resolver for a free-text description,
// then searches the catalogs for the suggested title. Used by the explicit
// "describe it" command; quota applies the same way as the fallback.
func (s *Service) Identify(ctx context.Context, userID, freeText string) (*Result, error) {
	return s.resolveFallback(ctx, userID, freeText, "", 0)
}

func (s *Service) resolveFallback(ctx context.Context, userID, freeText string, kind models.MediaKind, year int) (*Result, error) {
	if s.resolver == nil || !s.resolver.IsConfigured() {
		return &Result{}, nil
	}

	ok, err := s.quota.TryConsume(userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{QuotaExhausted: true}, nil
	}

	suggestion, err := s.resolver.SuggestTitle(ctx, freeText)
	if err != nil {
		log.Printf("[search] resolver failed for %q: %v", freeText, err)
		return &Result{}, nil
	}

	res := &Result{Suggestion: suggestion}
	if !strings.EqualFold(suggestion, freeText) {
		res.Items = s.fanOut(ctx, suggestion, kind, year)
	}
	return res, nil
}

// fanOut runs one SearchByTitle per provider in parallel. Per-provider slots
// keep registration order stable regardless of which provider answers first.
func (s *Service) fanOut(ctx context.Context, query string, kind models.MediaKind, year int) []models.SearchResult {
	providers := s.registry.All()
	slots := make([][]models.SearchResult, len(providers))

	p := pool.New().WithContext(ctx)
	for i, prov := range providers {
		i, prov := i, prov
		p.Go(func(ctx context.Context) error {
			hits, err := prov.SearchByTitle(ctx, query, kind, year)
			if err != nil {
				log.Printf("[search] provider %s failed for %q: %v", prov.Name(), query, err)
				return nil
			}
			slots[i] = hits
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		log.Printf("[search] fan-out interrupted: %v", err)
	}

	var merged []models.SearchResult
	seen := make(map[string]struct{})
	for _, hits := range slots {
		for _, hit := range hits {
			if kind.Valid() && hit.Kind != kind {
				continue
			}
			if year > 0 && hit.Year != 0 && hit.Year != year {
				continue
			}
			key := hit.Provider + "/" + hit.ID
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, hit)
			if len(merged) >= s.limit {
				return merged
			}
		}
	}
	return merged
}
