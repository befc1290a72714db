package search

import (
	"context"
	"fmt"

	"github.com/workfree/search-briefing/internal/models"
)

// DemoProvider returns synthetic results without any network call. Useful
// for smoke-testing the register -> fire -> notify path in dev deployments.
type DemoProvider struct {
	// Hits caps the number of synthetic results (default 3).
	Hits int
}

func (p *DemoProvider) Name() string { return "demo" }

func (p *DemoProvider) Search(_ context.Context, keyword string, limit int) ([]models.SearchResult, error) {
	hits := p.Hits
	if hits <= 0 {
		hits = 3
	}
	if limit < hits {
		hits = limit
	}
	results := make([]models.SearchResult, 0, hits)
	for i := 1; i <= hits; i++ {
		results = append(results, models.SearchResult{
			Rank:        i,
			Provider:    p.Name(),
			Keyword:     keyword,
			Title:       fmt.Sprintf("Demo result %d for %s", i, keyword),
			URL:         fmt.Sprintf("https://example.com/%s/%d", keyword, i),
			Description: fmt.Sprintf("Synthetic result %d for keyword %q.", i, keyword),
		})
	}
	return results, nil
}
