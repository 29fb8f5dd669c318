package images

import (
	"context"
	"log/slog"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
	"github.com/rggoldberg/Ai-News-recap/internal/ratelimit"
)

// PageLookup resolves a page's preview image.
type PageLookup interface {
	PageImage(ctx context.Context, pageURL string) (string, error)
}

// EnrichStats reports what one enrichment pass did.
type EnrichStats struct {
	Candidates int
	Attempts   int
	Enriched   int
}

// Enricher fills missing article images from linked pages.
type Enricher struct {
	pages  PageLookup
	budget *ratelimit.Budget
	logger *slog.Logger
}

// NewEnricher caps page lookups with budget.
func NewEnricher(pages PageLookup, budget *ratelimit.Budget, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{pages: pages, budget: budget, logger: logger}
}

// Enrich returns a copy of articles where imageless entries got a page image,
// as long as the fetch budget lasts. Articles past the budget keep no image.
func (e *Enricher) Enrich(ctx context.Context, articles []news.Article) ([]news.Article, EnrichStats) {
	out := make([]news.Article, len(articles))
	copy(out, articles)

	var (
		stats     EnrichStats
		exhausted = e.budget == nil || e.pages == nil
	)
	for i := range out {
		if out[i].ImageURL != "" || out[i].URL == "" {
			continue
		}
		stats.Candidates++

		if exhausted {
			continue
		}
		if err := e.budget.Take(ctx); err != nil {
			e.logger.Debug("image enrichment stopped", "reason", err)
			exhausted = true
			continue
		}
		stats.Attempts++

		img, err := e.pages.PageImage(ctx, out[i].URL)
		if err != nil {
			e.logger.Debug("page image lookup failed", "url", out[i].URL, "error", err)
			continue
		}
		if img = Validate(img); img != "" {
			out[i].ImageURL = img
			stats.Enriched++
		}
	}

	return out, stats
}
