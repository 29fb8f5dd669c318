package rss

import (
	"context"
	"log/slog"
	"time"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

// CollectStats counts how the feed list behaved during one pass.
type CollectStats struct {
	OK     int
	Empty  int
	Failed int
}

// Collector reads every registry feed in list order, one at a time.
type Collector struct {
	fetcher  *Fetcher
	feeds    []Source
	lookback time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewCollector(fetcher *Fetcher, feeds []Source, lookback, timeout time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{fetcher: fetcher, feeds: feeds, lookback: lookback, timeout: timeout, logger: logger}
}

// Collect returns the articles of all feeds inside the lookback window ending
// at now. Broken sources are logged and skipped.
func (c *Collector) Collect(ctx context.Context, now time.Time) ([]news.Article, CollectStats) {
	cutoff := now.Add(-c.lookback)

	var (
		all   []news.Article
		stats CollectStats
	)
	for _, src := range c.feeds {
		if ctx.Err() != nil {
			break
		}
		res := c.fetcher.Fetch(ctx, src, cutoff, c.timeout)
		switch {
		case res.Err != nil:
			stats.Failed++
			c.logger.Warn("feed skipped", "source", src.Name, "kind", KindOf(res.Err), "error", res.Err)
		case len(res.Articles) == 0:
			stats.Empty++
			c.logger.Debug("feed has nothing in window", "source", src.Name)
		default:
			stats.OK++
			c.logger.Debug("feed loaded", "source", src.Name, "articles", len(res.Articles))
		}
		all = append(all, res.Articles...)
	}

	c.logger.Info("processed feeds", "ok", stats.OK, "empty", stats.Empty, "failed", stats.Failed, "total", len(c.feeds))
	return all, stats
}
