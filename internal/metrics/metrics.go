package metrics

import (
	"log/slog"
	"sync"
	"time"
)

// Metrics holds the counters of a single run.
type Metrics struct {
	mu sync.RWMutex

	// Sources
	SourcesOK      int
	SourcesEmpty   int
	SourcesFailed  int
	FeedArticles   int
	SearchArticles int

	// Curation
	DuplicatesFiltered int
	ArticlesKept       int
	FeedImages         int
	PageFetches        int
	EnrichedImages     int
	Posts              int
	Threads            int

	// Delivery
	DigestChars int
	OutputPath  string
	EmailsSent  int

	// Status
	StartedAt time.Time
	Duration  time.Duration
	LastError string
}

func New(now time.Time) *Metrics {
	return &Metrics{StartedAt: now}
}

func (m *Metrics) RecordSources(ok, empty, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesOK, m.SourcesEmpty, m.SourcesFailed = ok, empty, failed
}

func (m *Metrics) RecordFetched(feed, search int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedArticles, m.SearchArticles = feed, search
}

func (m *Metrics) RecordDeduplicated(before, after int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered = before - after
	m.ArticlesKept = after
}

func (m *Metrics) RecordImages(fromFeed, pageFetches, enriched int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedImages, m.PageFetches, m.EnrichedImages = fromFeed, pageFetches, enriched
}

func (m *Metrics) RecordDiscourse(posts, threads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts, m.Threads = posts, threads
}

func (m *Metrics) RecordDigest(chars int, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DigestChars, m.OutputPath = chars, path
}

func (m *Metrics) IncrementEmailsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmailsSent++
}

func (m *Metrics) SetError(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err.Error()
}

// Finish records the run duration.
func (m *Metrics) Finish(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = now.Sub(m.StartedAt)
}

func (m *Metrics) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]any{
		"sources_ok":          m.SourcesOK,
		"sources_empty":       m.SourcesEmpty,
		"sources_failed":      m.SourcesFailed,
		"feed_articles":       m.FeedArticles,
		"search_articles":     m.SearchArticles,
		"duplicates_filtered": m.DuplicatesFiltered,
		"articles_kept":       m.ArticlesKept,
		"feed_images":         m.FeedImages,
		"page_fetches":        m.PageFetches,
		"enriched_images":     m.EnrichedImages,
		"posts":               m.Posts,
		"threads":             m.Threads,
		"digest_chars":        m.DigestChars,
		"output_path":         m.OutputPath,
		"emails_sent":         m.EmailsSent,
		"duration_ms":         m.Duration.Milliseconds(),
		"last_error":          m.LastError,
	}
}

// Log writes the stats as one structured line.
func (m *Metrics) Log(logger *slog.Logger) {
	stats := m.Stats()
	args := make([]any, 0, len(stats)*2)
	for _, k := range keys {
		args = append(args, k, stats[k])
	}
	logger.Info("run summary", args...)
}

// keys fixes the order of the summary line.
var keys = []string{
	"sources_ok", "sources_empty", "sources_failed", "feed_articles", "search_articles",
	"duplicates_filtered", "articles_kept", "feed_images", "page_fetches", "enriched_images",
	"posts", "threads", "digest_chars", "output_path", "emails_sent", "duration_ms", "last_error",
}
