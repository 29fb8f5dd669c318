package rss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/rggoldberg/Ai-News-recap/internal/images"
	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

const userAgent = "Mozilla/5.0 (compatible; AINewsRecap/1.0; +https://github.com/rggoldberg/Ai-News-recap)"

// Kind classifies why a fetch failed.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindTransport  Kind = "transport"
	KindHTTPStatus Kind = "http_status"
	KindParse      Kind = "parse"
)

// FetchError describes a source that could not be read.
type FetchError struct {
	URL    string
	Kind   Kind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: %s %d", e.URL, e.Kind, e.Status)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" when err is not a FetchError.
func KindOf(err error) Kind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Result is the outcome of reading one source. Err == nil with no articles
// means the source answered but had nothing in the window.
type Result struct {
	Source   Source
	Articles []news.Article
	Err      error
}

// Fetcher downloads and parses syndication feeds.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
}

// NewFetcher builds a fetcher. A nil client means http.DefaultClient; per-call
// deadlines come from the timeout passed to FetchFeed.
func NewFetcher(client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, logger: logger}
}

// FetchFeed makes one attempt at url bounded by timeout.
func (f *Fetcher) FetchFeed(ctx context.Context, url string, timeout time.Duration) (*gofeed.Feed, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: classify(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Kind: KindHTTPStatus, Status: resp.StatusCode}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		kind := KindParse
		if ctx.Err() != nil {
			kind = KindTimeout
		}
		return nil, &FetchError{URL: url, Kind: kind, Err: err}
	}
	return feed, nil
}

func classify(ctx context.Context, err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindTransport
}

// Fetch reads src and converts entries published at or after cutoff.
func (f *Fetcher) Fetch(ctx context.Context, src Source, cutoff time.Time, timeout time.Duration) Result {
	feed, err := f.FetchFeed(ctx, src.URL, timeout)
	if err != nil {
		return Result{Source: src, Err: err}
	}

	articles := make([]news.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		published := news.FirstTime(item.PublishedParsed, item.UpdatedParsed)
		if !news.Within(published, cutoff) {
			continue
		}
		articles = append(articles, ToArticle(item, src, published))
	}
	return Result{Source: src, Articles: articles}
}

// ToArticle normalizes one feed entry.
func ToArticle(item *gofeed.Item, src Source, published *time.Time) news.Article {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}
	link := strings.TrimSpace(item.Link)

	return news.Article{
		Title:     strings.TrimSpace(news.StripHTML(item.Title)),
		Summary:   news.CleanSummary(summary),
		URL:       link,
		Source:    src.Name,
		Category:  src.Category,
		Published: published,
		ImageURL:  images.Validate(images.FromItem(item)),
		Domain:    news.Domain(link),
	}
}
