// Package discourse gathers social posts through public feed bridges and
// threads from community feeds. Both channels are optional signal: any
// failure just means fewer items.
package discourse

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mmcdole/gofeed"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
	"github.com/rggoldberg/Ai-News-recap/internal/rss"
)

const (
	postsPerAccount = 5
	postTextLimit   = 500
	minPostRunes    = 30

	threadsPerFeed  = 8
	threadTextLimit = 400
)

// FeedFetcher is the part of rss.Fetcher this package needs.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, url string, timeout time.Duration) (*gofeed.Feed, error)
}

var _ FeedFetcher = (*rss.Fetcher)(nil)

type Timeouts struct {
	Probe     time.Duration
	Bridge    time.Duration
	Community time.Duration
}

// Client reads the discourse channels described by a registry.
type Client struct {
	fetcher   FeedFetcher
	bridges   []string
	probe     string
	accounts  []rss.Account
	community []rss.Community
	lookback  time.Duration
	timeouts  Timeouts
	logger    *slog.Logger
}

func New(fetcher FeedFetcher, reg *rss.Registry, lookback time.Duration, timeouts Timeouts, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		fetcher:   fetcher,
		bridges:   reg.Bridges,
		probe:     reg.ProbeHandle,
		accounts:  reg.Accounts,
		community: reg.Community,
		lookback:  lookback,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// Probe tries each bridge template with the probe handle and returns the
// first one that serves at least one entry. ok is false when none answer.
func (c *Client) Probe(ctx context.Context) (bridge string, ok bool) {
	for _, tmpl := range c.bridges {
		url := rss.BridgeURL(tmpl, c.probe)
		feed, err := c.fetcher.FetchFeed(ctx, url, c.timeouts.Probe)
		if err != nil {
			c.logger.Debug("bridge probe failed", "bridge", tmpl, "kind", rss.KindOf(err), "error", err)
			continue
		}
		if len(feed.Items) > 0 {
			c.logger.Info("using bridge", "bridge", tmpl)
			return tmpl, true
		}
	}
	c.logger.Info("no working bridge found, skipping social posts", "tried", len(c.bridges))
	return "", false
}

// Posts reads every account through bridge.
func (c *Client) Posts(ctx context.Context, bridge string, now time.Time) []news.Discourse {
	if bridge == "" {
		return nil
	}
	cutoff := now.Add(-c.lookback)

	var posts []news.Discourse
	for _, acct := range c.accounts {
		feed, err := c.fetcher.FetchFeed(ctx, rss.BridgeURL(bridge, acct.Handle), c.timeouts.Bridge)
		if err != nil {
			c.logger.Debug("account skipped", "handle", acct.Handle, "kind", rss.KindOf(err))
			continue
		}
		for _, item := range head(feed.Items, postsPerAccount) {
			published := news.FirstTime(item.PublishedParsed, item.UpdatedParsed)
			if !news.Within(published, cutoff) {
				continue
			}
			text := item.Title
			if strings.TrimSpace(text) == "" {
				text = item.Description
			}
			text = news.Truncate(news.StripHTML(text), postTextLimit)
			if strings.HasPrefix(text, "RT @") || utf8.RuneCountInString(text) < minPostRunes {
				continue
			}
			posts = append(posts, news.Discourse{
				Author:    acct.Name,
				Handle:    "@" + acct.Handle,
				Text:      text,
				URL:       strings.TrimSpace(item.Link),
				Published: published,
			})
		}
	}
	c.logger.Info("fetched social posts", "posts", len(posts), "accounts", len(c.accounts))
	return posts
}

// Threads reads the community feeds.
func (c *Client) Threads(ctx context.Context, now time.Time) []news.Discourse {
	cutoff := now.Add(-c.lookback)

	var threads []news.Discourse
	for _, src := range c.community {
		feed, err := c.fetcher.FetchFeed(ctx, src.URL, c.timeouts.Community)
		if err != nil {
			c.logger.Warn("community feed skipped", "source", src.Name, "kind", rss.KindOf(err), "error", err)
			continue
		}
		for _, item := range head(feed.Items, threadsPerFeed) {
			published := news.FirstTime(item.PublishedParsed, item.UpdatedParsed)
			if !news.Within(published, cutoff) {
				continue
			}
			text := item.Description
			if strings.TrimSpace(text) == "" {
				text = item.Content
			}
			threads = append(threads, news.Discourse{
				Source:    src.Name,
				Title:     strings.TrimSpace(news.StripHTML(item.Title)),
				Text:      news.Truncate(news.StripHTML(text), threadTextLimit),
				URL:       strings.TrimSpace(item.Link),
				Published: published,
			})
		}
	}
	c.logger.Info("fetched community threads", "threads", len(threads), "feeds", len(c.community))
	return threads
}

func head(items []*gofeed.Item, n int) []*gofeed.Item {
	out := make([]*gofeed.Item, 0, n)
	for _, it := range items {
		if len(out) == n {
			break
		}
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
