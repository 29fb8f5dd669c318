// Package newsapi queries the NewsAPI "everything" endpoint as a secondary
// article source. It is skipped entirely when no API key is configured.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rggoldberg/Ai-News-recap/internal/images"
	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

const (
	DefaultBaseURL = "https://newsapi.org"
	Category       = "newsapi"
	pageSize       = 10
)

type response struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []payload `json:"articles"`
}

type payload struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
}

// Client searches NewsAPI for a fixed list of queries.
type Client struct {
	apiKey   string
	baseURL  string
	queries  []string
	lookback time.Duration
	timeout  time.Duration
	http     *http.Client
	logger   *slog.Logger
}

type Options struct {
	APIKey   string
	BaseURL  string
	Queries  []string
	Lookback time.Duration
	Timeout  time.Duration
	HTTP     *http.Client
}

func New(opts Options, logger *slog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:   opts.APIKey,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		queries:  opts.Queries,
		lookback: opts.Lookback,
		timeout:  opts.Timeout,
		http:     opts.HTTP,
		logger:   logger,
	}
}

// Enabled reports whether a key is configured.
func (c *Client) Enabled() bool {
	return c != nil && strings.TrimSpace(c.apiKey) != ""
}

// Search runs every query once. Without a key it returns nothing and makes no
// request. A failing query is logged and the remaining ones still run.
func (c *Client) Search(ctx context.Context, now time.Time) ([]news.Article, error) {
	if !c.Enabled() {
		return nil, nil
	}

	cutoff := now.Add(-c.lookback)
	var out []news.Article
	for _, q := range c.queries {
		found, err := c.query(ctx, q, cutoff)
		if err != nil {
			c.logger.Warn("newsapi query failed", "query", q, "error", err)
			continue
		}
		out = append(out, found...)
	}
	c.logger.Info("fetched search articles", "articles", len(out), "queries", len(c.queries))
	return out, nil
}

func (c *Client) query(ctx context.Context, q string, cutoff time.Time) ([]news.Article, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("from", cutoff.Format("2006-01-02"))
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", fmt.Sprint(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || body.Status == "error" {
		return nil, fmt.Errorf("newsapi status %d: %s %s", resp.StatusCode, body.Code, body.Message)
	}

	articles := make([]news.Article, 0, len(body.Articles))
	for _, p := range body.Articles {
		a := toArticle(p)
		if !news.Within(a.Published, cutoff) {
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func toArticle(p payload) news.Article {
	source := strings.TrimSpace(p.Source.Name)
	if source == "" {
		source = "NewsAPI"
	}

	var published *time.Time
	if t, err := time.Parse(time.RFC3339, p.PublishedAt); err == nil {
		published = news.FirstTime(&t)
	}

	link := strings.TrimSpace(p.URL)
	return news.Article{
		Title:     strings.TrimSpace(p.Title),
		Summary:   news.CleanSummary(p.Description),
		URL:       link,
		Source:    source,
		Category:  Category,
		Published: published,
		ImageURL:  images.Validate(p.URLToImage),
		Domain:    news.Domain(link),
	}
}
