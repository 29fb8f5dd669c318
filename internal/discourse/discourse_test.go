package discourse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rggoldberg/Ai-News-recap/internal/rss"
)

type call struct {
	url     string
	timeout time.Duration
}

type fakeFetcher struct {
	feeds map[string]*gofeed.Feed
	calls []call
}

func (f *fakeFetcher) FetchFeed(_ context.Context, url string, timeout time.Duration) (*gofeed.Feed, error) {
	f.calls = append(f.calls, call{url, timeout})
	if feed, ok := f.feeds[url]; ok {
		return feed, nil
	}
	return nil, &rss.FetchError{URL: url, Kind: rss.KindTimeout, Err: errors.New("deadline")}
}

var testTimeouts = Timeouts{Probe: 3 * time.Second, Bridge: 4 * time.Second, Community: 5 * time.Second}

func ts(t time.Time) *time.Time { return &t }

func TestProbe_FirstBridgeWithContentWins(t *testing.T) {
	f := &fakeFetcher{feeds: map[string]*gofeed.Feed{
		"https://b.example/karpathy/rss": {Items: []*gofeed.Item{}},
		"https://c.example/karpathy/rss": {Items: []*gofeed.Item{{Title: "hello"}}},
		"https://d.example/karpathy/rss": {Items: []*gofeed.Item{{Title: "hello"}}},
	}}
	reg := &rss.Registry{
		ProbeHandle: "karpathy",
		Bridges: []string{
			"https://a.example/{handle}/rss",
			"https://b.example/{handle}/rss",
			"https://c.example/{handle}/rss",
			"https://d.example/{handle}/rss",
		},
	}
	c := New(f, reg, 7*24*time.Hour, testTimeouts, nil)

	bridge, ok := c.Probe(context.Background())
	require.True(t, ok)
	assert.Equal(t, "https://c.example/{handle}/rss", bridge)
	require.Len(t, f.calls, 3, "probing stops at the first working bridge")
	for _, cl := range f.calls {
		assert.Equal(t, 3*time.Second, cl.timeout)
	}
}

func TestProbe_NoneWorking(t *testing.T) {
	c := New(&fakeFetcher{}, &rss.Registry{ProbeHandle: "x", Bridges: []string{"https://a.example/{handle}"}}, time.Hour, testTimeouts, nil)
	bridge, ok := c.Probe(context.Background())
	assert.False(t, ok)
	assert.Empty(t, bridge)
	assert.Nil(t, c.Posts(context.Background(), bridge, time.Now()))
}

func TestPosts_FiltersAndMaps(t *testing.T) {
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	long := "Shipping a new open-weights model today, details in the thread"
	items := []*gofeed.Item{
		{Title: long, Link: "https://b.example/sama/status/1", PublishedParsed: ts(now.Add(-time.Hour))},
		{Title: "RT @someone: " + long, Link: "https://b.example/sama/status/2"},
		{Title: "too short", Link: "https://b.example/sama/status/3"},
		{Title: long + " (old)", Link: "https://b.example/sama/status/4", PublishedParsed: ts(now.Add(-30 * 24 * time.Hour))},
		{Description: "<p>" + long + " via description</p>", Link: "https://b.example/sama/status/5"},
		{Title: long + " sixth entry is past the per-account cap"},
	}
	f := &fakeFetcher{feeds: map[string]*gofeed.Feed{
		"https://b.example/sama/rss": {Items: items},
	}}
	reg := &rss.Registry{Accounts: []rss.Account{{Handle: "sama", Name: "Sam"}, {Handle: "gone", Name: "Gone"}}}
	c := New(f, reg, 7*24*time.Hour, testTimeouts, nil)

	posts := c.Posts(context.Background(), "https://b.example/{handle}/rss", now)
	require.Len(t, posts, 2)

	assert.Equal(t, "Sam", posts[0].Author)
	assert.Equal(t, "@sama", posts[0].Handle)
	assert.Equal(t, long, posts[0].Text)
	assert.NotNil(t, posts[0].Published)

	assert.Equal(t, long+" via description", posts[1].Text)
	assert.Nil(t, posts[1].Published)

	for _, cl := range f.calls {
		assert.Equal(t, 4*time.Second, cl.timeout)
	}
}

func TestThreads_CapsAndTruncates(t *testing.T) {
	now := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	var items []*gofeed.Item
	for i := 0; i < 12; i++ {
		items = append(items, &gofeed.Item{
			Title:       "Thread",
			Description: "<div>" + strings.Repeat("talk ", 150) + "</div>",
			Link:        "https://reddit.example/r/x",
		})
	}
	f := &fakeFetcher{feeds: map[string]*gofeed.Feed{"https://reddit.example/.rss": {Items: items}}}
	reg := &rss.Registry{Community: []rss.Community{
		{Name: "Broken", URL: "https://broken.example/.rss"},
		{Name: "Reddit", URL: "https://reddit.example/.rss"},
	}}
	c := New(f, reg, 7*24*time.Hour, testTimeouts, nil)

	threads := c.Threads(context.Background(), now)
	require.Len(t, threads, 8)
	for _, th := range threads {
		assert.Equal(t, "Reddit", th.Source)
		assert.Equal(t, "Thread", th.Title)
		assert.LessOrEqual(t, len(th.Text), 400)
		assert.NotContains(t, th.Text, "<")
	}
	assert.Equal(t, 5*time.Second, f.calls[0].timeout)
}
