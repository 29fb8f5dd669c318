package digest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

type fakeGenerator struct {
	system, user string
	reply        string
	err          error
	calls        int
}

func (f *fakeGenerator) Generate(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.reply, f.err
}

func articles(n int) []news.Article {
	out := make([]news.Article, n)
	for i := range out {
		out[i] = news.Article{Title: fmt.Sprintf("Story %d", i), URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	return out
}

func discourse(n int) []news.Discourse {
	out := make([]news.Discourse, n)
	for i := range out {
		out[i] = news.Discourse{Text: fmt.Sprintf("post %d", i)}
	}
	return out
}

func TestLimit(t *testing.T) {
	in := Input{Articles: articles(75), Posts: discourse(50), Threads: discourse(30)}
	got := Limit(in)
	assert.Len(t, got.Articles, MaxArticles)
	assert.Len(t, got.Posts, MaxPosts)
	assert.Len(t, got.Threads, MaxThreads)
	assert.Equal(t, "Story 0", got.Articles[0].Title)
	assert.Equal(t, "Story 59", got.Articles[59].Title)

	small := Limit(Input{Articles: articles(2)})
	assert.Len(t, small.Articles, 2)
	assert.Empty(t, small.Posts)
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"```html\n<p>hi</p>\n```":       "<p>hi</p>",
		"```HTML\n<p>hi</p>\n```  \n":   "<p>hi</p>",
		"```\n<p>hi</p>\n```":           "<p>hi</p>",
		"<p>a\u2014b\u2013c\u2012d</p>": "<p>a--b-c-d</p>",
		"<p>x\u2015y</p>":               "<p>x--y</p>",
		"  <p>plain</p>  ":              "<p>plain</p>",
		"":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), "input %q", in)
	}
}

func TestDateRange(t *testing.T) {
	now := time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "January 02 - January 09, 2026", DateRange(now, 7*24*time.Hour))
}

func TestUserPrompt(t *testing.T) {
	now := time.Date(2026, 1, 9, 8, 0, 0, 0, time.UTC)
	in := Input{
		Articles: []news.Article{{Title: "GPT-5 Launches", URL: "https://example.com/gpt5", ImageURL: "https://img.example/a.png"}},
		Threads:  []news.Discourse{{Source: "HN", Title: "Thread", Text: "hot take"}},
	}
	p, err := UserPrompt(in, now, 7*24*time.Hour)
	require.NoError(t, err)

	assert.Contains(t, p, "Here are 1 AI news articles from this week (January 02 - January 09, 2026).")
	assert.Contains(t, p, `"title": "GPT-5 Launches"`)
	assert.Contains(t, p, `"image_url": "https://img.example/a.png"`)
	assert.Contains(t, p, `"published": null`)
	assert.Contains(t, p, "(0 posts, 1 Reddit/HN threads)")
	assert.Contains(t, p, "POSTS:\n[]")
	assert.Contains(t, p, `"source": "HN"`)
}

func TestService_Generate(t *testing.T) {
	gen := &fakeGenerator{reply: "```html\n<html>week \u2014 recap</html>\n```"}
	svc := NewService(gen, "", 7*24*time.Hour, nil)

	out, err := svc.Generate(context.Background(), Input{Articles: articles(100)}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "<html>week -- recap</html>", out)
	assert.Equal(t, DefaultSystemPrompt, gen.system)
	assert.Contains(t, gen.user, "Here are 60 AI news articles")
	assert.NotContains(t, gen.user, "Story 60")
}

func TestService_GenerateErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	gen := &fakeGenerator{err: boom}
	_, err := NewService(gen, "custom", time.Hour, nil).Generate(context.Background(), Input{Articles: articles(1)}, time.Now())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, gen.calls, "no retry")
	assert.Equal(t, "custom", gen.system)

	empty := &fakeGenerator{reply: "```html\n```"}
	_, err = NewService(empty, "", time.Hour, nil).Generate(context.Background(), Input{Articles: articles(1)}, time.Now())
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadSystemPrompt(t *testing.T) {
	p, err := LoadSystemPrompt("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSystemPrompt, p)
	assert.NotContains(t, p, "\u2014")

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Be brief.\n"), 0o644))
	p, err = LoadSystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.", p)

	blank := filepath.Join(t.TempDir(), "blank.txt")
	require.NoError(t, os.WriteFile(blank, []byte("\n"), 0o644))
	_, err = LoadSystemPrompt(blank)
	assert.Error(t, err)

	_, err = LoadSystemPrompt(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "read system prompt"))
}
