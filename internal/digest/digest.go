// Package digest turns the curated articles and discourse of one run into a
// single HTML document using an external text-generation backend.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/rggoldberg/Ai-News-recap/internal/news"
)

// Input caps applied before serialization.
const (
	MaxArticles = 60
	MaxPosts    = 40
	MaxThreads  = 20
)

// ErrEmpty is returned when the backend answers with no text.
var ErrEmpty = errors.New("generation returned no text")

// Generator is a text-generation backend.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Input is everything the digest is written from.
type Input struct {
	Articles []news.Article
	Posts    []news.Discourse
	Threads  []news.Discourse
}

// Limit returns in with every list cut to its cap. Order is preserved.
func Limit(in Input) Input {
	return Input{
		Articles: head(in.Articles, MaxArticles),
		Posts:    head(in.Posts, MaxPosts),
		Threads:  head(in.Threads, MaxThreads),
	}
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

var (
	reFenceOpen  = regexp.MustCompile("(?i)^```(?:html?)?[ \\t]*\\n?")
	reFenceClose = regexp.MustCompile("\\n?```\\s*$")

	dashes = strings.NewReplacer(
		"\u2014", "--", // em dash
		"\u2015", "--", // horizontal bar
		"\u2013", "-", // en dash
		"\u2012", "-", // figure dash
	)
)

// Clean removes a code fence the model may wrap the document in and replaces
// long dashes.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = reFenceOpen.ReplaceAllString(s, "")
	s = reFenceClose.ReplaceAllString(s, "")
	return dashes.Replace(strings.TrimSpace(s))
}

// Service runs one generation per call. There is no retry.
type Service struct {
	gen      Generator
	system   string
	lookback time.Duration
	logger   *slog.Logger
}

func NewService(gen Generator, system string, lookback time.Duration, logger *slog.Logger) *Service {
	if system == "" {
		system = DefaultSystemPrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{gen: gen, system: system, lookback: lookback, logger: logger}
}

// Generate limits in, renders the prompt and returns the cleaned HTML.
func (s *Service) Generate(ctx context.Context, in Input, now time.Time) (string, error) {
	in = Limit(in)

	user, err := UserPrompt(in, now, s.lookback)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}

	s.logger.Debug("requesting digest", "articles", len(in.Articles), "posts", len(in.Posts),
		"threads", len(in.Threads), "prompt_bytes", len(user))

	raw, err := s.gen.Generate(ctx, s.system, user)
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}

	html := Clean(raw)
	if html == "" {
		return "", ErrEmpty
	}
	s.logger.Info("generated digest", "chars", len(html))
	return html, nil
}
