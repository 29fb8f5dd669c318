package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rggoldberg/Ai-News-recap/internal/config"
	"github.com/rggoldberg/Ai-News-recap/internal/digest"
	"github.com/rggoldberg/Ai-News-recap/internal/discourse"
	"github.com/rggoldberg/Ai-News-recap/internal/gemini"
	"github.com/rggoldberg/Ai-News-recap/internal/images"
	"github.com/rggoldberg/Ai-News-recap/internal/mailer"
	"github.com/rggoldberg/Ai-News-recap/internal/metrics"
	"github.com/rggoldberg/Ai-News-recap/internal/news"
	"github.com/rggoldberg/Ai-News-recap/internal/newsapi"
	"github.com/rggoldberg/Ai-News-recap/internal/openai"
	"github.com/rggoldberg/Ai-News-recap/internal/ratelimit"
	"github.com/rggoldberg/Ai-News-recap/internal/rss"
	"github.com/rggoldberg/Ai-News-recap/internal/storage"
)

type FeedCollector interface {
	Collect(ctx context.Context, now time.Time) ([]news.Article, rss.CollectStats)
}

type Searcher interface {
	Search(ctx context.Context, now time.Time) ([]news.Article, error)
}

type DiscourseSource interface {
	Probe(ctx context.Context) (string, bool)
	Posts(ctx context.Context, bridge string, now time.Time) []news.Discourse
	Threads(ctx context.Context, now time.Time) []news.Discourse
}

type ImageEnricher interface {
	Enrich(ctx context.Context, articles []news.Article) ([]news.Article, images.EnrichStats)
}

// GeneratorFactory builds the generation backend when it is first needed.
// The returned func releases it.
type GeneratorFactory func(ctx context.Context) (digest.Generator, func(), error)

type Store interface {
	SaveHTML(now time.Time, html string) (string, error)
	SaveAtom(now time.Time, articles []news.Article) (string, error)
}

type Sender interface {
	Send(ctx context.Context, now time.Time, html string) error
}

var (
	_ FeedCollector   = (*rss.Collector)(nil)
	_ Searcher        = (*newsapi.Client)(nil)
	_ DiscourseSource = (*discourse.Client)(nil)
	_ ImageEnricher   = (*images.Enricher)(nil)
	_ Store           = (*storage.Local)(nil)
	_ Sender          = (*mailer.Mailer)(nil)
)

// Deps are the collaborators of one pipeline. Search, Discourse, Images and
// Sender are optional; a nil value skips that stage.
type Deps struct {
	Feeds        FeedCollector
	Search       Searcher
	Discourse    DiscourseSource
	Images       ImageEnricher
	NewGenerator GeneratorFactory
	SystemPrompt string
	Lookback     time.Duration
	Store        Store
	AtomExport   bool
	Sender       Sender
}

// Pipeline runs the stages of one recap in a fixed order.
type Pipeline struct {
	deps    Deps
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewPipeline(deps Deps, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{deps: deps, logger: logger}
}

// Metrics returns the counters of the last Run.
func (p *Pipeline) Metrics() *metrics.Metrics { return p.metrics }

// Options adjust wiring beyond what the environment says.
type Options struct {
	NoEmail bool
}

// New wires the real components from cfg and reg.
func New(cfg *config.Config, reg *rss.Registry, opts Options, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	system, err := digest.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return nil, err
	}

	fetcher := rss.NewFetcher(&http.Client{}, logger)
	deps := Deps{
		Feeds: rss.NewCollector(fetcher, reg.Feeds, cfg.Lookback(), cfg.FeedTimeout, logger),
		Search: newsapi.New(newsapi.Options{
			APIKey:   cfg.NewsAPIKey,
			Queries:  reg.SearchQueries,
			Lookback: cfg.Lookback(),
			Timeout:  cfg.SearchTimeout,
		}, logger),
		Discourse: discourse.New(fetcher, reg, cfg.Lookback(), discourse.Timeouts{
			Probe:     cfg.ProbeTimeout,
			Bridge:    cfg.BridgeTimeout,
			Community: cfg.CommunityTimeout,
		}, logger),
		Images: images.NewEnricher(
			images.NewPageResolver(cfg.PageTimeout),
			ratelimit.NewBudget(cfg.MaxImageFetches, cfg.PageFetchInterval),
			logger,
		),
		NewGenerator: generatorFactory(cfg),
		SystemPrompt: system,
		Lookback:     cfg.Lookback(),
		Store:        storage.NewLocal(cfg.OutputDir),
		AtomExport:   cfg.AtomExport,
	}

	switch {
	case opts.NoEmail:
		logger.Debug("email disabled by flag")
	case cfg.MailEnabled():
		deps.Sender = mailer.New(mailer.Settings{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			To:       cfg.EmailTo,
			Timeout:  cfg.SMTPTimeout,
		}, logger)
	}

	return NewPipeline(deps, logger), nil
}

func generatorFactory(cfg *config.Config) GeneratorFactory {
	return func(ctx context.Context) (digest.Generator, func(), error) {
		if cfg.LLMProvider == config.ProviderOpenAI {
			c, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.GenerationTimeout)
			if err != nil {
				return nil, nil, err
			}
			return c, func() {}, nil
		}
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenerationTimeout)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}
}

// Run executes one recap. Having nothing to summarize is a clean early return;
// generation and delivery failures are returned.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (err error) {
	p.metrics = metrics.New(now)
	defer func() {
		p.metrics.SetError(err)
		p.metrics.Finish(time.Now())
		p.metrics.Log(p.logger)
	}()

	// 1. Collect
	p.logger.Info("[1/6] fetching sources")
	articles, stats := p.deps.Feeds.Collect(ctx, now)
	p.metrics.RecordSources(stats.OK, stats.Empty, stats.Failed)
	feedCount := len(articles)

	var searchCount int
	if p.deps.Search != nil {
		found, err := p.deps.Search.Search(ctx, now)
		if err != nil {
			p.logger.Warn("search skipped", "error", err)
		}
		searchCount = len(found)
		articles = append(articles, found...)
	}
	p.metrics.RecordFetched(feedCount, searchCount)
	p.logger.Info("fetched articles", "feeds", feedCount, "search", searchCount)

	if len(articles) == 0 {
		p.logger.Error("no articles fetched from any source, nothing to recap")
		return nil
	}

	// 2. Deduplicate
	unique := news.Deduplicate(articles)
	p.metrics.RecordDeduplicated(len(articles), len(unique))
	p.logger.Info("[2/6] deduplicated", "before", len(articles), "after", len(unique))

	// 3. Images
	withImages := countImages(unique)
	if p.deps.Images != nil {
		var es images.EnrichStats
		unique, es = p.deps.Images.Enrich(ctx, unique)
		p.metrics.RecordImages(withImages, es.Attempts, es.Enriched)
		p.logger.Info("[3/6] enriched images", "from_feed", withImages, "page_fetches", es.Attempts,
			"enriched", es.Enriched, "without_image", es.Candidates-es.Enriched)
	} else {
		p.metrics.RecordImages(withImages, 0, 0)
		p.logger.Info("[3/6] image enrichment disabled", "from_feed", withImages)
	}

	// 4. Discourse
	var posts, threads []news.Discourse
	if p.deps.Discourse != nil {
		if bridge, ok := p.deps.Discourse.Probe(ctx); ok {
			posts = p.deps.Discourse.Posts(ctx, bridge, now)
		}
		threads = p.deps.Discourse.Threads(ctx, now)
	}
	p.metrics.RecordDiscourse(len(posts), len(threads))
	p.logger.Info("[4/6] gathered discourse", "posts", len(posts), "threads", len(threads))

	// 5. Generate
	p.logger.Info("[5/6] generating digest")
	gen, release, err := p.deps.NewGenerator(ctx)
	if err != nil {
		return fmt.Errorf("set up generator: %w", err)
	}
	defer release()

	html, err := digest.NewService(gen, p.deps.SystemPrompt, p.deps.Lookback, p.logger).
		Generate(ctx, digest.Input{Articles: unique, Posts: posts, Threads: threads}, now)
	if err != nil {
		return err
	}

	// 6. Deliver
	path, err := p.deps.Store.SaveHTML(now, html)
	if err != nil {
		return fmt.Errorf("save digest: %w", err)
	}
	p.metrics.RecordDigest(len(html), path)
	p.logger.Info("[6/6] saved digest", "path", path, "chars", len(html))

	if p.deps.AtomExport {
		if atomPath, err := p.deps.Store.SaveAtom(now, unique); err != nil {
			p.logger.Warn("atom export failed", "error", err)
		} else {
			p.logger.Info("saved atom feed", "path", atomPath)
		}
	}

	if p.deps.Sender == nil {
		p.logger.Info("email delivery skipped: SMTP_USER, SMTP_PASSWORD and EMAIL_TO are not all set")
		return nil
	}
	if err := p.deps.Sender.Send(ctx, now, html); err != nil {
		return fmt.Errorf("deliver digest (saved at %s): %w", path, err)
	}
	p.metrics.IncrementEmailsSent()
	return nil
}

func countImages(articles []news.Article) int {
	n := 0
	for _, a := range articles {
		if a.ImageURL != "" {
			n++
		}
	}
	return n
}
