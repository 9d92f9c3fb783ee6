package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/killallgit/songscraper/pkg/config"
)

// Stats summarises a pipeline run
type Stats struct {
	Pages   int
	Emitted int
	Dropped int
	Reason  StopReason
}

// StopReason records why pagination ended
type StopReason string

const (
	StopLimit    StopReason = "limit reached"
	StopMaxPages StopReason = "max pages reached"
	StopNoNext   StopReason = "no next page"
	StopPageLoad StopReason = "results page unavailable"
)

// Option configures a Pipeline
type Option func(*Pipeline)

// WithSleep replaces the pause implementation, mainly for tests
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(p *Pipeline) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithJitter replaces the random part of the between-batch pause
func WithJitter(jitter func(limit time.Duration) time.Duration) Option {
	return func(p *Pipeline) {
		if jitter != nil {
			p.jitter = jitter
		}
	}
}

// WithLogger sets the logger, defaulting to slog.Default
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline walks the results pages of the catalog site, enriches every song
// from its detail page and hands each page batch to a Sink.
type Pipeline struct {
	browser Browser
	sink    Sink
	cfg     config.ScraperConfig
	sleep   func(context.Context, time.Duration) error
	jitter  func(time.Duration) time.Duration
	logger  *slog.Logger
}

// NewPipeline creates a pipeline using an already launched browser
func NewPipeline(browser Browser, sink Sink, cfg config.ScraperConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		browser: browser,
		sink:    sink,
		cfg:     cfg,
		sleep:   Sleep,
		jitter:  randomJitter,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scrapes until the song limit, the page limit or the last page.
// Only browser and sink failures are returned; page and song level problems
// are logged and skipped.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	listing, err := p.browser.NewPage()
	if err != nil {
		return stats, fmt.Errorf("%w: opening results page: %v", ErrBrowserUnavailable, err)
	}
	defer listing.Close()

	pool, err := newPagePool(p.browser, p.poolSize())
	if err != nil {
		return stats, err
	}
	defer pool.Close()

	enr := &enricher{pool: pool, cfg: p.cfg, sleep: p.sleep, logger: p.logger}
	sel := p.cfg.Selectors
	pageURL := p.cfg.SearchURL

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		log := p.logger.With("page", stats.Pages+1)
		html, err := p.loadResults(listing, pageURL)
		if err != nil {
			log.Error("results page unavailable, stopping", "url", pageURL, "error", err)
			stats.Reason = StopPageLoad
			return stats, nil
		}
		stats.Pages++

		summaries, dropped, err := ParseSummaries(html, pageURL, sel, p.remaining(stats.Emitted))
		if err != nil {
			log.Error("parsing results failed, stopping", "error", err)
			stats.Reason = StopPageLoad
			return stats, nil
		}
		if dropped > 0 {
			log.Warn("rows without a detail link dropped", "count", dropped)
			stats.Dropped += dropped
		}

		records := enr.enrich(ctx, summaries)
		stats.Dropped += len(summaries) - len(records)
		if len(records) > 0 {
			if err := p.sink.Consume(ctx, records); err != nil {
				return stats, fmt.Errorf("emitting page %d: %w", stats.Pages, err)
			}
			stats.Emitted += len(records)
		}
		log.Info("page scraped", "found", len(summaries), "emitted", len(records), "total", stats.Emitted)

		if p.cfg.Limit > 0 && stats.Emitted >= p.cfg.Limit {
			stats.Reason = StopLimit
			return stats, nil
		}
		if p.cfg.MaxPages > 0 && stats.Pages >= p.cfg.MaxPages {
			stats.Reason = StopMaxPages
			return stats, nil
		}
		next, ok := ParseNextPage(html, pageURL, sel)
		if !ok {
			stats.Reason = StopNoNext
			return stats, nil
		}

		if err := p.pause(ctx, stats.Pages); err != nil {
			return stats, err
		}
		pageURL = next
	}
}

// loadResults runs LoadPage, ScrollToBottom and WaitForResults and returns the page HTML
func (p *Pipeline) loadResults(page Page, pageURL string) (string, error) {
	if err := page.Goto(pageURL, p.cfg.PageTimeout); err != nil {
		return "", fmt.Errorf("loading: %w", err)
	}
	if err := page.ScrollToBottom(); err != nil {
		p.logger.Debug("scrolling failed", "url", pageURL, "error", err)
	}
	if err := page.WaitFor(p.cfg.Selectors.Row, p.cfg.ResultsTimeout); err != nil {
		return "", fmt.Errorf("waiting for results: %w", err)
	}
	return page.Content()
}

// pause applies the cooldown after every CooldownEvery pages and the
// jittered batch pause otherwise
func (p *Pipeline) pause(ctx context.Context, pages int) error {
	if p.cfg.CooldownEvery > 0 && pages%p.cfg.CooldownEvery == 0 {
		p.logger.Info("cooling down", "pages", pages, "duration", p.cfg.CooldownDuration)
		return p.sleep(ctx, p.cfg.CooldownDuration)
	}
	d := p.cfg.BatchPause + p.jitter(p.cfg.BatchJitter)
	p.logger.Debug("pausing between pages", "duration", d)
	return p.sleep(ctx, d)
}

func (p *Pipeline) remaining(emitted int) int {
	if p.cfg.Limit <= 0 {
		return 0
	}
	return p.cfg.Limit - emitted
}

func (p *Pipeline) poolSize() int {
	size := p.cfg.Concurrency
	if size < 1 {
		size = 1
	}
	if p.cfg.Limit > 0 && p.cfg.Limit < size {
		size = p.cfg.Limit
	}
	return size
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
