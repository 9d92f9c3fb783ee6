package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/pkg/config"
	"golang.org/x/sync/errgroup"
)

// pagePool hands out private pages so response interception is never shared
type pagePool struct {
	pages chan Page
	all   []Page
}

func newPagePool(browser Browser, size int) (*pagePool, error) {
	if size < 1 {
		size = 1
	}
	pool := &pagePool{pages: make(chan Page, size)}
	for i := 0; i < size; i++ {
		page, err := browser.NewPage()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("%w: opening detail page: %v", ErrBrowserUnavailable, err)
		}
		pool.all = append(pool.all, page)
		pool.pages <- page
	}
	return pool, nil
}

func (p *pagePool) size() int {
	return len(p.all)
}

func (p *pagePool) Close() error {
	var errs []error
	for _, page := range p.all {
		errs = append(errs, page.Close())
	}
	return errors.Join(errs...)
}

type enricher struct {
	pool   *pagePool
	cfg    config.ScraperConfig
	sleep  func(context.Context, time.Duration) error
	logger *slog.Logger
}

// enrich visits every summary's detail page. Songs whose detail page cannot
// be loaded are dropped; the rest keep summary order.
func (e *enricher) enrich(ctx context.Context, summaries []Summary) []models.ExtractionRecord {
	results := make([]*models.ExtractionRecord, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.pool.size())
	for i, s := range summaries {
		g.Go(func() error {
			page := <-e.pool.pages
			defer func() { e.pool.pages <- page }()

			rec, err := e.visit(gctx, page, s)
			if err != nil {
				e.logger.Warn("dropping song", "title", s.Title, "url", s.DetailURL, "error", err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	records := make([]models.ExtractionRecord, 0, len(summaries))
	for _, rec := range results {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records
}

func (e *enricher) visit(ctx context.Context, page Page, s Summary) (*models.ExtractionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := page.Goto(s.DetailURL, e.cfg.DetailTimeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}

	var taxonomy Taxonomy
	if html, err := page.Content(); err != nil {
		e.logger.Warn("reading detail page failed", "title", s.Title, "error", err)
	} else if taxonomy, err = ParseTaxonomy(html, e.cfg.Selectors); err != nil {
		e.logger.Warn("parsing detail page failed", "title", s.Title, "error", err)
	}

	rec := &models.ExtractionRecord{
		Title:         s.Title,
		Filename:      models.AudioFilename(s.Title),
		Author:        s.Author,
		Duration:      s.Duration,
		DetailURL:     s.DetailURL,
		AudioURL:      e.resolveAudio(ctx, page, s.Title),
		CoverImageURL: s.CoverImageURL,
		Genres:        taxonomy.Genres,
		Moods:         taxonomy.Moods,
		Themes:        taxonomy.Themes,
	}
	if s.CoverImageURL != nil {
		name := models.CoverFilename(s.Title)
		rec.CoverFilename = &name
	}
	return rec, nil
}

// resolveAudio intercepts the audio request fired by the play control and
// falls back to the media element source. nil means no audio was found.
func (e *enricher) resolveAudio(ctx context.Context, page Page, title string) *string {
	sel := e.cfg.Selectors
	audio, err := AwaitResponse(ctx, page, IsAudioURL, e.cfg.AudioTimeout, func() error {
		return page.Click(sel.Play, e.cfg.AudioTimeout)
	})
	if err == nil {
		return &audio
	}
	if ctx.Err() != nil {
		return nil
	}
	e.logger.Debug("audio interception failed, trying media element", "title", title, "error", err)

	if err := e.sleep(ctx, e.cfg.FallbackDelay); err != nil {
		return nil
	}
	src, err := page.MediaSource(sel.Audio)
	if err != nil || src == "" {
		e.logger.Warn("no audio url found", "title", title)
		return nil
	}
	return &src
}
