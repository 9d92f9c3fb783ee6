package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/internal/services/ingest"
	"github.com/killallgit/songscraper/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchURL = "https://example.com/music/search/?order=ec"

// recordingSink keeps every batch it receives
type recordingSink struct {
	mu      sync.Mutex
	batches [][]models.ExtractionRecord
	err     error
}

func (s *recordingSink) Consume(_ context.Context, records []models.ExtractionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, records)
	return s.err
}

func (s *recordingSink) all() []models.ExtractionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ExtractionRecord
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

// recordingSleep records requested pauses without waiting
type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleep) durations() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

func testScraperConfig() config.ScraperConfig {
	return config.ScraperConfig{
		SearchURL:        searchURL,
		Limit:            5,
		MaxPages:         50,
		Concurrency:      3,
		CooldownEvery:    10,
		CooldownDuration: 30 * time.Second,
		BatchPause:       5 * time.Second,
		BatchJitter:      3 * time.Second,
		PageTimeout:      time.Second,
		ResultsTimeout:   time.Second,
		DetailTimeout:    time.Second,
		AudioTimeout:     50 * time.Millisecond,
		FallbackDelay:    time.Millisecond,
		Selectors:        testSelectors(),
	}
}

func newTestPipeline(b *fakeBrowser, sink Sink, cfg config.ScraperConfig, sleeper *recordingSleep) *Pipeline {
	return NewPipeline(b, sink, cfg,
		WithSleep(sleeper.sleep),
		WithJitter(func(time.Duration) time.Duration { return time.Second }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func detailURL(slug string) string {
	return "https://example.com/music/" + slug + "/"
}

// addSong registers a detail page whose play control fires an audio response
func addSong(b *fakeBrowser, slug string, genres ...string) {
	b.html[detailURL(slug)] = detailPage(genres, []string{"Relaxing"}, nil)
	b.responses[detailURL(slug)] = []string{
		"https://cdn.example/js/app.js",
		"https://cdn.example/audio/" + slug + ".mp3?x=1",
	}
}

func TestPipeline_LimitPreservesOrder(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = resultsPage("/music/search/?order=ec&pagi=2",
		row{title: "One", author: "A", duration: "1:00", href: "/music/one/", cover: "https://cdn.example/one.jpg"},
		row{title: "Two", author: "B", duration: "2:00", href: "/music/two/"},
		row{title: "Three", author: "C", duration: "3:00", href: "/music/three/"},
	)
	addSong(b, "one", "Ambient", "Unknown")
	addSong(b, "two")
	addSong(b, "three")

	cfg := testScraperConfig()
	cfg.Limit = 2
	sink := &recordingSink{}
	sleeper := &recordingSleep{}

	stats, err := newTestPipeline(b, sink, cfg, sleeper).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopLimit, stats.Reason)
	assert.Equal(t, 1, stats.Pages)
	assert.Equal(t, 2, stats.Emitted)

	records := sink.all()
	require.Len(t, records, 2)
	assert.Equal(t, "One", records[0].Title)
	assert.Equal(t, "Two", records[1].Title)
	assert.NotContains(t, b.visited(), detailURL("three"))

	one := records[0]
	assert.Equal(t, "A", one.Author)
	assert.Equal(t, "One.mp3", one.Filename)
	assert.Equal(t, []string{"Ambient"}, one.Genres)
	assert.Equal(t, []string{"Relaxing"}, one.Moods)
	require.NotNil(t, one.AudioURL)
	assert.Equal(t, "https://cdn.example/audio/one.mp3?x=1", *one.AudioURL)
	require.NotNil(t, one.CoverFilename)
	assert.Equal(t, "One.jpg", *one.CoverFilename)
	assert.Nil(t, records[1].CoverFilename)

	assert.Zero(t, b.listenerCount())
	assert.Empty(t, sleeper.durations())
}

func TestPipeline_AudioFallbackAndTimeout(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = resultsPage("",
		row{title: "Media", href: "/music/media/"},
		row{title: "Silent", href: "/music/silent/"},
	)
	b.html[detailURL("media")] = detailPage(nil, nil, nil)
	b.media[detailURL("media")] = "https://cdn.example/audio/media.m4a"
	b.html[detailURL("silent")] = detailPage(nil, nil, nil)

	sink := &recordingSink{}
	stats, err := newTestPipeline(b, sink, testScraperConfig(), &recordingSleep{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopNoNext, stats.Reason)

	records := sink.all()
	require.Len(t, records, 2)
	require.NotNil(t, records[0].AudioURL)
	assert.Equal(t, "https://cdn.example/audio/media.m4a", *records[0].AudioURL)
	// Audio capture timing out still emits the record
	assert.Nil(t, records[1].AudioURL)
	assert.Zero(t, b.listenerCount())
}

func TestPipeline_DropsSongsWithoutDetail(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = resultsPage("",
		row{title: "No Link"},
		row{title: "Broken", href: "/music/broken/"},
		row{title: "Good", href: "/music/good/"},
	)
	addSong(b, "good")
	b.html[detailURL("broken")] = detailPage(nil, nil, nil)
	b.failNav[detailURL("broken")] = true

	sink := &recordingSink{}
	stats, err := newTestPipeline(b, sink, testScraperConfig(), &recordingSleep{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Dropped)

	records := sink.all()
	require.Len(t, records, 1)
	assert.Equal(t, "Good", records[0].Title)
	for _, rec := range records {
		assert.NotEmpty(t, rec.DetailURL)
	}
}

func TestPipeline_PaginationAndCooldown(t *testing.T) {
	b := newFakeBrowser()
	const pages = 12
	for i := 1; i <= pages; i++ {
		pageURL := searchURL
		if i > 1 {
			pageURL = fmt.Sprintf("%s&pagi=%d", searchURL, i)
		}
		next := ""
		if i < pages {
			next = fmt.Sprintf("/music/search/?order=ec&pagi=%d", i+1)
		}
		slug := fmt.Sprintf("song-%d", i)
		b.html[pageURL] = resultsPage(next, row{title: slug, href: "/music/" + slug + "/"})
		addSong(b, slug)
	}

	cfg := testScraperConfig()
	cfg.Limit = 0
	sleeper := &recordingSleep{}
	sink := &recordingSink{}

	stats, err := newTestPipeline(b, sink, cfg, sleeper).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopNoNext, stats.Reason)
	assert.Equal(t, pages, stats.Pages)
	assert.Len(t, sink.all(), pages)
	assert.Len(t, sink.batches, pages)

	waits := sleeper.durations()
	require.Len(t, waits, pages-1)
	for i, d := range waits {
		if i+1 == 10 {
			assert.Equal(t, 30*time.Second, d, "cooldown after page 10")
		} else {
			assert.Equal(t, 6*time.Second, d, "batch pause after page %d", i+1)
		}
	}
}

func TestPipeline_MaxPages(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = resultsPage("/music/search/?order=ec&pagi=2", row{title: "One", href: "/music/one/"})
	b.html[searchURL+"&pagi=2"] = resultsPage("/music/search/?order=ec&pagi=3", row{title: "Two", href: "/music/two/"})
	addSong(b, "one")
	addSong(b, "two")

	cfg := testScraperConfig()
	cfg.Limit = 0
	cfg.MaxPages = 2

	stats, err := newTestPipeline(b, &recordingSink{}, cfg, &recordingSleep{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopMaxPages, stats.Reason)
	assert.Equal(t, 2, stats.Pages)
}

func TestPipeline_ResultsPageUnavailable(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = "<html><body>blocked</body></html>"

	stats, err := newTestPipeline(b, &recordingSink{}, testScraperConfig(), &recordingSleep{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopPageLoad, stats.Reason)
	assert.Zero(t, stats.Pages)
}

func TestPipeline_BrowserFailureIsFatal(t *testing.T) {
	b := newFakeBrowser()
	b.newErr = errors.New("chromium crashed")

	_, err := newTestPipeline(b, &recordingSink{}, testScraperConfig(), &recordingSleep{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrBrowserUnavailable)
}

func TestPipeline_SinkFailureStopsRun(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = resultsPage("", row{title: "One", href: "/music/one/"})
	addSong(b, "one")

	sink := &recordingSink{err: errors.New("disk full")}
	_, err := newTestPipeline(b, sink, testScraperConfig(), &recordingSleep{}).Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestPipeline_Cancelled(t *testing.T) {
	b := newFakeBrowser()
	b.html[searchURL] = resultsPage("", row{title: "One", href: "/music/one/"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(b, &recordingSink{}, testScraperConfig(), &recordingSleep{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "songs_metadata.json")
	sink := NewFileSink(path)
	ctx := context.Background()

	require.NoError(t, sink.Consume(ctx, []models.ExtractionRecord{{Title: "One"}}))
	require.NoError(t, sink.Consume(ctx, []models.ExtractionRecord{{Title: "Two"}}))

	records, err := ingest.ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "One", records[0].Title)
	assert.Equal(t, "Two", records[1].Title)
	assert.Len(t, sink.Records(), 2)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
