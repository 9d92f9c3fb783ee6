package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/killallgit/songscraper/internal/models"
	"github.com/killallgit/songscraper/pkg/config"
)

// Summary is a song row scraped from a results page
type Summary struct {
	Title         string
	Author        string
	Duration      string
	DetailURL     string
	CoverImageURL *string
}

// Taxonomy holds the cleaned term names found on a detail page
type Taxonomy struct {
	Genres []string
	Moods  []string
	Themes []string
}

// ParseSummaries extracts up to max rows in document order. Rows without a
// detail link are skipped and counted in dropped. max <= 0 means no bound.
func ParseSummaries(html, pageURL string, sel config.SelectorsConfig, max int) (summaries []Summary, dropped int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing results page: %w", err)
	}
	base, _ := url.Parse(pageURL)

	doc.Find(sel.Row).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if max > 0 && len(summaries) >= max {
			return false
		}

		href, _ := row.Find(sel.DetailLink).First().Attr("href")
		detail := resolve(base, href)
		if detail == "" {
			dropped++
			return true
		}

		s := Summary{
			Title:     textOr(row.Find(sel.Title), models.UnknownTitle),
			Author:    textOr(row.Find(sel.Author), models.UnknownAuthor),
			Duration:  textOr(row.Find(sel.Duration), models.UnknownDuration),
			DetailURL: detail,
		}
		if src, ok := row.Find(sel.Cover).First().Attr("src"); ok {
			if cover := resolve(base, src); cover != "" {
				s.CoverImageURL = &cover
			}
		}
		summaries = append(summaries, s)
		return true
	})
	return summaries, dropped, nil
}

// ParseTaxonomy extracts genre, mood and theme labels from a detail page
func ParseTaxonomy(html string, sel config.SelectorsConfig) (Taxonomy, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Taxonomy{}, fmt.Errorf("parsing detail page: %w", err)
	}
	return Taxonomy{
		Genres: labels(doc, sel.Genre),
		Moods:  labels(doc, sel.Mood),
		Themes: labels(doc, sel.Theme),
	}, nil
}

// ParseNextPage returns the next results page, if an enabled next control exists
func ParseNextPage(html, pageURL string, sel config.SelectorsConfig) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	next := doc.Find(sel.Next).First()
	if next.Length() == 0 {
		return "", false
	}
	if _, disabled := next.Attr("disabled"); disabled {
		return "", false
	}
	if v, _ := next.Attr("aria-disabled"); v == "true" {
		return "", false
	}

	base, _ := url.Parse(pageURL)
	href, _ := next.Attr("href")
	target := resolve(base, href)
	if target == "" || target == pageURL {
		return "", false
	}
	return target, true
}

func labels(doc *goquery.Document, selector string) []string {
	var names []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		names = append(names, s.Text())
	})
	return models.CleanTerms(names)
}

func textOr(s *goquery.Selection, fallback string) string {
	if text := strings.TrimSpace(s.First().Text()); text != "" {
		return text
	}
	return fallback
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
