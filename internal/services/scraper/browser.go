package scraper

import "time"

// Browser opens pages in a shared browser session
type Browser interface {
	NewPage() (Page, error)
	Close() error
}

// Page is a single tab. A page is never used by two goroutines at once.
type Page interface {
	Goto(url string, timeout time.Duration) error
	ScrollToBottom() error
	// WaitFor blocks until the first element matching selector is visible
	WaitFor(selector string, timeout time.Duration) error
	// Content returns the rendered document HTML
	Content() (string, error)
	URL() string
	// Click clicks the first element matching selector
	Click(selector string, timeout time.Duration) error
	// MediaSource returns the resolved source of the first media element matching selector
	MediaSource(selector string) (string, error)
	ResponseSource
	Close() error
}

// ResponseSource delivers the URL of every network response a page receives
type ResponseSource interface {
	// OnResponse registers fn and returns a func that removes it
	OnResponse(fn func(url string)) (unsubscribe func())
}
