package scraper

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// fakeBrowser serves canned HTML per URL. Clicking the play control on a
// detail page fires the responses registered for that URL.
type fakeBrowser struct {
	mu        sync.Mutex
	html      map[string]string
	responses map[string][]string
	media     map[string]string
	failNav   map[string]bool
	failClick bool
	pages     []*fakePage
	visits    []string
	newErr    error
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		html:      map[string]string{},
		responses: map[string][]string{},
		media:     map[string]string{},
		failNav:   map[string]bool{},
	}
}

func (b *fakeBrowser) NewPage() (Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.newErr != nil {
		return nil, b.newErr
	}
	p := &fakePage{browser: b, listeners: map[int]func(string){}}
	b.pages = append(b.pages, p)
	return p, nil
}

func (b *fakeBrowser) Close() error { return nil }

func (b *fakeBrowser) visited() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.visits...)
}

func (b *fakeBrowser) listenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.pages {
		n += p.listenerCount()
	}
	return n
}

type fakePage struct {
	browser   *fakeBrowser
	mu        sync.Mutex
	url       string
	listeners map[int]func(string)
	nextID    int
	closed    bool
}

func (p *fakePage) Goto(url string, _ time.Duration) error {
	b := p.browser
	b.mu.Lock()
	b.visits = append(b.visits, url)
	fail := b.failNav[url]
	_, known := b.html[url]
	b.mu.Unlock()
	if fail || !known {
		return errors.New("timeout exceeded")
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *fakePage) ScrollToBottom() error { return nil }

func (p *fakePage) WaitFor(selector string, _ time.Duration) error {
	html, _ := p.Content()
	if !strings.Contains(html, "audioRow") {
		return errors.New("timeout waiting for selector")
	}
	return nil
}

func (p *fakePage) Content() (string, error) {
	b := p.browser
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.html[p.URL()], nil
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) Click(_ string, _ time.Duration) error {
	b := p.browser
	b.mu.Lock()
	fail := b.failClick
	urls := b.responses[p.URL()]
	b.mu.Unlock()
	if fail {
		return errors.New("no play control")
	}

	p.mu.Lock()
	listeners := make([]func(string), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	for _, u := range urls {
		for _, fn := range listeners {
			fn(u)
		}
	}
	return nil
}

func (p *fakePage) MediaSource(_ string) (string, error) {
	b := p.browser
	b.mu.Lock()
	defer b.mu.Unlock()
	src, ok := b.media[p.URL()]
	if !ok {
		return "", errors.New("no media element")
	}
	return src, nil
}

func (p *fakePage) OnResponse(fn func(string)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

func (p *fakePage) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
