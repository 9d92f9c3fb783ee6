package scraper

import (
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// scrollScript scrolls in small steps so lazily rendered rows get loaded
const scrollScript = `async () => {
	await new Promise((resolve) => {
		let total = 0;
		const step = 100;
		const timer = setInterval(() => {
			window.scrollBy(0, step);
			total += step;
			if (total >= document.body.scrollHeight) {
				clearInterval(timer);
				resolve();
			}
		}, 100);
	});
}`

const mediaSourceScript = `el => el.currentSrc || el.src || ""`

// PlaywrightOptions configures the headless browser
type PlaywrightOptions struct {
	Headless  bool
	UserAgent string
	// Install downloads the driver and Chromium before launching
	Install bool
}

// PlaywrightBrowser is a Browser backed by a Chromium instance
type PlaywrightBrowser struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	userAgent string
}

// LaunchPlaywright starts the driver and launches Chromium. Failure here is
// fatal for a scrape run.
func LaunchPlaywright(opts PlaywrightOptions) (*PlaywrightBrowser, error) {
	if opts.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("%w: installing driver: %v", ErrBrowserUnavailable, err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: starting driver: %v", ErrBrowserUnavailable, err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("%w: launching chromium: %v", ErrBrowserUnavailable, err)
	}

	return &PlaywrightBrowser{pw: pw, browser: browser, userAgent: opts.UserAgent}, nil
}

func (b *PlaywrightBrowser) NewPage() (Page, error) {
	var opts playwright.BrowserNewPageOptions
	if b.userAgent != "" {
		opts.UserAgent = playwright.String(b.userAgent)
	}
	page, err := b.browser.NewPage(opts)
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (b *PlaywrightBrowser) Close() error {
	return errors.Join(b.browser.Close(), b.pw.Stop())
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   millis(timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) ScrollToBottom() error {
	_, err := p.page.Evaluate(scrollScript)
	return err
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: millis(timeout),
	})
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) Click(selector string, timeout time.Duration) error {
	return p.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: millis(timeout),
	})
}

func (p *playwrightPage) MediaSource(selector string) (string, error) {
	v, err := p.page.Locator(selector).First().Evaluate(mediaSourceScript, nil, playwright.LocatorEvaluateOptions{
		Timeout: millis(2 * time.Second),
	})
	if err != nil {
		return "", err
	}
	src, _ := v.(string)
	return src, nil
}

func (p *playwrightPage) OnResponse(fn func(url string)) func() {
	handler := func(resp playwright.Response) {
		fn(resp.URL())
	}
	p.page.On("response", handler)
	return func() {
		p.page.RemoveListener("response", handler)
	}
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
