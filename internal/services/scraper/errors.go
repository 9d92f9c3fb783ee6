package scraper

import "errors"

var (
	ErrAudioNotFound      = errors.New("audio url not found")
	ErrNavigationTimeout  = errors.New("detail navigation failed")
	ErrBrowserUnavailable = errors.New("browser session unavailable")
)
