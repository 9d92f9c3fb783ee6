package scraper

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"
)

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".m4a":  {},
	".ogg":  {},
	".wav":  {},
	".aac":  {},
	".flac": {},
	".opus": {},
	".webm": {},
}

// IsAudioURL reports whether the URL path ends in an audio file extension.
// The query string and fragment are ignored.
func IsAudioURL(raw string) bool {
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		p = raw[:i]
	}
	_, ok := audioExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// AwaitResponse subscribes to src, runs trigger and returns the first response
// URL accepted by match. It gives up with ErrAudioNotFound after timeout. The
// listener is removed before returning in every case.
func AwaitResponse(ctx context.Context, src ResponseSource, match func(string) bool, timeout time.Duration, trigger func() error) (string, error) {
	found := make(chan string, 1)
	unsubscribe := src.OnResponse(func(u string) {
		if !match(u) {
			return
		}
		select {
		case found <- u:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	if trigger != nil {
		if err := trigger(); err != nil {
			// A response may already be in flight
			select {
			case u := <-found:
				return u, nil
			default:
			}
			return "", fmt.Errorf("%w: %v", ErrAudioNotFound, err)
		}
	}

	select {
	case u := <-found:
		return u, nil
	case <-timer.C:
		return "", ErrAudioNotFound
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
