package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ErrTooLarge is returned when a file exceeds MaxSize
var ErrTooLarge = errors.New("file too large")

// Kind selects the content type a download must have
type Kind int

const (
	Audio Kind = iota
	Image
)

func (k Kind) String() string {
	if k == Image {
		return "image"
	}
	return "audio"
}

// Options configures the download behavior
type Options struct {
	Dir             string        // Destination directory
	MaxSize         int64         // Maximum file size in bytes (0 = no limit)
	Timeout         time.Duration // Per-file timeout
	RateLimit       float64       // Requests per second (0 = unlimited)
	UserAgent       string
	ValidateContent bool         // Reject responses whose content type does not match the kind
	ProgressFunc    ProgressFunc // Optional progress callback
}

// ProgressFunc is called during download to report progress
type ProgressFunc func(downloaded, total int64)

// DefaultOptions returns default download options
func DefaultOptions() Options {
	return Options{
		Dir:             "./downloads",
		MaxSize:         500 * 1024 * 1024,
		Timeout:         5 * time.Minute,
		RateLimit:       2,
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
		ValidateContent: true,
	}
}

// Result describes a finished download
type Result struct {
	FilePath      string
	ContentType   string
	ContentLength int64
	Skipped       bool // The file already existed
}

// Downloader fetches song audio and cover files into a directory
type Downloader struct {
	client  *resty.Client
	options Options
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options Options) *Downloader {
	client := resty.New()
	client.SetTimeout(options.Timeout)
	client.SetHeader("user-agent", options.UserAgent)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(time.Second)

	if options.RateLimit > 0 {
		burst := int(options.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter := rate.NewLimiter(rate.Limit(options.RateLimit), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	return &Downloader{client: client, options: options}
}

// Download stores url as filename in the destination directory. Existing
// files are left alone.
func (d *Downloader) Download(ctx context.Context, url, filename string, kind Kind) (*Result, error) {
	dest := filepath.Join(d.options.Dir, filepath.Base(filename))
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return &Result{FilePath: dest, ContentLength: info.Size(), Skipped: true}, nil
	}

	slog.Debug("starting download", "url", url, "file", dest)

	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("accept", accept(kind)).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if d.options.ValidateContent && !matchesKind(contentType, kind) {
		return nil, fmt.Errorf("invalid content type for %s: %q", kind, contentType)
	}

	total := resp.RawResponse.ContentLength
	if d.options.MaxSize > 0 && total > d.options.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, total, d.options.MaxSize)
	}

	if err := os.MkdirAll(d.options.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	tmp, err := os.CreateTemp(d.options.Dir, tempPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	written, err := d.copy(tmp, body, total)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpPath, dest)
	}
	if err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to download: %w", err)
	}

	slog.Debug("download finished", "file", dest, "bytes", written)
	return &Result{FilePath: dest, ContentType: contentType, ContentLength: written}, nil
}

func (d *Downloader) copy(dst io.Writer, src io.Reader, total int64) (int64, error) {
	reader := src
	if d.options.ProgressFunc != nil {
		reader = &progressReader{reader: src, total: total, callback: d.options.ProgressFunc}
	}
	if d.options.MaxSize <= 0 {
		return io.Copy(dst, reader)
	}

	// Read one byte past the limit to detect oversize bodies without a length
	written, err := io.Copy(dst, io.LimitReader(reader, d.options.MaxSize+1))
	if err != nil {
		return written, err
	}
	if written > d.options.MaxSize {
		return written, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, d.options.MaxSize)
	}
	return written, nil
}

func accept(kind Kind) string {
	if kind == Image {
		return "image/*,*/*"
	}
	return "audio/*,*/*"
}

// matchesKind checks the content type against the expected kind
func matchesKind(contentType string, kind Kind) bool {
	contentType = strings.ToLower(contentType)
	// Some CDNs serve everything as octet-stream
	if strings.HasPrefix(contentType, "application/octet-stream") {
		return true
	}
	if kind == Image {
		return strings.HasPrefix(contentType, "image/")
	}
	return strings.HasPrefix(contentType, "audio/") || strings.HasPrefix(contentType, "video/webm")
}

// progressReader wraps a reader to report progress
type progressReader struct {
	reader     io.Reader
	total      int64
	downloaded int64
	callback   ProgressFunc
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.downloaded += int64(n)
		if pr.callback != nil {
			pr.callback(pr.downloaded, pr.total)
		}
	}
	return n, err
}
