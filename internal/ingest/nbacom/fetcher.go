package nbacom

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

const (
	// UserAgent sent with every request; the site rejects Go's default.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
)

// Fetcher returns the HTML of a page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		interval = MinRequestInterval
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// HTTPFetcher downloads pages with a plain HTTP client. The payload is
// server-rendered so no JavaScript needs to run.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher allowing one request per interval
func NewHTTPFetcher(interval, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: newLimiter(interval),
	}
}

// Fetch implements Fetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrGameNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(body), nil
}

// BrowserFetcher renders pages in headless Chrome, for when the plain
// client gets served a challenge page instead of the game.
type BrowserFetcher struct {
	limiter *rate.Limiter
	timeout time.Duration

	// Chromedp context for headless browser
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserFetcher starts a headless Chrome allocator
func NewBrowserFetcher(interval, timeout time.Duration) *BrowserFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		limiter:  newLimiter(interval),
		timeout:  timeout,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Fetch modes
const (
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

// NewFetcherForMode builds the fetcher for a configured mode. The returned
// func releases any browser resources.
func NewFetcherForMode(mode string, interval, timeout time.Duration) (Fetcher, func(), error) {
	switch mode {
	case ModeHTTP, "":
		return NewHTTPFetcher(interval, timeout), func() {}, nil
	case ModeBrowser:
		f := NewBrowserFetcher(interval, timeout)
		return f, f.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown fetch mode %q", mode)
	}
}

// Close releases resources
func (f *BrowserFetcher) Close() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Fetch implements Fetcher
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	browserCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, f.timeout)
	defer cancel()

	// Stop the browser tab if the caller gives up first
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(nextDataSelector, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}

	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned from %s", url)
	}
	return htmlContent, nil
}
