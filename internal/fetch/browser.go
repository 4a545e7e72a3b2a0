package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the minimum extracted text length to consider an HTTP
// fetch successful. Shorter pages are likely rendered client-side.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a whole headless browser session.
const DefaultBrowserTimeout = 45 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer returns the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, url string) (string, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// ChromeRenderer renders pages with a local headless Chrome or Chromium.
type ChromeRenderer struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// Render navigates to url, waits for scripts to settle and returns the page HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultBrowserTimeout
	}

	log.Debug("starting headless browser", zap.String("url", url))
	started := time.Now()

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
		// Cookie banners hide the posting on some boards; a missing button is fine.
		chromedp.ActionFunc(func(ctx context.Context) error {
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("browser rendered page",
		zap.String("url", url),
		zap.Int("html_bytes", len(html)),
		zap.Duration("elapsed", time.Since(started)))
	return html, nil
}
