package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/resume-screener/internal/fetch"
	"go.uber.org/zap"
)

var (
	// ErrHTTPRequestFailed is returned when the posting cannot be downloaded
	ErrHTTPRequestFailed = errors.New("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text can be extracted from the posting
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// Fetcher downloads a page. *fetch.CachedFetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.CachedResult, error)
}

// JobFetcher turns job posting URLs into clean job description text.
type JobFetcher struct {
	fetcher  Fetcher
	renderer fetch.Renderer // nil disables the browser fallback
	logger   *zap.Logger
}

// NewJobFetcher creates a JobFetcher. Pass a nil renderer to never start a browser.
func NewJobFetcher(fetcher Fetcher, renderer fetch.Renderer, logger *zap.Logger) *JobFetcher {
	if fetcher == nil {
		fetcher = fetch.NewCachedFetcher(nil, 0, nil, logger)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobFetcher{fetcher: fetcher, renderer: renderer, logger: logger}
}

// FetchJobDescription downloads a posting and extracts its main text using
// platform-specific selectors. When the page yields too little text and a
// renderer is configured, the page is rendered in a browser and extracted again.
func (j *JobFetcher) FetchJobDescription(ctx context.Context, urlStr string) (string, *Metadata, error) {
	if err := fetch.ValidateURL(urlStr); err != nil {
		return "", nil, err
	}

	platform := fetch.DetectPlatform(urlStr)
	log := j.logger.With(zap.String("url", urlStr), zap.String("platform", string(platform)))

	result, err := j.fetcher.Fetch(ctx, urlStr)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}
	log.Debug("fetched posting", zap.Int("html_bytes", len(result.HTML)), zap.Bool("from_cache", result.FromCache))

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	text, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	rendered := false
	if j.renderer != nil && fetch.ShouldUseBrowser(text) {
		log.Info("posting text too short, rendering in browser",
			zap.Int("chars", len(text)), zap.Int("min_chars", fetch.MinContentLength))
		html, rerr := j.renderer.Render(ctx, urlStr)
		switch {
		case rerr != nil:
			log.Warn("browser rendering failed, using fetched content", zap.Error(rerr))
		default:
			if browserText, xerr := fetch.ExtractMainText(html, contentSelectors, noiseSelectors...); xerr != nil {
				log.Warn("browser content extraction failed", zap.Error(xerr))
			} else if len(browserText) > len(text) {
				text = browserText
				rendered = true
			}
		}
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: page has no readable text", ErrContentExtractionFailed)
	}

	meta := NewMetadata(cleaned, urlStr)
	meta.Platform = string(platform)
	meta.FromCache = result.FromCache
	meta.Rendered = rendered
	log.Debug("extracted posting", zap.Int("chars", len(cleaned)), zap.Bool("rendered", rendered))
	return cleaned, meta, nil
}
