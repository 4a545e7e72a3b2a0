// Package fetch downloads job postings and reduces their HTML to readable text.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeScreener/1.0)"

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 5 << 20

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error during URL fetching.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures the fetch behavior.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
	Client       *http.Client // overrides Timeout when set
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

func (o *Options) client() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	return &http.Client{Timeout: o.Timeout}
}

// ValidateURL reports whether urlStr is an absolute http(s) URL.
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil || parsed.Host == "" {
		return &Error{URL: urlStr, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &Error{URL: urlStr, Message: fmt.Sprintf("invalid URL: unsupported scheme %q", parsed.Scheme)}
	}
	return nil
}

// URL retrieves HTML content from a URL. On a non-200 status the partial
// result is returned together with the error.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := ValidateURL(urlStr); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to create request", Cause: err}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := opts.client().Do(req)
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	limit := opts.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, &Error{URL: urlStr, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         urlStr,
		HTML:        string(bodyBytes),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: urlStr, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	return result, nil
}

// commonNoise is removed from every page before text extraction.
const commonNoise = "nav, footer, header, script, style, noscript, svg, iframe, " +
	".ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup"

// ExtractMainText parses HTML and returns the main body text.
// Noise elements are removed first, then the first content selector that matches
// is used. If none matches, the body is used.
func ExtractMainText(page string, contentSelectors []string, noiseSelectors ...string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(commonNoise).Remove()
	if len(noiseSelectors) > 0 {
		doc.Find(strings.Join(noiseSelectors, ", ")).Remove()
	}

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(blockText(mainContent)), nil
}

// blockText returns the text of sel with a line break after each block element,
// so list items and paragraphs do not run together.
func blockText(sel *goquery.Selection) string {
	sel.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(textNode("\n"))
	})
	sel.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr, section").Each(func(_ int, s *goquery.Selection) {
		s.AppendNodes(textNode("\n"))
	})
	sel.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependNodes(textNode("- "))
	})
	return sel.Text()
}

func textNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// JobPostingSelectors returns selectors for job board pages of unknown platforms.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		".job-content",
		"#job-description",
		"#job-content",
		".posting-content",
		".job-details",
		"[data-testid='job-description']",
		"main",
		"article",
		".content",
		"#content",
	}
}

// cleanWhitespace trims every line and drops empty ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" && line != "-" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
