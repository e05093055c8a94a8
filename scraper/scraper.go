// Package scraper fetches a URL and extracts its main article text:
// goquery for a DOM pre-clean pass, go-shiori/go-readability for the
// main-content extraction pass.
package scraper

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"mindmap3d/pipelineerrors"
)

const (
	fetchTimeout   = 15 * time.Second
	userAgent      = "Mozilla/5.0 (compatible; Mindmap3DBot/1.0; +https://example.invalid/bot)"
	minBodyRunes   = 200
)

// Scraper fetches a URL and returns its extracted article body.
type Scraper struct {
	httpClient *http.Client
}

// New creates a Scraper with a short, bounded-timeout HTTP client.
func New() *Scraper {
	return &Scraper{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Fetch downloads the URL, runs the pre-clean/readability/post-clean
// pipeline, and returns the plain-text article body.
func (s *Scraper) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", pipelineerrors.UrlFetch("invalid URL", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", pipelineerrors.UrlFetch("failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", pipelineerrors.UrlFetch("URL returned error status", errStatus(resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "html") {
		return "", pipelineerrors.UrlFetch("unsupported content type: "+contentType, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", pipelineerrors.UrlFetch("failed to read response body", err)
	}

	cleaned, err := preClean(body)
	if err != nil {
		return "", pipelineerrors.ContentExtraction("failed to parse document")
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), parseURLOrNil(url))
	if err != nil {
		return "", pipelineerrors.ContentExtraction("readability extraction failed")
	}

	text := postClean(article.TextContent)
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minBodyRunes {
		return "", pipelineerrors.ContentExtraction("extracted article body is too short")
	}
	return text, nil
}

// preClean parses the raw HTML and removes nodes matching noiseSelectors
// before handing the document to the readability extractor.
func preClean(htmlBody []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBody)))
	if err != nil {
		return "", err
	}
	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}
	html, err := doc.Html()
	if err != nil {
		return "", err
	}
	return html, nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }

func errStatus(code int) error { return &statusError{code} }
