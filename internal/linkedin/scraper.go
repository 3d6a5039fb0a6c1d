package linkedin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// maxProfileChars caps the scraped text fed into prompts
	maxProfileChars = 8000
)

// Scraper fetches a public profile page and reduces it to visible text
type Scraper struct {
	client *http.Client
}

// NewScraper creates a scraper with a sane default HTTP client
func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchProfileText downloads the page at url and returns its visible text.
// Profiles behind auth walls typically return a login page; callers treat
// any failure here as non-fatal.
func (s *Scraper) FetchProfileText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid profile url: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch profile: unexpected status %d", resp.StatusCode)
	}

	text, err := ExtractVisibleText(resp.Body)
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", fmt.Errorf("profile page contained no readable text")
	}
	return text, nil
}

// ExtractVisibleText strips markup, scripts and styles from an HTML
// document and returns normalized visible text
func ExtractVisibleText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse profile html: %w", err)
	}

	doc.Find("script, style, noscript, nav, footer").Remove()

	var parts []string
	doc.Find("body").Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, sel.Text())
	})

	text := normalizeWhitespace(strings.Join(parts, "\n"))
	if len(text) > maxProfileChars {
		// Back up to a rune boundary so the cut never splits a
		// multibyte character.
		cut := maxProfileChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text, nil
}

// normalizeWhitespace collapses runs of blank space left behind by markup
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
