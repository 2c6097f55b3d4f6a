// Package fetcher looks up a page title for a URL that is about to be stored
// in a new entry.
package fetcher

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/f4ah6o/passmatch-go/internal/converter"
	"github.com/f4ah6o/passmatch-go/internal/urlutil"
)

// DefaultUserAgent identifies passmatch to web servers.
const DefaultUserAgent = "passmatch/1.0 (+https://github.com/f4ah6o/passmatch-go)"

// maxBodySize caps how much of a page is read while looking for its title.
const maxBodySize = 1 << 20

type Fetcher struct {
	client    *http.Client
	userAgent string
	locales   []string
	converter *converter.Converter
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: DefaultUserAgent,
		locales:   DefaultLocalePriority,
		converter: converter.New(),
	}
}

// SetUserAgent overrides the User-Agent header. Empty keeps the default.
func (f *Fetcher) SetUserAgent(userAgent string) {
	if userAgent != "" {
		f.userAgent = userAgent
	}
}

// SetLocales sets the preferred languages sent in Accept-Language.
func (f *Fetcher) SetLocales(locales []string) {
	f.locales = locales
}

// FetchTitle downloads targetURL and returns its title.
// Only http and https URLs are fetched.
func (f *Fetcher) FetchTitle(targetURL string) (string, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("invalid URL scheme: %s. Only http and https are supported", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return "", fmt.Errorf("invalid URL: domain is missing")
	}

	req, err := http.NewRequest(http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if lang := AcceptLanguage(f.locales); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", targetURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && contentType != "" {
		return "", fmt.Errorf("%s is not an HTML page (%s)", targetURL, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read body from %s: %w", targetURL, err)
	}

	doc, err := f.converter.Parse(body, contentType)
	if err != nil {
		return "", err
	}

	return converter.Title(doc), nil
}

// TitleFor returns a title for a new entry stored for rawURL.
// It tries the page title and falls back to the host name, or to rawURL
// itself for URLs without a host.
func (f *Fetcher) TitleFor(rawURL string) string {
	title, err := f.FetchTitle(rawURL)
	if err != nil {
		log.Printf("Warning: could not fetch title: %v", err)
	}
	if title != "" {
		return title
	}
	if host := urlutil.GetHost(rawURL); host != "" {
		return host
	}
	return rawURL
}
