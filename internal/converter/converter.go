// Package converter turns raw HTML into something an entry can hold.
// It decodes the page charset, parses the document, extracts a title and
// converts HTML fragments to Markdown.
package converter

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

var (
	// <meta charset="...">
	charsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([^"'\s>;]+)`)
	// <meta http-equiv="Content-Type" content="text/html; charset=...">
	contentTypeRe = regexp.MustCompile(`(?i)<meta[^>]+http-equiv=["']?Content-Type["']?[^>]+content=["']?[^"']*charset=([^"'\s;>]+)`)
	// content attribute before http-equiv
	contentTypeRe2 = regexp.MustCompile(`(?i)<meta[^>]+content=["']?[^"']*charset=([^"'\s;>]+)[^>]+http-equiv=["']?Content-Type["']?`)

	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Converter parses HTML and converts fragments to Markdown.
type Converter struct {
	mdConverter *md.Converter
}

// New creates a new Converter instance.
func New() *Converter {
	return &Converter{
		mdConverter: md.NewConverter("", true, nil),
	}
}

// Parse decodes body using the charset from contentType or the document's
// meta tags and parses it. contentType may be empty.
func (c *Converter) Parse(body []byte, contentType string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(Decode(body, contentType)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Title returns the best title for doc: <title>, then og:title, then the first <h1>.
// Returns "" when the page has none of them.
func Title(doc *goquery.Document) string {
	if title := collapseSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := collapseSpace(og); title != "" {
			return title
		}
	}
	return collapseSpace(doc.Find("h1").First().Text())
}

// ToMarkdown converts an HTML fragment to Markdown.
func (c *Converter) ToMarkdown(html string) (string, error) {
	markdown, err := c.mdConverter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert to markdown: %w", err)
	}
	return strings.TrimSpace(postProcessMarkdown(markdown)), nil
}

func postProcessMarkdown(md string) string {
	// Remove multiple consecutive blank lines
	md = blankLinesRe.ReplaceAllString(md, "\n\n")

	// Remove trailing whitespace from each line
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.Join(lines, "\n")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Decode converts body to a UTF-8 string.
// The charset parameter of contentType wins over meta tags; UTF-8 is assumed
// when neither names a known encoding.
func Decode(body []byte, contentType string) string {
	enc := encodingFromContentType(contentType)
	if enc == nil {
		enc = encodingFromMeta(body)
	}
	if enc != nil {
		decoded, err := decodeWithEncoding(body, enc)
		if err == nil {
			return decoded
		}
	}

	// Fallback to UTF-8
	return string(bytes.TrimPrefix(body, []byte("\xEF\xBB\xBF")))
}

func encodingFromContentType(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	return lookupEncoding(params["charset"])
}

// encodingFromMeta extracts charset from HTML meta tags using regex on raw bytes.
// This avoids parsing the HTML with incorrect encoding which would corrupt the content.
func encodingFromMeta(body []byte) encoding.Encoding {
	// UTF-8 BOM
	if bytes.HasPrefix(body, []byte("\xEF\xBB\xBF")) {
		return nil
	}

	for _, re := range []*regexp.Regexp{charsetRe, contentTypeRe, contentTypeRe2} {
		if submatches := re.FindSubmatch(body); len(submatches) > 1 {
			if enc := lookupEncoding(string(submatches[1])); enc != nil {
				return enc
			}
		}
	}

	return nil
}

func lookupEncoding(charset string) encoding.Encoding {
	if charset == "" {
		return nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil
	}
	return enc
}

// decodeWithEncoding decodes bytes using specified encoding.
func decodeWithEncoding(body []byte, enc encoding.Encoding) (string, error) {
	reader := transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
