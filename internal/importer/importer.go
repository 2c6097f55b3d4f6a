// Package importer creates entries from a browser bookmark export.
// It reads the Netscape bookmark HTML format written by every major browser:
// folders become groups and bookmark descriptions become Markdown notes.
package importer

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/f4ah6o/passmatch-go/internal/converter"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

// skippedSchemes are bookmark URLs that do not identify a login page.
var skippedSchemes = []string{"javascript:", "place:", "data:", "about:", "chrome:"}

// Bookmark is a single link read from an export.
type Bookmark struct {
	Title   string
	URL     string
	Group   string
	Notes   string
	AddedAt time.Time
}

// Summary reports the result of an import.
type Summary struct {
	Added   int
	Skipped int
}

// Importer reads bookmark exports.
type Importer struct {
	converter *converter.Converter
}

// New creates a new Importer instance.
func New() *Importer {
	return &Importer{converter: converter.New()}
}

// Parse extracts bookmarks from the export content, in document order.
// Unsupported links are left out.
func (im *Importer) Parse(content []byte) ([]Bookmark, error) {
	doc, err := im.converter.Parse(content, "")
	if err != nil {
		return nil, err
	}

	var bookmarks []Bookmark
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if !importable(href) {
			return
		}

		b := Bookmark{
			Title: strings.Join(strings.Fields(a.Text()), " "),
			URL:   href,
			Group: folderOf(a),
		}

		if added, ok := a.Attr("add_date"); ok {
			if secs, err := strconv.ParseInt(added, 10, 64); err == nil && secs > 0 {
				b.AddedAt = time.Unix(secs, 0).UTC()
			}
		}

		if notes, err := im.description(a); err != nil {
			log.Printf("Warning: could not convert description of %s: %v", href, err)
		} else {
			b.Notes = notes
		}

		bookmarks = append(bookmarks, b)
	})

	return bookmarks, nil
}

// ImportFile adds the bookmarks in path to db.
// Bookmarks whose URL is already stored, verbatim, are skipped.
// The caller saves db.
func (im *Importer) ImportFile(path string, db *vault.Database) (Summary, error) {
	var summary Summary

	if !db.CanWrite() {
		return summary, vault.ErrReadOnly
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("failed to read bookmarks: %w", err)
	}

	bookmarks, err := im.Parse(content)
	if err != nil {
		return summary, err
	}

	for _, b := range bookmarks {
		existing, err := db.SearchForExactURL(b.URL)
		if err != nil {
			return summary, fmt.Errorf("failed to check %s: %w", b.URL, err)
		}
		if !existing.Empty() {
			summary.Skipped++
			continue
		}

		title := b.Title
		if title == "" {
			title = b.URL
		}

		if _, err := db.AddEntry(vault.Entry{
			Title:   title,
			URL:     b.URL,
			Group:   b.Group,
			Notes:   b.Notes,
			Created: b.AddedAt,
		}); err != nil {
			return summary, fmt.Errorf("failed to add %s: %w", b.URL, err)
		}
		summary.Added++
	}

	log.Printf("Imported %d bookmarks from %s (%d already present).", summary.Added, path, summary.Skipped)
	return summary, nil
}

// description converts the <DD> following a bookmark to Markdown.
func (im *Importer) description(a *goquery.Selection) (string, error) {
	dd := a.Closest("dt").NextFiltered("dd")
	if dd.Length() == 0 {
		return "", nil
	}

	dd = dd.Clone()
	dd.Find("dl").Remove()
	html, err := dd.Html()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	return im.converter.ToMarkdown(html)
}

// folderOf returns the name of the folder a bookmark sits in, or "" at top level.
func folderOf(a *goquery.Selection) string {
	dl := a.Closest("dl")
	if dl.Length() == 0 {
		return ""
	}

	h3 := dl.PrevAllFiltered("h3").First()
	if h3.Length() == 0 {
		h3 = dl.Parent().ChildrenFiltered("h3").First()
	}
	return strings.TrimSpace(h3.Text())
}

func importable(href string) bool {
	if href == "" {
		return false
	}
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return false
		}
	}
	return true
}
