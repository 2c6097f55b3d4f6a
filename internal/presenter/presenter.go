// Package presenter prints resolution results to a terminal or as JSON.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/f4ah6o/passmatch-go/internal/resolver"
	"github.com/f4ah6o/passmatch-go/internal/selection"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

var (
	// ANSI colors for terminal output
	colorHeader  = color.New(color.FgHiMagenta, color.Bold)
	colorBold    = color.New(color.Bold)
	colorCyan    = color.New(color.FgCyan)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed, color.Bold)
)

// Presenter writes decisions to out. It implements selection.Presenter.
type Presenter struct {
	out io.Writer
	// JSON switches output to indented JSON documents.
	JSON bool
	// ShowPasswords includes passwords in the output.
	ShowPasswords bool
	// Program is the command name used in follow-up hints.
	Program string
}

// New creates a Presenter writing to stdout.
func New() *Presenter {
	return NewWithWriter(os.Stdout)
}

// NewWithWriter creates a Presenter writing to out.
func NewWithWriter(out io.Writer) *Presenter {
	return &Presenter{out: out, Program: "passmatch"}
}

// report is the JSON document written for every decision.
type report struct {
	URL     string        `json:"url,omitempty"`
	Outcome string        `json:"outcome"`
	Entries []vault.Entry `json:"entries"`
	Options *jsonOptions  `json:"options,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type jsonOptions struct {
	SelectOther bool `json:"select_other"`
	CreateEntry bool `json:"create_entry"`
}

// ShowEntry prints the single entry that was selected.
func (p *Presenter) ShowEntry(entry *vault.Entry) error {
	if p.JSON {
		return p.writeJSON(report{
			URL:     entry.URL,
			Outcome: selection.AutoSelect.String(),
			Entries: p.redact(resolver.MatchSet{entry}),
		})
	}

	colorHeader.Fprintf(p.out, "\n%s\n", displayTitle(entry))
	p.printEntry(entry, "   ")
	fmt.Fprintln(p.out)
	return nil
}

// ShowResults prints all entries for the user to choose from.
func (p *Presenter) ShowResults(url string, matches resolver.MatchSet, opts selection.Options) error {
	if p.JSON {
		return p.writeJSON(report{
			URL:     url,
			Outcome: selection.Choose.String(),
			Entries: p.redact(matches),
			Options: &jsonOptions{SelectOther: opts.SelectOther, CreateEntry: opts.CreateEntry},
		})
	}

	colorHeader.Fprintf(p.out, "\nEntries for '%s'\n", url)
	fmt.Fprintf(p.out, "Found %d matching entries.\n\n", matches.Len())
	p.printList(matches)
	p.printOptions(url, opts)
	return nil
}

// ShowEmpty prints the empty state with the available follow-up actions.
func (p *Presenter) ShowEmpty(url string, opts selection.Options) error {
	if p.JSON {
		return p.writeJSON(report{
			URL:     url,
			Outcome: selection.Empty.String(),
			Entries: []vault.Entry{},
			Options: &jsonOptions{SelectOther: opts.SelectOther, CreateEntry: opts.CreateEntry},
		})
	}

	colorWarning.Fprintf(p.out, "No entries found for '%s'.\n", url)
	p.printOptions(url, opts)
	return nil
}

// ShowError prints the failure message unchanged.
func (p *Presenter) ShowError(err error) {
	if p.JSON {
		if werr := p.writeJSON(report{Outcome: "error", Entries: []vault.Entry{}, Error: err.Error()}); werr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return
	}
	colorError.Fprintf(p.out, "Error: %s\n", err.Error())
}

// ShowSearch prints the result of a free-text search.
func (p *Presenter) ShowSearch(query string, matches resolver.MatchSet) error {
	if p.JSON {
		return p.writeJSON(report{
			Outcome: "search",
			Entries: p.redact(matches),
		})
	}

	if matches.Empty() {
		fmt.Fprintf(p.out, "No matches found for '%s'.\n", query)
		return nil
	}

	colorHeader.Fprintf(p.out, "\nSearch Results for '%s'\n", query)
	fmt.Fprintf(p.out, "Found %d matching entries.\n\n", matches.Len())
	p.printList(matches)
	return nil
}

func (p *Presenter) printList(matches resolver.MatchSet) {
	for i, entry := range matches {
		colorBold.Fprintf(p.out, "%d. %s\n", i+1, displayTitle(entry))
		p.printEntry(entry, "   ")
		colorCyan.Fprintln(p.out, strings.Repeat("-", 40))
	}
}

func (p *Presenter) printEntry(entry *vault.Entry, indent string) {
	if entry.Username != "" {
		fmt.Fprintf(p.out, "%sUsername: %s\n", indent, entry.Username)
	}
	if p.ShowPasswords && entry.Password != "" {
		fmt.Fprintf(p.out, "%sPassword: %s\n", indent, entry.Password)
	}
	if entry.URL != "" {
		fmt.Fprintf(p.out, "%sURL: %s\n", indent, entry.URL)
	}
	if entry.Group != "" {
		fmt.Fprintf(p.out, "%sGroup: %s\n", indent, entry.Group)
	}
	fmt.Fprintf(p.out, "%sUUID: %s\n", indent, entry.UUID)
}

func (p *Presenter) printOptions(url string, opts selection.Options) {
	if !opts.SelectOther && !opts.CreateEntry {
		return
	}
	fmt.Fprintln(p.out, "\nNext steps:")
	if opts.SelectOther {
		fmt.Fprintf(p.out, "  Select a different entry:  %s search <TEXT>\n", p.Program)
	}
	if opts.CreateEntry {
		fmt.Fprintf(p.out, "  Create an entry:           %s add %q\n", p.Program, url)
	}
}

// redact copies matches, dropping passwords unless ShowPasswords is set.
func (p *Presenter) redact(matches resolver.MatchSet) []vault.Entry {
	out := make([]vault.Entry, 0, len(matches))
	for _, e := range matches {
		c := *e
		if !p.ShowPasswords {
			c.Password = ""
		}
		out = append(out, c)
	}
	return out
}

func (p *Presenter) writeJSON(v any) error {
	encoder := json.NewEncoder(p.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func displayTitle(entry *vault.Entry) string {
	if entry.Title != "" {
		return entry.Title
	}
	if entry.URL != "" {
		return entry.URL
	}
	return "(untitled)"
}
