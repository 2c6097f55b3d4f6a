// Package validator checks a credential database for entries that cannot be
// matched reliably. It reports duplicate identifiers, entries without any
// identifying data, unusable URLs and hosts that would match unrelated sites.
package validator

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/f4ah6o/passmatch-go/internal/urlutil"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

// Validator validates database entries.
type Validator struct{}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{}
}

// Report lists the problems found in a database.
type Report struct {
	// Entries is the number of entries checked.
	Entries int
	// Errors are problems that break matching.
	Errors []string
	// Warnings are problems that only degrade matching.
	Warnings []string
}

// OK reports whether no errors were found.
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks every entry of db and logs a summary.
// Entries in the recycle bin are only checked for duplicate UUIDs.
func (v *Validator) Validate(db *vault.Database) (Report, error) {
	entries, err := db.Entries()
	if err != nil {
		return Report{}, fmt.Errorf("failed to read entries: %w", err)
	}

	log.Printf("Validating database: %s", db.Path())

	report := Report{Entries: len(entries)}
	seen := make(map[string]int)

	for i, e := range entries {
		label := entryLabel(i, e)

		// 1. Identifiers
		if e.UUID == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("%s has no UUID", label))
		} else if first, dup := seen[e.UUID]; dup {
			report.Errors = append(report.Errors, fmt.Sprintf("%s reuses the UUID of entry %d", label, first+1))
		} else {
			seen[e.UUID] = i
		}

		if e.Group == vault.RecycleBinGroup {
			continue
		}

		// 2. Something to match on
		if strings.TrimSpace(e.Title) == "" && strings.TrimSpace(e.URL) == "" {
			report.Errors = append(report.Errors, fmt.Sprintf("%s has neither title nor URL", label))
			continue
		}

		// 3. URL checks
		report.Warnings = append(report.Warnings, v.checkURL(label, e.URL)...)

		if e.Username == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s has no username", label))
		}
	}

	// 4. Report results
	if len(report.Errors) > 0 {
		log.Printf("VALIDATION FAILED:")
		for _, msg := range report.Errors {
			log.Printf("  - %s", msg)
		}
	}

	if len(report.Warnings) > 0 {
		log.Printf("Warnings:")
		for _, warn := range report.Warnings {
			log.Printf("  - %s", warn)
		}
	}

	if report.OK() {
		log.Printf("Validation passed! %d entries checked.", report.Entries)
	}
	return report, nil
}

func (v *Validator) checkURL(label, rawURL string) []string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || urlutil.IsAppURL(rawURL) {
		return nil
	}

	var warnings []string
	if _, err := url.Parse(rawURL); err != nil {
		return append(warnings, fmt.Sprintf("%s has an invalid URL: %v", label, err))
	}

	host := urlutil.GetHost(rawURL)
	switch {
	case host == "":
		warnings = append(warnings, fmt.Sprintf("%s URL %q has no host; only text search can find it", label, rawURL))
	case urlutil.IsPublicSuffix(host):
		warnings = append(warnings, fmt.Sprintf("%s host %q is a public suffix; it matches every site registered under it", label, host))
	}
	return warnings
}

func entryLabel(i int, e *vault.Entry) string {
	if e.Title != "" {
		return fmt.Sprintf("entry %d (%s)", i+1, e.Title)
	}
	return fmt.Sprintf("entry %d", i+1)
}
