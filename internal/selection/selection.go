// Package selection decides what happens with the entries found for a URL and
// hands the decision to a Presenter.
package selection

import (
	"errors"
	"log"

	"github.com/f4ah6o/passmatch-go/internal/resolver"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

// Outcome is the kind of decision taken for a resolution result.
type Outcome int

const (
	// Empty means nothing matched.
	Empty Outcome = iota
	// AutoSelect means exactly one entry matched and is used directly.
	AutoSelect
	// Choose means several entries matched and the user picks one.
	Choose
)

func (o Outcome) String() string {
	switch o {
	case AutoSelect:
		return "auto-select"
	case Choose:
		return "choose"
	default:
		return "empty"
	}
}

// Options are the follow-up actions offered when no entry was auto-selected.
type Options struct {
	// SelectOther offers browsing for a different entry.
	SelectOther bool
	// CreateEntry offers creating a new entry for the URL. Only set for writable stores.
	CreateEntry bool
}

// Decision is the outcome of resolving a URL.
type Decision struct {
	Outcome Outcome
	URL     string
	Stage   string
	Matches resolver.MatchSet
	Options Options
}

// Selected returns the auto-selected entry, or nil.
func (d Decision) Selected() *vault.Entry {
	if d.Outcome != AutoSelect {
		return nil
	}
	return d.Matches[0]
}

// Presenter shows a decision to the user.
// Exactly one method is called per resolution.
type Presenter interface {
	ShowEntry(entry *vault.Entry) error
	ShowResults(url string, matches resolver.MatchSet, opts Options) error
	ShowEmpty(url string, opts Options) error
	ShowError(err error)
}

// Decide turns a resolution result into a Decision.
func Decide(url string, res resolver.Result, canWrite bool) Decision {
	d := Decision{
		URL:     url,
		Stage:   res.Stage,
		Matches: res.Matches,
	}

	switch res.Matches.Len() {
	case 0:
		d.Outcome = Empty
	case 1:
		d.Outcome = AutoSelect
		return d
	default:
		d.Outcome = Choose
	}

	d.Options = Options{
		SelectOther: true,
		CreateEntry: canWrite,
	}
	return d
}

// Run resolves url against store and presents the decision.
// A query failure is shown with ShowError and returned; the operation is then
// considered cancelled and nothing else is presented.
func Run(url string, store resolver.Store, r *resolver.Resolver, p Presenter) (Decision, error) {
	res, err := r.Resolve(url, store)
	if err != nil {
		var qerr *resolver.QueryError
		if errors.As(err, &qerr) {
			log.Printf("Warning: %s", qerr.Describe())
		}
		p.ShowError(err)
		return Decision{URL: url}, err
	}

	d := Decide(url, res, store.CanWrite())

	switch d.Outcome {
	case AutoSelect:
		err = p.ShowEntry(d.Selected())
	case Choose:
		err = p.ShowResults(url, d.Matches, d.Options)
	default:
		err = p.ShowEmpty(url, d.Options)
	}

	return d, err
}
