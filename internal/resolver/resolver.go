// Package resolver finds the stored credentials that belong to a URL.
//
// Resolution runs an ordered list of stages against a Store and stops at the
// first stage that returns any entries:
//
//  1. exact-url        entries whose URL equals the query verbatim
//  2. host             entries whose host equals the query host
//  3. host-subdomains  entries whose host is the query host or a parent domain of it
//  4. text             entries mentioning the query anywhere in their text fields
//  5. host-text        entries mentioning the query host anywhere in their text fields
//
// The host stages are skipped for androidapp:// URLs, which name an
// application package rather than a web host.
package resolver

import (
	"log"
	"strings"

	"github.com/f4ah6o/passmatch-go/internal/urlutil"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

// Stage names, in default evaluation order.
const (
	StageExactURL       = "exact-url"
	StageHost           = "host"
	StageHostSubdomains = "host-subdomains"
	StageText           = "text"
	StageHostText       = "host-text"
)

// MatchSet is the ordered result of a single query.
type MatchSet = vault.MatchSet

// Store is the searchable credential database the resolver queries.
// The resolver only reads from it.
type Store interface {
	SearchForExactURL(url string) (MatchSet, error)
	SearchForHost(url string, allowSubdomains bool) (MatchSet, error)
	SearchForText(text string) (MatchSet, error)
	CanWrite() bool
}

// Stage is one match attempt in the fallback chain.
type Stage struct {
	// Name identifies the stage in results, errors and logs.
	Name string
	// Applies reports whether the stage runs for url. Nil means always.
	Applies func(url string) bool
	// Query runs the stage against the store.
	Query func(store Store, url string) (MatchSet, error)
}

// Result is the outcome of a resolution.
type Result struct {
	// Matches holds the entries found. It is empty, never nil, when nothing matched.
	Matches MatchSet
	// Stage is the name of the stage that produced Matches, or "" when nothing matched.
	Stage string
}

// Resolver runs a fixed list of stages.
type Resolver struct {
	stages []Stage
	// Verbose logs every stage that is evaluated.
	Verbose bool
}

// New creates a Resolver using DefaultStages.
func New() *Resolver {
	return NewWithStages(DefaultStages())
}

// NewWithStages creates a Resolver that evaluates stages in the given order.
func NewWithStages(stages []Stage) *Resolver {
	return &Resolver{stages: stages}
}

// Stages returns the names of the configured stages in evaluation order.
func (r *Resolver) Stages() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name
	}
	return names
}

// DefaultStages returns the standard fallback chain.
func DefaultStages() []Stage {
	notApp := func(url string) bool {
		return !urlutil.IsAppURL(url)
	}

	return []Stage{
		{
			Name: StageExactURL,
			Query: func(store Store, url string) (MatchSet, error) {
				return store.SearchForExactURL(url)
			},
		},
		{
			Name:    StageHost,
			Applies: notApp,
			Query: func(store Store, url string) (MatchSet, error) {
				return store.SearchForHost(url, false)
			},
		},
		{
			Name:    StageHostSubdomains,
			Applies: notApp,
			Query: func(store Store, url string) (MatchSet, error) {
				return store.SearchForHost(url, true)
			},
		},
		{
			Name: StageText,
			Query: func(store Store, url string) (MatchSet, error) {
				return store.SearchForText(url)
			},
		},
		{
			Name: StageHostText,
			Query: func(store Store, url string) (MatchSet, error) {
				return store.SearchForText(urlutil.GetHost(strings.TrimSpace(url)))
			},
		},
	}
}

// Resolve runs the stages in order and returns the first non-empty MatchSet.
// Later stages are not evaluated once a stage has matched. A store failure
// aborts resolution with a *QueryError and no partial result.
func (r *Resolver) Resolve(url string, store Store) (Result, error) {
	for _, stage := range r.stages {
		if stage.Applies != nil && !stage.Applies(url) {
			if r.Verbose {
				log.Printf("Skipping stage %s for %s", stage.Name, url)
			}
			continue
		}

		matches, err := stage.Query(store, url)
		if err != nil {
			return Result{}, &QueryError{Stage: stage.Name, Err: err}
		}

		if r.Verbose {
			log.Printf("Stage %s: %d matches", stage.Name, matches.Len())
		}

		if !matches.Empty() {
			return Result{Matches: matches, Stage: stage.Name}, nil
		}
	}

	return Result{Matches: MatchSet{}}, nil
}

// Resolve resolves url against store with the default stages.
func Resolve(url string, store Store) (MatchSet, error) {
	res, err := New().Resolve(url, store)
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}
