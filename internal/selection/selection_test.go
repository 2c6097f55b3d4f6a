package selection

import (
	"errors"
	"testing"

	"github.com/f4ah6o/passmatch-go/internal/resolver"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

type memoryStore struct {
	entries  resolver.MatchSet
	canWrite bool
	err      error
}

func (m *memoryStore) SearchForExactURL(url string) (resolver.MatchSet, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *memoryStore) SearchForHost(string, bool) (resolver.MatchSet, error) {
	return resolver.MatchSet{}, nil
}

func (m *memoryStore) SearchForText(string) (resolver.MatchSet, error) {
	return resolver.MatchSet{}, nil
}

func (m *memoryStore) CanWrite() bool {
	return m.canWrite
}

// recordingPresenter remembers which method was called.
type recordingPresenter struct {
	calls   []string
	entry   *vault.Entry
	opts    Options
	err     error
	matches resolver.MatchSet
}

func (r *recordingPresenter) ShowEntry(entry *vault.Entry) error {
	r.calls = append(r.calls, "entry")
	r.entry = entry
	return nil
}

func (r *recordingPresenter) ShowResults(url string, matches resolver.MatchSet, opts Options) error {
	r.calls = append(r.calls, "results")
	r.matches = matches
	r.opts = opts
	return nil
}

func (r *recordingPresenter) ShowEmpty(url string, opts Options) error {
	r.calls = append(r.calls, "empty")
	r.opts = opts
	return nil
}

func (r *recordingPresenter) ShowError(err error) {
	r.calls = append(r.calls, "error")
	r.err = err
}

func TestDecide(t *testing.T) {
	one := resolver.MatchSet{{UUID: "a"}}
	two := resolver.MatchSet{{UUID: "a"}, {UUID: "b"}}

	tests := []struct {
		name     string
		matches  resolver.MatchSet
		canWrite bool
		want     Outcome
		wantOpts Options
	}{
		{"single match", one, true, AutoSelect, Options{}},
		{"several matches", two, true, Choose, Options{SelectOther: true, CreateEntry: true}},
		{"nothing writable", resolver.MatchSet{}, true, Empty, Options{SelectOther: true, CreateEntry: true}},
		{"nothing read-only", resolver.MatchSet{}, false, Empty, Options{SelectOther: true}},
		{"several read-only", two, false, Choose, Options{SelectOther: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide("https://example.com", resolver.Result{Matches: tt.matches}, tt.canWrite)
			if d.Outcome != tt.want {
				t.Errorf("Decide() outcome = %v, want %v", d.Outcome, tt.want)
			}
			if d.Options != tt.wantOpts {
				t.Errorf("Decide() options = %+v, want %+v", d.Options, tt.wantOpts)
			}
		})
	}
}

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		store     *memoryStore
		wantCall  string
		wantCount int
	}{
		{"auto-select", &memoryStore{entries: resolver.MatchSet{{UUID: "a"}}}, "entry", 1},
		{"choose", &memoryStore{entries: resolver.MatchSet{{UUID: "a"}, {UUID: "b"}}}, "results", 2},
		{"empty", &memoryStore{entries: resolver.MatchSet{}}, "empty", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &recordingPresenter{}
			d, err := Run("https://example.com", tt.store, resolver.New(), p)
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if len(p.calls) != 1 || p.calls[0] != tt.wantCall {
				t.Errorf("presenter calls = %v, want [%s]", p.calls, tt.wantCall)
			}
			if d.Matches.Len() != tt.wantCount {
				t.Errorf("Run() matches = %d, want %d", d.Matches.Len(), tt.wantCount)
			}
		})
	}
}

func TestRun_AutoSelectHandsOverEntry(t *testing.T) {
	entry := &vault.Entry{UUID: "only"}
	p := &recordingPresenter{}
	d, err := Run("https://example.com", &memoryStore{entries: resolver.MatchSet{entry}}, resolver.New(), p)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if p.entry != entry || d.Selected() != entry {
		t.Error("Run() should present the single matching entry")
	}
}

func TestRun_QueryError(t *testing.T) {
	storeErr := errors.New("database is locked")
	p := &recordingPresenter{}

	d, err := Run("https://example.com", &memoryStore{err: storeErr}, resolver.New(), p)
	if !errors.Is(err, storeErr) {
		t.Fatalf("Run() error = %v, want %v", err, storeErr)
	}
	if len(p.calls) != 1 || p.calls[0] != "error" {
		t.Errorf("presenter calls = %v, want [error]", p.calls)
	}
	if p.err.Error() != "database is locked" {
		t.Errorf("ShowError() message = %q, want the store message", p.err.Error())
	}
	if d.Matches != nil {
		t.Error("Run() should not return matches after a failure")
	}
}
