package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/f4ah6o/passmatch-go/internal/vault"
)

// scriptedStore returns canned results per query and records every call.
type scriptedStore struct {
	exact      MatchSet
	host       MatchSet
	subdomains MatchSet
	text       map[string]MatchSet
	failAt     string
	calls      []string
}

func (s *scriptedStore) result(call string, m MatchSet) (MatchSet, error) {
	s.calls = append(s.calls, call)
	if s.failAt == call {
		return nil, errors.New("index corrupt")
	}
	if m == nil {
		return MatchSet{}, nil
	}
	return m, nil
}

func (s *scriptedStore) SearchForExactURL(url string) (MatchSet, error) {
	return s.result("exact", s.exact)
}

func (s *scriptedStore) SearchForHost(url string, allowSubdomains bool) (MatchSet, error) {
	if allowSubdomains {
		return s.result("subdomains", s.subdomains)
	}
	return s.result("host", s.host)
}

func (s *scriptedStore) SearchForText(text string) (MatchSet, error) {
	return s.result("text:"+text, s.text[text])
}

func (s *scriptedStore) CanWrite() bool {
	return true
}

func entries(uuids ...string) MatchSet {
	m := MatchSet{}
	for _, id := range uuids {
		m = append(m, &vault.Entry{UUID: id})
	}
	return m
}

func ids(m MatchSet) string {
	var out []string
	for _, e := range m {
		out = append(out, e.UUID)
	}
	return strings.Join(out, ",")
}

func TestResolve_Stages(t *testing.T) {
	const url = "https://accounts.google.com/signin"

	tests := []struct {
		name      string
		store     *scriptedStore
		url       string
		wantIDs   string
		wantStage string
		wantCalls string
	}{
		{
			name: "exact match wins over everything else",
			store: &scriptedStore{
				exact:      entries("e1"),
				host:       entries("h1"),
				subdomains: entries("s1", "s2"),
				text:       map[string]MatchSet{url: entries("t1")},
			},
			url:       url,
			wantIDs:   "e1",
			wantStage: StageExactURL,
			wantCalls: "exact",
		},
		{
			name: "strict host stops before subdomains",
			store: &scriptedStore{
				host:       entries("h1"),
				subdomains: entries("s1", "s2", "s3"),
			},
			url:       url,
			wantIDs:   "h1",
			wantStage: StageHost,
			wantCalls: "exact|host",
		},
		{
			name:      "subdomain match when strict host is empty",
			store:     &scriptedStore{subdomains: entries("s1", "s2")},
			url:       url,
			wantIDs:   "s1,s2",
			wantStage: StageHostSubdomains,
			wantCalls: "exact|host|subdomains",
		},
		{
			name:      "full url as text",
			store:     &scriptedStore{text: map[string]MatchSet{url: entries("t1")}},
			url:       url,
			wantIDs:   "t1",
			wantStage: StageText,
			wantCalls: "exact|host|subdomains|text:" + url,
		},
		{
			name:      "host as text uses trimmed url",
			store:     &scriptedStore{text: map[string]MatchSet{"accounts.google.com": entries("t2")}},
			url:       "  " + url + " ",
			wantIDs:   "t2",
			wantStage: StageHostText,
			wantCalls: "exact|host|subdomains|text:  " + url + " |text:accounts.google.com",
		},
		{
			name:      "app url skips host stages",
			store:     &scriptedStore{host: entries("h1"), subdomains: entries("s1")},
			url:       "androidapp://com.example.app",
			wantIDs:   "",
			wantStage: "",
			wantCalls: "exact|text:androidapp://com.example.app|text:com.example.app",
		},
		{
			name:      "app url matched by text",
			store:     &scriptedStore{text: map[string]MatchSet{"androidapp://com.example.app": entries("a1")}},
			url:       "androidapp://com.example.app",
			wantIDs:   "a1",
			wantStage: StageText,
			wantCalls: "exact|text:androidapp://com.example.app",
		},
		{
			name:      "free text without a host still runs host-text",
			store:     &scriptedStore{},
			url:       "my bank",
			wantIDs:   "",
			wantStage: "",
			wantCalls: "exact|host|subdomains|text:my bank|text:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Resolve(tt.url, tt.store)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got := ids(res.Matches); got != tt.wantIDs {
				t.Errorf("Resolve() matches = %q, want %q", got, tt.wantIDs)
			}
			if res.Stage != tt.wantStage {
				t.Errorf("Resolve() stage = %q, want %q", res.Stage, tt.wantStage)
			}
			if got := strings.Join(tt.store.calls, "|"); got != tt.wantCalls {
				t.Errorf("Resolve() calls = %q, want %q", got, tt.wantCalls)
			}
		})
	}
}

func TestResolve_EmptyIsNotAnError(t *testing.T) {
	matches, err := Resolve("https://nothing.example.org", &scriptedStore{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if matches == nil {
		t.Fatal("Resolve() should return an empty MatchSet, not nil")
	}
	if !matches.Empty() {
		t.Errorf("Resolve() returned %d matches, want 0", matches.Len())
	}
}

func TestResolve_StoreFailure(t *testing.T) {
	const url = "https://accounts.google.com"

	for _, failAt := range []string{"exact", "host", "subdomains", "text:" + url, "text:accounts.google.com"} {
		t.Run(failAt, func(t *testing.T) {
			store := &scriptedStore{failAt: failAt}
			matches, err := Resolve(url, store)
			if matches != nil {
				t.Errorf("Resolve() returned partial matches %v", ids(matches))
			}

			var qerr *QueryError
			if !errors.As(err, &qerr) {
				t.Fatalf("Resolve() error = %v, want *QueryError", err)
			}
			if qerr.Error() != "index corrupt" {
				t.Errorf("QueryError message = %q, want store message verbatim", qerr.Error())
			}
			if last := store.calls[len(store.calls)-1]; last != failAt {
				t.Errorf("resolution continued after failure, last call %q", last)
			}
		})
	}
}

func TestQueryError_Unwrap(t *testing.T) {
	matches, err := Resolve("https://example.com", &lockedStore{})
	if matches != nil {
		t.Error("Resolve() should not return matches on failure")
	}
	if !errors.Is(err, vault.ErrLocked) {
		t.Errorf("Resolve() error = %v, want it to wrap vault.ErrLocked", err)
	}

	var qerr *QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("Resolve() error = %v, want *QueryError", err)
	}
	if qerr.Stage != StageExactURL {
		t.Errorf("QueryError.Stage = %q, want %q", qerr.Stage, StageExactURL)
	}
	if !strings.Contains(qerr.Describe(), StageExactURL) {
		t.Errorf("Describe() = %q, should name the stage", qerr.Describe())
	}
}

type lockedStore struct{ scriptedStore }

func (l *lockedStore) SearchForExactURL(string) (MatchSet, error) {
	return nil, fmt.Errorf("search failed: %w", vault.ErrLocked)
}

func TestNewWithStages(t *testing.T) {
	var ran []string
	stage := func(name string, m MatchSet) Stage {
		return Stage{
			Name: name,
			Query: func(Store, string) (MatchSet, error) {
				ran = append(ran, name)
				return m, nil
			},
		}
	}

	r := NewWithStages([]Stage{stage("a", MatchSet{}), stage("b", entries("x")), stage("c", entries("y"))})
	res, err := r.Resolve("anything", &scriptedStore{})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if res.Stage != "b" || ids(res.Matches) != "x" {
		t.Errorf("Resolve() = %s/%s, want b/x", res.Stage, ids(res.Matches))
	}
	if strings.Join(ran, ",") != "a,b" {
		t.Errorf("stages run = %v, want [a b]", ran)
	}
	if got := strings.Join(r.Stages(), ","); got != "a,b,c" {
		t.Errorf("Stages() = %q", got)
	}
}

const googleDatabase = `name: test
entries:
  - uuid: accounts
    title: Accounts
    url: https://accounts.google.com/
  - uuid: google
    title: Google
    url: https://google.com/
`

func TestResolve_HostAsymmetryWithDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.yaml")
	if err := os.WriteFile(path, []byte(googleDatabase), 0600); err != nil {
		t.Fatal(err)
	}
	db, err := vault.Open(path, true)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	tests := []struct {
		name      string
		url       string
		wantIDs   string
		wantStage string
	}{
		{"strict host beats parent", "https://accounts.google.com/signin", "accounts", StageHost},
		{"parent domain matches subdomain", "https://mail.google.com/", "google", StageHostSubdomains},
		{"subdomain entry does not match parent query", "https://google.com/search", "google", StageHost},
		{"exact url", "https://google.com/", "google", StageExactURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Resolve(tt.url, db)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if got := ids(res.Matches); got != tt.wantIDs {
				t.Errorf("Resolve(%q) = %q, want %q", tt.url, got, tt.wantIDs)
			}
			if res.Stage != tt.wantStage {
				t.Errorf("Resolve(%q) stage = %q, want %q", tt.url, res.Stage, tt.wantStage)
			}
		})
	}
}
