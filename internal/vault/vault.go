// Package vault provides the credential database passmatch searches.
// A database is a YAML document holding a flat list of entries. It is opened
// already decrypted; searches never modify it.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/f4ah6o/passmatch-go/internal/urlutil"
)

var (
	// ErrReadOnly is returned when a write is attempted on a database that cannot be written.
	ErrReadOnly = errors.New("database is read-only")
	// ErrLocked is returned by every operation on a locked database.
	ErrLocked = errors.New("database is locked")
)

// document is the on-disk layout of a database file.
type document struct {
	Name    string   `yaml:"name"`
	Entries []*Entry `yaml:"entries"`
}

// Database is an unlocked credential database backed by a YAML file.
type Database struct {
	path     string
	doc      document
	writable bool
	locked   bool
}

// New creates an empty database that will be written to path on Save.
func New(path, name string) *Database {
	return &Database{
		path:     path,
		doc:      document{Name: name},
		writable: true,
	}
}

// Open loads the database stored at path.
// When readOnly is set, or the file cannot be opened for writing, the database
// is opened read-only and CanWrite reports false.
func Open(path string, readOnly bool) (*Database, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse database %s: %w", path, err)
	}

	db := &Database{
		path: path,
		doc:  doc,
	}
	if !readOnly {
		db.writable = fileWritable(path)
	}

	return db, nil
}

func fileWritable(path string) bool {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Path returns the file the database is stored in.
func (db *Database) Path() string {
	return db.path
}

// Name returns the database name.
func (db *Database) Name() string {
	return db.doc.Name
}

// CanWrite reports whether entries may be added and the database saved.
func (db *Database) CanWrite() bool {
	return db.writable && !db.locked
}

// Lock discards the in-memory entries. Every later search fails with ErrLocked.
func (db *Database) Lock() {
	db.locked = true
	db.doc.Entries = nil
}

// IsLocked reports whether Lock has been called.
func (db *Database) IsLocked() bool {
	return db.locked
}

// Entries returns all entries, including those in the recycle bin.
func (db *Database) Entries() ([]*Entry, error) {
	if db.locked {
		return nil, ErrLocked
	}
	out := make([]*Entry, len(db.doc.Entries))
	copy(out, db.doc.Entries)
	return out, nil
}

// AddEntry stores a copy of e, assigning a UUID and timestamps when missing.
func (db *Database) AddEntry(e Entry) (*Entry, error) {
	if db.locked {
		return nil, ErrLocked
	}
	if !db.writable {
		return nil, ErrReadOnly
	}

	now := time.Now().UTC()
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	if e.Created.IsZero() {
		e.Created = now
	}
	e.Modified = now

	entry := &e
	db.doc.Entries = append(db.doc.Entries, entry)
	return entry, nil
}

// Save writes the database back to its file.
// The document is written to a temporary file in the same directory first and
// then renamed over the original.
func (db *Database) Save() error {
	if db.locked {
		return ErrLocked
	}
	if !db.writable {
		return ErrReadOnly
	}

	content, err := yaml.Marshal(&db.doc)
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}

	dir := filepath.Dir(db.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(db.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write database: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write database: %w", err)
	}
	if err := os.Rename(tmpName, db.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace database: %w", err)
	}

	return nil
}

// SearchForExactURL returns entries whose URL equals rawURL verbatim.
func (db *Database) SearchForExactURL(rawURL string) (MatchSet, error) {
	return db.filter(func(e *Entry) bool {
		return strings.TrimSpace(e.URL) == rawURL
	})
}

// SearchForHost returns entries whose URL host matches the host of rawURL.
// With allowSubdomains, an entry stored for "google.com" also matches a query
// for "accounts.google.com", but not the other way around.
func (db *Database) SearchForHost(rawURL string, allowSubdomains bool) (MatchSet, error) {
	host := urlutil.GetHost(rawURL)
	if host == "" {
		return db.filter(func(*Entry) bool { return false })
	}

	return db.filter(func(e *Entry) bool {
		return urlutil.HostMatches(host, urlutil.GetHost(e.URL), allowSubdomains)
	})
}

// SearchForText returns entries where text occurs in the title, username, URL,
// notes or tags. Matching is a case-insensitive substring match using Unicode
// case folding. Blank text matches nothing.
func (db *Database) SearchForText(text string) (MatchSet, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return db.filter(func(*Entry) bool { return false })
	}

	// Casers keep state, so one is used per search
	fold := cases.Fold()
	needle := fold.String(text)

	return db.filter(func(e *Entry) bool {
		for _, field := range e.searchable() {
			if field != "" && strings.Contains(fold.String(field), needle) {
				return true
			}
		}
		return false
	})
}

// filter returns the live entries accepted by match, in document order.
func (db *Database) filter(match func(*Entry) bool) (MatchSet, error) {
	if db.locked {
		return nil, ErrLocked
	}

	matches := MatchSet{}
	for _, e := range db.doc.Entries {
		if e == nil || e.Group == RecycleBinGroup {
			continue
		}
		if match(e) {
			matches = append(matches, e)
		}
	}
	return matches, nil
}
