package vault

import "time"

// RecycleBinGroup is the group deleted entries are moved to.
// Entries in it are never returned by searches.
const RecycleBinGroup = "Recycle Bin"

// Entry is a single stored credential.
type Entry struct {
	// UUID uniquely identifies the entry within the database.
	UUID string `yaml:"uuid" json:"uuid"`
	// Title is the display name of the entry.
	Title string `yaml:"title" json:"title"`
	// Username is the account name used to log in.
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	// Password is the secret. It is never searched.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	// URL is the address the credential belongs to. App identifiers use androidapp://.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Notes is free-form text.
	Notes string `yaml:"notes,omitempty" json:"notes,omitempty"`
	// Tags are free-form labels.
	Tags []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	// Group is the name of the group the entry lives in.
	Group string `yaml:"group,omitempty" json:"group,omitempty"`
	// Created is when the entry was added.
	Created time.Time `yaml:"created,omitempty" json:"created,omitempty"`
	// Modified is when the entry was last changed.
	Modified time.Time `yaml:"modified,omitempty" json:"modified,omitempty"`
}

// MatchSet is an ordered, read-only collection of entries returned by one query.
type MatchSet []*Entry

// Len returns the number of entries in the set.
func (m MatchSet) Len() int {
	return len(m)
}

// Empty reports whether the set holds no entries.
func (m MatchSet) Empty() bool {
	return len(m) == 0
}

// searchable returns the fields free-text search looks at.
func (e *Entry) searchable() []string {
	fields := []string{e.Title, e.Username, e.URL, e.Notes}
	return append(fields, e.Tags...)
}
