// Package faq holds the canned-answer table and the keyword matcher used to
// pick relevant answers for a support question.
package faq

import (
	"errors"
	"fmt"
	"strings"
)

// Entry is one topic key and its canned answer.
type Entry struct {
	Key    string `json:"key" yaml:"key"`
	Answer string `json:"answer" yaml:"answer"`
}

// Table is an ordered, immutable FAQ table. Order matters: combined answers
// are assembled in table order.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable normalises keys and rejects empty or duplicate ones.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		key := normalize(e.Key)
		if key == "" {
			return nil, errors.New("faq: empty topic key")
		}
		if _, dup := t.index[key]; dup {
			return nil, fmt.Errorf("faq: duplicate topic key %q", key)
		}
		t.index[key] = len(t.entries)
		t.entries = append(t.entries, Entry{Key: key, Answer: e.Answer})
	}
	return t, nil
}

// Len returns the number of topics.
func (t *Table) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the table in insertion order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup returns the answer whose key equals the normalised query.
func (t *Table) Lookup(query string) (string, bool) {
	i, ok := t.index[normalize(query)]
	if !ok {
		return "", false
	}
	return t.entries[i].Answer, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
