// Package tracker keeps the durable record of contacted profiles.
//
// A record is a plain text file holding one profile URL per line. Writes
// only ever append; duplicate lines are tolerated and collapse on load.
package tracker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// Set is an insertion-ordered set of profile identifiers
type Set struct {
	index map[string]struct{}
	order []string
}

// NewSet returns a set holding ids in first-seen order
func NewSet(ids ...string) Set {
	s := Set{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was new
func (s *Set) Add(id string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Has reports whether id is in the set
func (s Set) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of identifiers
func (s Set) Len() int {
	return len(s.order)
}

// Items returns the identifiers in first-seen order
func (s Set) Items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Record is a tracking file on disk
type Record struct {
	path string
	mu   sync.Mutex
}

// NewRecord returns the record stored at path. The file need not exist.
func NewRecord(path string) *Record {
	return &Record{path: path}
}

// Path returns the file location of the record
func (r *Record) Path() string {
	return r.path
}

// Load reads the record into a set. A missing file is an empty set.
func (r *Record) Load() (Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Record) load() (Set, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return Set{}, fmt.Errorf("failed to read record %s: %w", r.path, err)
	}

	set := NewSet()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		set.Add(line)
	}
	return set, nil
}

// Save appends id to the record, creating the file if needed
func (r *Record) Save(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appendLines(id)
}

func (r *Record) appendLines(ids ...string) error {
	file, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open record %s: %w", r.path, err)
	}
	defer file.Close()

	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteString("\n")
	}
	if _, err := file.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to append to record %s: %w", r.path, err)
	}
	return nil
}

// Reconcile prunes failure of every identifier that success also holds.
// The failure file is deleted and rewritten with the remaining identifiers,
// deduplicated, in first-seen order; nothing is written when none remain.
func Reconcile(success, failure *Record) (Set, error) {
	succeeded, err := success.Load()
	if err != nil {
		return Set{}, err
	}

	failure.mu.Lock()
	defer failure.mu.Unlock()

	failed, err := failure.load()
	if err != nil {
		return Set{}, err
	}

	remaining := NewSet()
	for _, id := range failed.Items() {
		if !succeeded.Has(id) {
			remaining.Add(id)
		}
	}

	if err := os.Remove(failure.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Set{}, fmt.Errorf("failed to remove record %s: %w", failure.path, err)
	}
	if remaining.Len() == 0 {
		return remaining, nil
	}
	if err := failure.appendLines(remaining.Items()...); err != nil {
		return Set{}, err
	}
	return remaining, nil
}
