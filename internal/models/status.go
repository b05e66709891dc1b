package models

import (
	"errors"
	"fmt"
)

// ErrDuplicatePath is returned when a snapshot would contain the same path twice.
var ErrDuplicatePath = errors.New("duplicate path in snapshot")

// StatusCode is the kind of change recorded for a path.
type StatusCode int

// Status codes reported by the version-control backend.
const (
	Unmodified StatusCode = iota
	Added
	Modified
	Deleted
	Renamed
	Copied
	Untracked
	Ignored
	Conflicted
)

var statusNames = [...]string{
	Unmodified: "unmodified",
	Added:      "added",
	Modified:   "modified",
	Deleted:    "deleted",
	Renamed:    "renamed",
	Copied:     "copied",
	Untracked:  "untracked",
	Ignored:    "ignored",
	Conflicted: "conflicted",
}

var statusLetters = [...]string{
	Unmodified: " ",
	Added:      "A",
	Modified:   "M",
	Deleted:    "D",
	Renamed:    "R",
	Copied:     "C",
	Untracked:  "?",
	Ignored:    "!",
	Conflicted: "U",
}

func (c StatusCode) String() string {
	if c < 0 || int(c) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(c))
	}
	return statusNames[c]
}

// Letter returns the single-character porcelain form of the code.
func (c StatusCode) Letter() string {
	if c < 0 || int(c) >= len(statusLetters) {
		return "?"
	}
	return statusLetters[c]
}

// StatusCodeFromLetter maps a porcelain status letter to a StatusCode.
// '.' and ' ' both mean unmodified.
func StatusCodeFromLetter(letter byte) StatusCode {
	switch letter {
	case 'A':
		return Added
	case 'M', 'T':
		return Modified
	case 'D':
		return Deleted
	case 'R':
		return Renamed
	case 'C':
		return Copied
	case '?':
		return Untracked
	case '!':
		return Ignored
	case 'U':
		return Conflicted
	default:
		return Unmodified
	}
}

// StatusEntry is one path in a changelist snapshot.
type StatusEntry struct {
	Path     string
	OrigPath string // set for renames and copies
	Code     StatusCode
	Staged   bool
	// Partial marks a staged entry whose work tree has changed again
	// since it was staged.
	Partial bool
}

// HasUnstagedChanges reports whether staging the path would change the
// index.
func (e StatusEntry) HasUnstagedChanges() bool {
	return !e.Staged || e.Partial
}

// Label renders the entry status as shown in listings, e.g. "M staged".
func (e StatusEntry) Label() string {
	switch {
	case e.Partial:
		return e.Code.Letter() + " partially staged"
	case e.Staged:
		return e.Code.Letter() + " staged"
	default:
		return e.Code.Letter() + " unstaged"
	}
}

// Snapshot is an immutable, ordered listing of file statuses.
// The zero value is an empty snapshot.
type Snapshot struct {
	entries []StatusEntry
}

// NewSnapshot copies entries into a new snapshot, rejecting duplicate paths.
func NewSnapshot(entries []StatusEntry) (Snapshot, error) {
	seen := make(map[string]struct{}, len(entries))
	copied := make([]StatusEntry, len(entries))
	for i, entry := range entries {
		if _, ok := seen[entry.Path]; ok {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrDuplicatePath, entry.Path)
		}
		seen[entry.Path] = struct{}{}
		copied[i] = entry
	}
	return Snapshot{entries: copied}, nil
}

// Len returns the number of entries.
func (s Snapshot) Len() int { return len(s.entries) }

// At returns the entry at index i.
func (s Snapshot) At(i int) StatusEntry { return s.entries[i] }

// Entries returns a copy of the snapshot entries in order.
func (s Snapshot) Entries() []StatusEntry {
	out := make([]StatusEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lookup returns the entry for path if present.
func (s Snapshot) Lookup(path string) (StatusEntry, bool) {
	for _, entry := range s.entries {
		if entry.Path == path {
			return entry, true
		}
	}
	return StatusEntry{}, false
}

// Counts returns the number of staged, unstaged and untracked entries.
func (s Snapshot) Counts() (staged, unstaged, untracked int) {
	for _, entry := range s.entries {
		switch {
		case entry.Code == Untracked:
			untracked++
		case entry.Staged:
			staged++
		default:
			unstaged++
		}
	}
	return staged, unstaged, untracked
}
