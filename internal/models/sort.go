package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sort"
	"strings"
)

// Sortable column identifiers.
const (
	ColumnPath   = "path"
	ColumnStatus = "status"
	ColumnStaged = "staged"
)

// KnownColumns lists the column ids SortEntries understands, in display order.
var KnownColumns = []string{ColumnStaged, ColumnStatus, ColumnPath}

// ColumnSort is one key of a multi-column sort.
type ColumnSort struct {
	ColumnID  string `json:"columnId"`
	Ascending bool   `json:"ascending"`
}

// SortSpec is an ordered list of sort keys; the first one is the primary key.
type SortSpec []ColumnSort

// DefaultSortSpec sorts by path, ascending.
func DefaultSortSpec() SortSpec {
	return SortSpec{{ColumnID: ColumnPath, Ascending: true}}
}

// Clone returns an independent copy of the spec.
func (s SortSpec) Clone() SortSpec {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Equal reports whether both specs hold the same keys in the same order.
func (s SortSpec) Equal(other SortSpec) bool {
	return slices.Equal(s, other)
}

// Fingerprint returns a hex SHA-256 digest of the spec's JSON form.
// An empty and a nil spec share the same fingerprint.
func (s SortSpec) Fingerprint() string {
	if len(s) == 0 {
		s = SortSpec{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Primary returns the leading sort key, if any.
func (s SortSpec) Primary() (ColumnSort, bool) {
	if len(s) == 0 {
		return ColumnSort{}, false
	}
	return s[0], true
}

// IsKnownColumn reports whether id names a sortable column.
func IsKnownColumn(id string) bool {
	return slices.Contains(KnownColumns, id)
}

// KnownSortSpec drops unknown column ids and repeated columns, keeping the
// first occurrence of each.
func KnownSortSpec(spec SortSpec) SortSpec {
	out := make(SortSpec, 0, len(spec))
	seen := make(map[string]bool, len(spec))
	for _, key := range spec {
		if !IsKnownColumn(key.ColumnID) || seen[key.ColumnID] {
			continue
		}
		seen[key.ColumnID] = true
		out = append(out, key)
	}
	return out
}

// ToggleColumn makes column the primary key. When it already is, its
// direction flips. The previous keys follow in their former order.
func (s SortSpec) ToggleColumn(column string) SortSpec {
	next := SortSpec{{ColumnID: column, Ascending: true}}
	if primary, ok := s.Primary(); ok && primary.ColumnID == column {
		next[0].Ascending = !primary.Ascending
	}
	for _, key := range s {
		if key.ColumnID != column {
			next = append(next, key)
		}
	}
	return next
}

// ParseSortSpec parses "path,-status" style specs; a leading '-' means descending.
func ParseSortSpec(text string) SortSpec {
	var spec SortSpec
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ascending := true
		switch {
		case strings.HasPrefix(part, "-"):
			ascending = false
			part = part[1:]
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		}
		spec = append(spec, ColumnSort{ColumnID: strings.ToLower(part), Ascending: ascending})
	}
	return spec
}

// String renders the spec in the form accepted by ParseSortSpec.
func (s SortSpec) String() string {
	parts := make([]string, 0, len(s))
	for _, key := range s {
		if key.Ascending {
			parts = append(parts, key.ColumnID)
		} else {
			parts = append(parts, "-"+key.ColumnID)
		}
	}
	return strings.Join(parts, ",")
}

// SortEntries returns a sorted copy of entries. Unknown columns are ignored
// and ties keep the input order.
func SortEntries(entries []StatusEntry, spec SortSpec) []StatusEntry {
	out := slices.Clone(entries)
	keys := KnownSortSpec(spec)
	if len(keys) == 0 {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		for _, key := range keys {
			c := compareColumn(out[i], out[j], key.ColumnID)
			if c == 0 {
				continue
			}
			if key.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return out
}

func compareColumn(a, b StatusEntry, column string) int {
	switch column {
	case ColumnPath:
		return strings.Compare(a.Path, b.Path)
	case ColumnStatus:
		return strings.Compare(a.Code.Letter(), b.Code.Letter())
	case ColumnStaged:
		switch {
		case a.Staged == b.Staged:
			return 0
		case a.Staged:
			return -1
		default:
			return 1
		}
	}
	return 0
}
