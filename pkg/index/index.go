// Package index groups identification records by sequence for the two search modes.
package index

import (
	"fmt"
	"strings"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// Mode selects the grouping key.
type Mode int

const (
	// GeneralSearch groups by modified sequence.
	GeneralSearch Mode = iota
	// ModificationSearch groups by unmodified sequence so that unmodified and
	// modified forms of the same backbone share a bucket.
	ModificationSearch
)

func (m Mode) String() string {
	switch m {
	case GeneralSearch:
		return "general"
	case ModificationSearch:
		return "modification"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode parses "general" or "modification".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "general":
		return GeneralSearch, nil
	case "modification", "mod":
		return ModificationSearch, nil
	}
	return 0, fmt.Errorf("unknown search mode %q, must be general or modification", s)
}

// Key returns the grouping key of rec under mode m.
func (m Mode) Key(rec *core.IdentificationRecord) string {
	if m == ModificationSearch {
		return rec.Sequence
	}
	return rec.ModifiedSequence
}

// Index maps grouping keys to the records sharing them. Keys keep their first
// insertion order and buckets are never empty.
type Index struct {
	mode    Mode
	keys    []string
	buckets map[string][]*core.IdentificationRecord
	size    int
}

// New returns an empty index for mode m.
func New(m Mode) *Index {
	return &Index{
		mode:    m,
		buckets: make(map[string][]*core.IdentificationRecord),
	}
}

// Mode returns the grouping mode.
func (x *Index) Mode() Mode {
	return x.mode
}

// Insert appends rec to the bucket of its key.
func (x *Index) Insert(rec *core.IdentificationRecord) {
	key := x.mode.Key(rec)
	if _, ok := x.buckets[key]; !ok {
		x.keys = append(x.keys, key)
	}
	x.buckets[key] = append(x.buckets[key], rec)
	x.size++
}

// Keys returns the keys in first-insertion order.
func (x *Index) Keys() []string {
	out := make([]string, len(x.keys))
	copy(out, x.keys)
	return out
}

// Bucket returns the records stored under key.
func (x *Index) Bucket(key string) []*core.IdentificationRecord {
	return x.buckets[key]
}

// Len returns the number of buckets.
func (x *Index) Len() int {
	return len(x.keys)
}

// Size returns the total number of records over all buckets.
func (x *Index) Size() int {
	return x.size
}

// Lookup returns the identifications behind a selection row. In general mode
// the first list holds the whole bucket and the second is nil. In modification
// mode the bucket is split into its unmodified members and the members sharing
// the row's modified sequence.
func (x *Index) Lookup(row core.SelectionRow) (primary, secondary []*core.IdentificationRecord) {
	if x.mode == GeneralSearch {
		return x.buckets[row.ModifiedSequence], nil
	}
	for _, rec := range x.buckets[row.Sequence] {
		switch {
		case !rec.IsModified():
			primary = append(primary, rec)
		case rec.ModifiedSequence == row.ModifiedSequence:
			secondary = append(secondary, rec)
		}
	}
	return primary, secondary
}
