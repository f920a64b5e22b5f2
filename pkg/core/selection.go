package core

import "fmt"

// SelectionRow summarises one group of identifications found by a search.
// CountB is only set by the modification search.
type SelectionRow struct {
	Sequence         string `json:"sequence" yaml:"sequence"`
	ModifiedSequence string `json:"modifiedSequence" yaml:"modifiedSequence"`
	Length           int    `json:"length" yaml:"length"`
	CountA           int    `json:"countA" yaml:"countA"`
	CountB           *int   `json:"countB,omitempty" yaml:"countB,omitempty"`
}

// Equal compares all five fields.
func (r SelectionRow) Equal(o SelectionRow) bool {
	if r.Sequence != o.Sequence || r.ModifiedSequence != o.ModifiedSequence ||
		r.Length != o.Length || r.CountA != o.CountA {
		return false
	}
	if r.CountB == nil || o.CountB == nil {
		return r.CountB == nil && o.CountB == nil
	}
	return *r.CountB == *o.CountB
}

func (r SelectionRow) String() string {
	if r.CountB == nil {
		return fmt.Sprintf("%s (%d)", r.ModifiedSequence, r.CountA)
	}
	return fmt.Sprintf("%s (%d/%d)", r.ModifiedSequence, r.CountA, *r.CountB)
}

// Selection is an ordered set of rows without duplicates.
type Selection struct {
	rows []SelectionRow
}

// Add appends rows that are not yet selected and reports how many were added.
func (s *Selection) Add(rows ...SelectionRow) int {
	added := 0
	for _, row := range rows {
		if s.Contains(row) {
			continue
		}
		s.rows = append(s.rows, row)
		added++
	}
	return added
}

// Contains reports whether an equal row is selected.
func (s *Selection) Contains(row SelectionRow) bool {
	for _, r := range s.rows {
		if r.Equal(row) {
			return true
		}
	}
	return false
}

// Rows returns a copy of the selected rows in selection order.
func (s *Selection) Rows() []SelectionRow {
	out := make([]SelectionRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len returns the number of selected rows.
func (s *Selection) Len() int {
	return len(s.rows)
}

// Clear drops every selected row.
func (s *Selection) Clear() {
	s.rows = nil
}
