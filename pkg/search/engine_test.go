package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/filter"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
)

// lineSource parses identification lines lazily, the way the flat-file reader does.
type lineSource struct {
	lines []string
	pos   int
	err   error // returned by Err once the lines are exhausted
}

func (s *lineSource) Next() bool {
	if s.pos >= len(s.lines) {
		return false
	}
	s.pos++
	return true
}

func (s *lineSource) Record() (*core.IdentificationRecord, error) {
	return core.ParseIdentificationLine(s.lines[s.pos-1])
}

func (s *lineSource) Total() int { return len(s.lines) }

func (s *lineSource) Err() error { return s.err }

func line(id int, seq, modSeq string, charge int, instrument string) string {
	return fmt.Sprintf("%d\t1\t%s\t%s\t%d\t%s\tNH2\tCOOH", id, seq, modSeq, charge, instrument)
}

func TestSearchGeneralFiltersChargeAndInstrument(t *testing.T) {
	src := &lineSource{lines: []string{
		line(1, "PEPTIDE", "PEPTIDE", 2, "X"),
		line(2, "PEPTIDEK", "PEPTIDEK", 2, "X"),
		line(3, "PEPTIDE", "PEPTIDE", 3, "Y"),
	}}
	params := Params{
		Mode:     index.GeneralSearch,
		Criteria: filter.Criteria{Charge: 2, Instruments: []string{"X"}},
	}

	res, err := NewEngine(nil).Search(context.Background(), src, params, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.NoHits {
		t.Fatal("expected hits")
	}
	if res.MatchCount != 2 {
		t.Errorf("MatchCount = %d, want 2", res.MatchCount)
	}
	if res.Index.Len() != 2 {
		t.Fatalf("Index.Len() = %d, want 2", res.Index.Len())
	}
	for _, key := range []string{"PEPTIDE", "PEPTIDEK"} {
		if n := len(res.Index.Bucket(key)); n != 1 {
			t.Errorf("bucket %s size = %d, want 1", key, n)
		}
	}
	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
	}
	for _, row := range res.Rows {
		if row.CountA != 1 || row.CountB != nil {
			t.Errorf("row %v: want CountA 1 and no CountB", row)
		}
	}
}

func TestSearchModificationPairThreshold(t *testing.T) {
	src := &lineSource{lines: []string{
		line(1, "ABC", "ABC", 2, "X"),
		line(2, "ABC", "ABC", 2, "X"),
		line(3, "ABC", "ABC", 2, "X"),
		line(4, "ABC", "A(ox)BC", 2, "X"),
	}}
	params := Params{Mode: index.ModificationSearch, MinimumPairs: 2}

	res, err := NewEngine(nil).Search(context.Background(), src, params, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.MatchCount != 4 {
		t.Errorf("MatchCount = %d, want 4", res.MatchCount)
	}
	if len(res.Rows) != 0 {
		t.Errorf("Rows = %v, want none", res.Rows)
	}
}

func TestSearchModificationRows(t *testing.T) {
	src := &lineSource{lines: []string{
		line(1, "ABC", "ABC", 2, "X"),
		line(2, "ABC", "A(ox)BC", 2, "X"),
		line(3, "ABC", "ABC", 2, "X"),
		line(4, "ABC", "A(ox)BC", 2, "X"),
		line(5, "ABC", "AB(ph)C", 2, "X"),
		line(6, "ABC", "AB(ph)C", 2, "X"),
		line(7, "ABC", "AB(ph)C", 2, "X"),
		line(8, "DEF", "DEF", 2, "X"),
		line(9, "DEF", "DEF", 2, "X"),
		line(10, "DEF", "DEF", 2, "X"),
		line(11, "DEF", "D(ox)EF", 2, "X"),
		line(12, "DEF", "D(ox)EF", 2, "X"),
	}}

	tests := []struct {
		name     string
		criteria filter.Criteria
		want     []core.SelectionRow
	}{
		{
			name: "all modifications",
			want: []core.SelectionRow{
				{Sequence: "DEF", ModifiedSequence: "D(ox)EF", Length: 3, CountA: 3, CountB: intPtr(2)},
				{Sequence: "ABC", ModifiedSequence: "A(ox)BC", Length: 3, CountA: 2, CountB: intPtr(2)},
				{Sequence: "ABC", ModifiedSequence: "AB(ph)C", Length: 3, CountA: 2, CountB: intPtr(3)},
			},
		},
		{
			name:     "exact modification",
			criteria: filter.Criteria{Modifications: []string{"ph"}},
			want: []core.SelectionRow{
				{Sequence: "ABC", ModifiedSequence: "AB(ph)C", Length: 3, CountA: 2, CountB: intPtr(3)},
			},
		},
		{
			name:     "substring does not match",
			criteria: filter.Criteria{Modifications: []string{"o"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src.pos = 0
			params := Params{Mode: index.ModificationSearch, Criteria: tt.criteria, MinimumPairs: 2}
			res, err := NewEngine(nil).Search(context.Background(), src, params, nil)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(res.Rows) != len(tt.want) {
				t.Fatalf("Rows = %v, want %v", res.Rows, tt.want)
			}
			for i := range tt.want {
				if !res.Rows[i].Equal(tt.want[i]) {
					t.Errorf("Rows[%d] = %v, want %v", i, res.Rows[i], tt.want[i])
				}
			}
		})
	}
}

func TestSearchGroupingAndCount(t *testing.T) {
	var lines []string
	seqs := []struct{ seq, mod string }{
		{"PEPTIDE", "PEPTIDE"},
		{"PEPTIDE", "PEPT<Pho>IDE"},
		{"ELVIS", "ELVIS"},
		{"PEPTIDE", "PEPTIDE"},
		{"ELVIS", "E<Dam>LVIS"},
		{"KAPPA", "KAPPA"},
	}
	for i, s := range seqs {
		lines = append(lines, line(i+1, s.seq, s.mod, 2, "X"))
	}

	for _, mode := range []index.Mode{index.GeneralSearch, index.ModificationSearch} {
		t.Run(mode.String(), func(t *testing.T) {
			src := &lineSource{lines: lines}
			res, err := NewEngine(nil).Search(context.Background(), src, Params{Mode: mode, MinimumPairs: 1}, nil)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}

			sum := 0
			for _, key := range res.Index.Keys() {
				bucket := res.Index.Bucket(key)
				sum += len(bucket)
				for _, rec := range bucket {
					if mode.Key(rec) != key {
						t.Errorf("record %d with key %q stored under %q", rec.ID, mode.Key(rec), key)
					}
				}
			}
			if sum != res.MatchCount {
				t.Errorf("sum of bucket sizes = %d, MatchCount = %d", sum, res.MatchCount)
			}
		})
	}
}

func TestSortRowsStable(t *testing.T) {
	rows := []core.SelectionRow{
		{ModifiedSequence: "A", CountA: 1},
		{ModifiedSequence: "B", CountA: 3},
		{ModifiedSequence: "C", CountA: 1},
		{ModifiedSequence: "D", CountA: 3},
		{ModifiedSequence: "E", CountA: 2},
		{ModifiedSequence: "F", CountA: 1},
	}
	SortRows(rows)

	want := []string{"B", "D", "E", "A", "C", "F"}
	for i, w := range want {
		if rows[i].ModifiedSequence != w {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].ModifiedSequence, w)
		}
	}
}

func TestSearchNoHits(t *testing.T) {
	src := &lineSource{lines: []string{line(1, "PEPTIDE", "PEPTIDE", 2, "X")}}
	res, err := NewEngine(nil).Search(context.Background(), src, Params{Criteria: filter.Criteria{Charge: 4}}, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !res.NoHits || res.Index != nil || res.MatchCount != 0 {
		t.Errorf("want no hits and no index, got %+v", res)
	}
}

func TestSearchSkipsMalformed(t *testing.T) {
	src := &lineSource{lines: []string{
		line(1, "PEPTIDE", "PEPTIDE", 2, "X"),
		"garbage",
		line(3, "PEPTIDE", "PEPTIDE", 0, "X"),
		line(4, "PEPTIDE", "PEPTIDE", 2, "X"),
	}}

	var calls, last int
	res, err := NewEngine(nil).Search(context.Background(), src, Params{}, func(current, total int) {
		calls++
		last = current
		if total != 4 {
			t.Errorf("progress total = %d, want 4", total)
		}
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Malformed != 2 {
		t.Errorf("Malformed = %d, want 2", res.Malformed)
	}
	if res.MatchCount != 2 {
		t.Errorf("MatchCount = %d, want 2", res.MatchCount)
	}
	if calls != 4 || last != 4 {
		t.Errorf("progress calls = %d ending at %d, want 4 ending at 4", calls, last)
	}
}

func TestSearchSourceError(t *testing.T) {
	src := &lineSource{
		lines: []string{line(1, "PEPTIDE", "PEPTIDE", 2, "X")},
		err:   errors.New("connection reset"),
	}
	res, err := NewEngine(nil).Search(context.Background(), src, Params{}, nil)
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Fatalf("Search() error = %v, want ErrSourceUnavailable", err)
	}
	if res != nil {
		t.Error("no result may be returned for an unavailable source")
	}
}

func TestSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &lineSource{lines: []string{line(1, "PEPTIDE", "PEPTIDE", 2, "X")}}
	_, err := NewEngine(nil).Search(ctx, src, Params{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Search() error = %v, want context.Canceled", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"general ignores pairs", Params{Mode: index.GeneralSearch}, false},
		{"modification needs pairs", Params{Mode: index.ModificationSearch}, true},
		{"modification with pairs", Params{Mode: index.ModificationSearch, MinimumPairs: 1}, false},
		{"too many instruments", Params{Criteria: filter.Criteria{Instruments: []string{"a", "b", "c", "d"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.params.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func intPtr(n int) *int { return &n }
