package index

import (
	"testing"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

func mustRecord(t *testing.T, id int64, seq, modSeq string) *core.IdentificationRecord {
	t.Helper()
	rec, err := core.NewIdentification(id, nil, seq, modSeq, 2, "X", "NH2", "COOH", nil)
	if err != nil {
		t.Fatalf("NewIdentification() error = %v", err)
	}
	return rec
}

func fixture(t *testing.T) []*core.IdentificationRecord {
	return []*core.IdentificationRecord{
		mustRecord(t, 1, "ABC", "ABC"),
		mustRecord(t, 2, "ABC", "A(ox)BC"),
		mustRecord(t, 3, "PEPTIDE", "PEPTIDE"),
		mustRecord(t, 4, "ABC", "ABC"),
		mustRecord(t, 5, "ABC", "AB(ph)C"),
	}
}

func TestGroupingByMode(t *testing.T) {
	tests := []struct {
		mode     Mode
		wantKeys []string
		keyOf    func(*core.IdentificationRecord) string
	}{
		{GeneralSearch, []string{"ABC", "A(ox)BC", "PEPTIDE", "AB(ph)C"}, func(r *core.IdentificationRecord) string { return r.ModifiedSequence }},
		{ModificationSearch, []string{"ABC", "PEPTIDE"}, func(r *core.IdentificationRecord) string { return r.Sequence }},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			idx := New(tt.mode)
			records := fixture(t)
			for _, rec := range records {
				idx.Insert(rec)
			}

			keys := idx.Keys()
			if len(keys) != len(tt.wantKeys) {
				t.Fatalf("Keys() = %v, want %v", keys, tt.wantKeys)
			}
			total := 0
			for i, key := range keys {
				if key != tt.wantKeys[i] {
					t.Errorf("key %d = %q, want %q", i, key, tt.wantKeys[i])
				}
				bucket := idx.Bucket(key)
				if len(bucket) == 0 {
					t.Errorf("bucket %q is empty", key)
				}
				for _, rec := range bucket {
					if tt.keyOf(rec) != key {
						t.Errorf("record %d in bucket %q has key %q", rec.ID, key, tt.keyOf(rec))
					}
				}
				total += len(bucket)
			}
			if total != idx.Size() || total != len(records) {
				t.Errorf("bucket sizes sum to %d, Size() = %d, records = %d", total, idx.Size(), len(records))
			}
		})
	}
}

func TestLookup(t *testing.T) {
	idx := New(ModificationSearch)
	for _, rec := range fixture(t) {
		idx.Insert(rec)
	}

	unmodified, modified := idx.Lookup(core.SelectionRow{Sequence: "ABC", ModifiedSequence: "A(ox)BC"})
	if len(unmodified) != 2 {
		t.Errorf("expected 2 unmodified records, got %d", len(unmodified))
	}
	if len(modified) != 1 || modified[0].ID != 2 {
		t.Errorf("expected modified record 2, got %v", modified)
	}

	general := New(GeneralSearch)
	for _, rec := range fixture(t) {
		general.Insert(rec)
	}
	primary, secondary := general.Lookup(core.SelectionRow{Sequence: "ABC", ModifiedSequence: "ABC"})
	if len(primary) != 2 || secondary != nil {
		t.Errorf("general Lookup() = %d, %v", len(primary), secondary)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", GeneralSearch, false},
		{"General", GeneralSearch, false},
		{"modification", ModificationSearch, false},
		{"bogus", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v", tt.in, got, err)
		}
	}
}
