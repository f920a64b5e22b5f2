package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseIdentificationLine(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantErr      bool
		wantModified bool
		wantTotal    bool
		wantSpectrum bool
	}{
		{
			name:         "unmodified with total intensity",
			line:         "1\t12\tPEPTIDE\tNH2-PEPTIDE-COOH\t2\tX\tNH2\tCOOH\t1500.5",
			wantSpectrum: true,
			wantTotal:    true,
		},
		{
			name:         "modified without total intensity",
			line:         "2\tnull\tPEPMTIDE\tNH2-PEPM<Mox>TIDE-COOH\t3\tY\tNH2\tCOOH",
			wantModified: true,
		},
		{
			name:         "parenthesised tag",
			line:         "3\t\tABC\tA(ox)BC\t1\tX\tNH2\tCOOH\t",
			wantModified: true,
		},
		{
			name:    "too few fields",
			line:    "4\t1\tPEPTIDE",
			wantErr: true,
		},
		{
			name:    "zero charge",
			line:    "5\t1\tPEPTIDE\tPEPTIDE\t0\tX\tNH2\tCOOH",
			wantErr: true,
		},
		{
			name:    "sequence mismatch",
			line:    "6\t1\tPEPTIDE\tPEPTIDEK\t2\tX\tNH2\tCOOH",
			wantErr: true,
		},
		{
			name:    "non-numeric id",
			line:    "abc\t1\tPEPTIDE\tPEPTIDE\t2\tX\tNH2\tCOOH",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseIdentificationLine(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIdentificationLine() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Errorf("expected ErrMalformedRecord, got %v", err)
				}
				return
			}
			if rec.IsModified() != tt.wantModified {
				t.Errorf("IsModified() = %v, want %v", rec.IsModified(), tt.wantModified)
			}
			if (rec.TotalIntensity != nil) != tt.wantTotal {
				t.Errorf("TotalIntensity set = %v, want %v", rec.TotalIntensity != nil, tt.wantTotal)
			}
			if (rec.SpectrumFileID != nil) != tt.wantSpectrum {
				t.Errorf("SpectrumFileID set = %v, want %v", rec.SpectrumFileID != nil, tt.wantSpectrum)
			}
		})
	}
}

func TestFormatIdentificationLineRoundTrip(t *testing.T) {
	line := "7\t3\tPEPMTIDE\tNH2-PEPM<Mox>TIDE-COOH\t2\tQTOF\tNH2\tCOOH\t42"
	rec, err := ParseIdentificationLine(line)
	if err != nil {
		t.Fatalf("ParseIdentificationLine() error = %v", err)
	}
	if got := FormatIdentificationLine(rec); got != line {
		t.Errorf("FormatIdentificationLine() = %q, want %q", got, line)
	}
}

func TestIdentificationDefaults(t *testing.T) {
	rec, err := NewIdentification(1, nil, " PEPTIDE ", "", 2, "X", "NH2", "COOH", nil)
	if err != nil {
		t.Fatalf("NewIdentification() error = %v", err)
	}
	if rec.ModifiedSequence != "PEPTIDE" {
		t.Errorf("expected modified sequence to default to sequence, got %q", rec.ModifiedSequence)
	}
	if rec.Length() != 7 {
		t.Errorf("Length() = %d, want 7", rec.Length())
	}
	if !strings.HasSuffix(rec.Name(), "/2") {
		t.Errorf("Name() = %q", rec.Name())
	}
}

func TestIdentificationLiteralParsesLazily(t *testing.T) {
	rec := &IdentificationRecord{Sequence: "ABC", ModifiedSequence: "A(ox)BC", Charge: 2}
	if !rec.IsModified() {
		t.Error("expected literal record to be modified")
	}
	if got := rec.Modifications(); len(got) != 1 || got[0] != "ox" {
		t.Errorf("Modifications() = %v", got)
	}
	if rec.Parsed() != rec.Parsed() {
		t.Error("Parsed() re-parsed a literal record")
	}
}
