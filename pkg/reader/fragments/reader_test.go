package fragments

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    core.FragmentIonRecord
		wantErr bool
	}{
		{
			name: "b ion with mass error",
			line: "7\tb\t3\t300.5\t1200\t0.002",
			want: core.FragmentIonRecord{IdentificationID: 7, Type: core.IonB, Number: 3, Charge: 1, MZ: 300.5, Intensity: 1200, MassError: 0.002},
		},
		{
			name: "y water loss doubly charged",
			line: "7\ty-H2O++\t4\t250.1\t80",
			want: core.FragmentIonRecord{IdentificationID: 7, Type: core.IonY, Number: 4, Charge: 2, NeutralLoss: "-H2O", MZ: 250.1, Intensity: 80, MassError: math.NaN()},
		},
		{
			name: "number in name",
			line: "7\tb2^2\t0\t120\t10\tnull",
			want: core.FragmentIonRecord{IdentificationID: 7, Type: core.IonB, Number: 2, Charge: 2, MZ: 120, Intensity: 10, MassError: math.NaN()},
		},
		{
			name: "precursor",
			line: "7\tPrec\t5\t600\t10",
			want: core.FragmentIonRecord{IdentificationID: 7, Type: core.IonOther, Name: "Prec", Charge: 1, MZ: 600, Intensity: 10, MassError: math.NaN()},
		},
		{name: "backbone ion without position", line: "7\tb\t0\t300\t1", wantErr: true},
		{name: "too few fields", line: "7\tb\t1", wantErr: true},
		{name: "bad intensity", line: "7\tb\t1\t300\tlots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				if !errors.Is(err, core.ErrMalformedRecord) {
					t.Errorf("ParseLine() error = %v, want ErrMalformedRecord", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLine() error = %v", err)
			}
			if got.HasMassError() != tt.want.HasMassError() {
				t.Errorf("HasMassError() = %v, want %v", got.HasMassError(), tt.want.HasMassError())
			}
			got.MassError, tt.want.MassError = 0, 0
			if got != tt.want {
				t.Errorf("ParseLine() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSource(t *testing.T) {
	input := strings.Join([]string{
		"5",
		"1\tb\t1\t98.06\t100",
		"1\ty\t2\t250\t200",
		"1\tPrec++\t0\t400\t50",
		"2\ty\t1\t148\t10",
		"oops",
		"",
	}, "\n")

	src, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if src.Len() != 4 || src.Malformed() != 1 || src.Identifications() != 2 {
		t.Errorf("Len = %d, Malformed = %d, Identifications = %d", src.Len(), src.Malformed(), src.Identifications())
	}

	ctx := context.Background()
	all, err := src.FetchFragmentIons(ctx, 1, nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("FetchFragmentIons(1, nil) = %d ions, %v", len(all), err)
	}
	bOnly, _ := src.FetchFragmentIons(ctx, 1, []core.IonType{core.IonB})
	if len(bOnly) != 1 || bOnly[0].Type != core.IonB {
		t.Errorf("FetchFragmentIons(1, b) = %+v", bOnly)
	}
	for _, ion := range all {
		if ion.Significance != core.SignificanceUnknown {
			t.Errorf("flat file ion has significance %v", ion.Significance)
		}
	}
	none, err := src.FetchFragmentIons(ctx, 99, nil)
	if err != nil || len(none) != 0 {
		t.Errorf("FetchFragmentIons(99) = %v, %v", none, err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.tsv"))
	if !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("LoadFile() error = %v, want ErrSourceUnavailable", err)
	}
}
