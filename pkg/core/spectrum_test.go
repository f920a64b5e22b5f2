package core

import (
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				ID: 1,
				Peaks: []Peak{
					{MZ: 100.0, Intensity: 1000.0},
					{MZ: 200.0, Intensity: 2000.0},
				},
			},
			wantErr: false,
		},
		{
			name:    "empty peak list",
			spec:    &Spectrum{ID: 2},
			wantErr: false,
		},
		{
			name: "negative intensity",
			spec: &Spectrum{
				Peaks: []Peak{
					{MZ: 100.0, Intensity: -1.0},
				},
			},
			wantErr: true,
		},
		{
			name: "unsorted peaks",
			spec: &Spectrum{
				Peaks: []Peak{
					{MZ: 200.0, Intensity: 2000.0},
					{MZ: 100.0, Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Peaks: []Peak{
					{MZ: math.NaN(), Intensity: 1000.0},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSortPeaks(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 300.0, Intensity: 100.0},
			{MZ: 100.0, Intensity: 200.0},
			{MZ: 200.0, Intensity: 150.0},
		},
	}

	spec.SortPeaks()

	expected := []float64{100.0, 200.0, 300.0}
	for i, peak := range spec.Peaks {
		if peak.MZ != expected[i] {
			t.Errorf("Peak %d: expected m/z %.1f, got %.1f", i, expected[i], peak.MZ)
		}
	}
}

func TestTotalIntensity(t *testing.T) {
	spec := &Spectrum{
		Peaks: []Peak{
			{MZ: 100.0, Intensity: 200.0},
			{MZ: 200.0, Intensity: 150.5},
			{MZ: 300.0, Intensity: 0},
		},
	}

	if got := spec.TotalIntensity(); math.Abs(got-350.5) > 1e-9 {
		t.Errorf("Expected total intensity 350.5, got %f", got)
	}
}
