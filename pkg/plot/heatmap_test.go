package plot

import (
	"errors"
	"math"
	"testing"
)

func TestBuildHeatMapMatrix(t *testing.T) {
	nan := math.NaN()
	profiles := []Profile{
		{Label: "PEPTIDE", B: []float64{nan, 1, 2, 3, 4, 5}, Y: []float64{nan, 5, 4, 3, 2, 1}},
		{Label: "PEPT<Pho>IDE", B: []float64{nan, 2, 4, 6, 8, 10}, Y: []float64{nan, 1, 2, 3, 4, 5}},
		{Label: "SHORT", B: []float64{nan, 1, nan}},
	}

	m, err := BuildHeatMapMatrix(profiles, -0.5, 1, FilterB, true)
	if err != nil {
		t.Fatalf("BuildHeatMapMatrix() error = %v", err)
	}
	if len(m.Cells) != 3 || len(m.Cells[0]) != 3 {
		t.Fatalf("matrix shape = %dx%d", len(m.Cells), len(m.Cells[0]))
	}

	cell := m.Cells[0][1]
	if cell.Value == nil || math.Abs(*cell.Value-1) > 1e-9 {
		t.Fatalf("b correlation = %v, want 1", cell.Value)
	}
	if cell.Colour != Red {
		t.Errorf("Colour = %q, want red", cell.Colour)
	}
	if cell.Points != 5 {
		t.Errorf("Points = %d, want 5", cell.Points)
	}
	if m.Cells[0][2].Value != nil {
		t.Error("rows sharing one bucket must not be correlated")
	}

	m, err = BuildHeatMapMatrix(profiles, -0.5, 1, FilterY, true)
	if err != nil {
		t.Fatalf("BuildHeatMapMatrix() error = %v", err)
	}
	cell = m.Cells[0][1]
	if cell.Value == nil || *cell.Value != -0.5 {
		t.Errorf("y correlation = %v, want clamped to -0.5", cell.Value)
	}
	if cell.Colour != Green {
		t.Errorf("Colour = %q, want green", cell.Colour)
	}
}

func TestBuildHeatMapMatrixWithoutSignificance(t *testing.T) {
	profiles := []Profile{
		{Label: "A", B: []float64{1, 2, 3}},
		{Label: "B", B: []float64{1, 3, 2}},
	}
	m, err := BuildHeatMapMatrix(profiles, -1, 1, FilterBoth, false)
	if err != nil {
		t.Fatalf("BuildHeatMapMatrix() error = %v", err)
	}
	if m.Cells[0][1].Colour != "" {
		t.Error("cells must not be coloured without the significance pass")
	}
	if m.Cells[0][1].PValue == nil {
		t.Error("p-value missing")
	}
}

func TestBuildHeatMapMatrixErrors(t *testing.T) {
	if _, err := BuildHeatMapMatrix(nil, -1, 1, FilterB, false); !errors.Is(err, ErrNoData) {
		t.Errorf("empty: error = %v, want ErrNoData", err)
	}
	if _, err := BuildHeatMapMatrix([]Profile{{Label: "A", B: []float64{1}}}, -1, 1, FilterB, false); !errors.Is(err, ErrNoData) {
		t.Errorf("too few points: error = %v, want ErrNoData", err)
	}
	if _, err := BuildHeatMapMatrix([]Profile{{Label: "A"}}, 1, -1, FilterB, false); err == nil {
		t.Error("inverted bounds accepted")
	}
}

func TestCorrelationPValue(t *testing.T) {
	// r = 0.6 over 12 pairs gives t = 2.372 with 10 degrees of freedom.
	if p := CorrelationPValue(0.6, 12); math.Abs(p-0.0392) > 2e-3 {
		t.Errorf("CorrelationPValue(0.6, 12) = %v, want about 0.0392", p)
	}
	if p := CorrelationPValue(0, 10); math.Abs(p-1) > 1e-9 {
		t.Errorf("CorrelationPValue(0, 10) = %v, want 1", p)
	}
	if p := CorrelationPValue(1, 10); p != 0 {
		t.Errorf("CorrelationPValue(1, 10) = %v, want 0", p)
	}
}
