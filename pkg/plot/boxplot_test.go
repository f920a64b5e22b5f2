package plot

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single", []float64{4}, 0.25, 4},
		{"q1 of four", []float64{1, 2, 3, 4}, 0.25, 1.75},
		{"median of four", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"q3 of four", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"median of five", []float64{1, 2, 3, 4, 100}, 0.5, 3},
		{"max", []float64{1, 2, 3}, 1, 3},
		{"min", []float64{1, 2, 3}, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Quantile(tt.sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Error("Quantile of empty list should be NaN")
	}
}

func TestSummarizeMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(40)
		values := make([]float64, n)
		for j := range values {
			values[j] = rng.NormFloat64() * 100
		}
		s, ok := Summarize(values)
		if !ok {
			t.Fatal("Summarize of non-empty list reported no data")
		}
		if !(s.Min <= s.Q1 && s.Q1 <= s.Median && s.Median <= s.Q3 && s.Q3 <= s.Max) {
			t.Fatalf("non-monotonic summary %+v for %v", s, values)
		}
		if s.Mean < s.Min || s.Mean > s.Max || s.Count != n {
			t.Fatalf("mean or count out of range: %+v", s)
		}
	}
}

func TestSummarizeDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Summarize(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input modified: %v", values)
	}
}

func TestBuildBoxPlotDataset(t *testing.T) {
	series := []SeriesValues{
		{Name: "b", Categories: []string{"P1", "E2", "P3"}, Values: [][]float64{{1, 2}, nil, {5}}},
		{Name: "y", Categories: []string{"P1", "E2", "P3"}, Values: [][]float64{{4}, {2, 6}, nil}},
	}
	d, err := BuildBoxPlotDataset(IntensityBoxPlot, series)
	if err != nil {
		t.Fatalf("BuildBoxPlotDataset() error = %v", err)
	}
	if d.PlotKind() != IntensityBoxPlot {
		t.Errorf("PlotKind() = %v", d.PlotKind())
	}
	if len(d.Items) != 4 {
		t.Fatalf("len(Items) = %d, want 4", len(d.Items))
	}
	wantCategories := []string{"P1", "P3", "E2"}
	for i, c := range wantCategories {
		if d.Categories[i] != c {
			t.Errorf("Categories = %v, want %v", d.Categories, wantCategories)
			break
		}
	}
	if d.Items[0].Stats.Mean != 1.5 {
		t.Errorf("first item mean = %v, want 1.5", d.Items[0].Stats.Mean)
	}
}

func TestBuildBoxPlotDatasetNoData(t *testing.T) {
	_, err := BuildBoxPlotDataset(MassErrorBoxPlot, []SeriesValues{{Name: "b", Categories: []string{"x"}, Values: [][]float64{nil}}})
	if !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
	if _, err := BuildBoxPlotDataset(MassErrorBoxPlot, nil); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestBuildBoxPlotDatasetMismatch(t *testing.T) {
	_, err := BuildBoxPlotDataset(IntensityBoxPlot, []SeriesValues{{Name: "b", Categories: []string{"x", "y"}, Values: [][]float64{{1}}}})
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want a shape error", err)
	}
}
