package plot

import (
	"errors"
	"testing"
)

func TestBuildXYZSeries(t *testing.T) {
	in := []XYZSeries{
		{Name: "b", Points: []XYZPoint{{X: 100, Y: 0.01, Z: 50}}},
		{Name: "y"},
	}

	tests := []struct {
		name       string
		opts       XYZOptions
		want       XYZPoint
		wantXLabel string
	}{
		{"plain", XYZOptions{XLabel: "m/z", YLabel: "error"}, XYZPoint{X: 100, Y: 0.01, Z: 50}, "m/z"},
		{"bubble scale", XYZOptions{XLabel: "m/z", Scale: 0.1}, XYZPoint{X: 100, Y: 0.01, Z: 5}, "m/z"},
		{"swap", XYZOptions{XLabel: "m/z", YLabel: "error", Swap: true}, XYZPoint{X: 0.01, Y: 100, Z: 50}, "error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := BuildXYZSeries(MassErrorBubble, in, tt.opts)
			if err != nil {
				t.Fatalf("BuildXYZSeries() error = %v", err)
			}
			if len(d.Series) != 1 {
				t.Fatalf("len(Series) = %d, want empty series dropped", len(d.Series))
			}
			if got := d.Series[0].Points[0]; got != tt.want {
				t.Errorf("point = %+v, want %+v", got, tt.want)
			}
			if d.XLabel != tt.wantXLabel {
				t.Errorf("XLabel = %q, want %q", d.XLabel, tt.wantXLabel)
			}
		})
	}

	if in[0].Points[0].Z != 50 {
		t.Error("input series modified")
	}
}

func TestBuildXYZSeriesNoData(t *testing.T) {
	if _, err := BuildXYZSeries(MassErrorScatter, []XYZSeries{{Name: "b"}}, XYZOptions{}); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}
