package plot

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Alpha is the significance level of the correlation test.
const Alpha = 0.05

// minCorrelationPoints is the smallest number of shared buckets a correlation
// is computed from.
const minCorrelationPoints = 3

// IonFilter selects which series of a profile enter the correlation.
type IonFilter string

const (
	FilterB    IonFilter = "b"
	FilterY    IonFilter = "y"
	FilterBoth IonFilter = "by"
)

// ParseIonFilter parses "b", "y" or "by".
func ParseIonFilter(s string) (IonFilter, error) {
	switch f := IonFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterB, FilterY, FilterBoth:
		return f, nil
	case "":
		return FilterBoth, nil
	}
	return "", fmt.Errorf("unknown ion type filter %q, must be b, y or by", s)
}

// Profile is the averaged per-bucket intensity of one selection row. NaN
// marks an empty bucket.
type Profile struct {
	Label string
	B     []float64
	Y     []float64
}

func (p Profile) series(f IonFilter) [][]float64 {
	switch f {
	case FilterB:
		return [][]float64{p.B}
	case FilterY:
		return [][]float64{p.Y}
	}
	return [][]float64{p.B, p.Y}
}

// Colour flags a heat-map cell in the significance pass.
type Colour string

const (
	Red   Colour = "red"   // significant positive correlation
	Green Colour = "green" // not significant
)

// HeatMapCell is one correlation. Value and PValue are nil when the two rows
// share too few buckets.
type HeatMapCell struct {
	Value  *float64 `json:"value" yaml:"value"`
	PValue *float64 `json:"pValue,omitempty" yaml:"pValue,omitempty"`
	Points int      `json:"points" yaml:"points"`
	Colour Colour   `json:"colour,omitempty" yaml:"colour,omitempty"`
}

// HeatMapMatrix is the square correlation grid of the selected rows.
type HeatMapMatrix struct {
	Kind            Kind            `json:"kind" yaml:"kind"`
	Labels          []string        `json:"labels" yaml:"labels"`
	Cells           [][]HeatMapCell `json:"cells" yaml:"cells"`
	Lower           float64         `json:"lower" yaml:"lower"`
	Upper           float64         `json:"upper" yaml:"upper"`
	IonFilter       IonFilter       `json:"ionFilter" yaml:"ionFilter"`
	SignificantOnly bool            `json:"significantOnly" yaml:"significantOnly"`
}

func (m *HeatMapMatrix) PlotKind() Kind { return m.Kind }

// BuildHeatMapMatrix correlates the averaged profiles pairwise over the
// buckets both rows observed. Values are clamped to [lower, upper]. With
// significantOnly set, every cell is coloured red for a significant positive
// correlation at Alpha and green otherwise.
func BuildHeatMapMatrix(profiles []Profile, lower, upper float64, filter IonFilter, significantOnly bool) (*HeatMapMatrix, error) {
	if lower >= upper {
		return nil, fmt.Errorf("heat map lower bound %g must be below upper bound %g", lower, upper)
	}
	if len(profiles) == 0 {
		return nil, ErrNoData
	}

	m := &HeatMapMatrix{
		Kind:            HeatMap,
		Lower:           lower,
		Upper:           upper,
		IonFilter:       filter,
		SignificantOnly: significantOnly,
		Cells:           make([][]HeatMapCell, len(profiles)),
	}
	series := make([][][]float64, len(profiles))
	for i, p := range profiles {
		m.Labels = append(m.Labels, p.Label)
		series[i] = p.series(filter)
	}

	filled := 0
	for i := range profiles {
		m.Cells[i] = make([]HeatMapCell, len(profiles))
		for j := range profiles {
			cell := correlate(series[i], series[j])
			if cell.Value != nil {
				filled++
				clamped := math.Min(math.Max(*cell.Value, lower), upper)
				if significantOnly {
					cell.Colour = Green
					if *cell.Value > 0 && *cell.PValue < Alpha {
						cell.Colour = Red
					}
				}
				cell.Value = &clamped
			}
			m.Cells[i][j] = cell
		}
	}

	if filled == 0 {
		return nil, ErrNoData
	}
	return m, nil
}

// correlate computes the Pearson correlation of the buckets present in both
// rows, pairing each series with the same series of the other row, and its
// two-sided p-value from the t distribution.
func correlate(a, b [][]float64) HeatMapCell {
	var xs, ys []float64
	for s := range a {
		x, y := a[s], b[s]
		for k := 0; k < min(len(x), len(y)); k++ {
			if math.IsNaN(x[k]) || math.IsNaN(y[k]) {
				continue
			}
			xs = append(xs, x[k])
			ys = append(ys, y[k])
		}
	}

	cell := HeatMapCell{Points: len(xs)}
	if len(xs) < minCorrelationPoints {
		return cell
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return cell
	}
	p := CorrelationPValue(r, len(xs))
	cell.Value = &r
	cell.PValue = &p
	return cell
}

// CorrelationPValue returns the two-sided p-value of a Pearson correlation r
// computed from n pairs.
func CorrelationPValue(r float64, n int) float64 {
	df := float64(n - 2)
	if df <= 0 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}
