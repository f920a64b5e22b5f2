package plot

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BoxStats is the five-number summary of a value list plus its mean.
type BoxStats struct {
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Count  int     `json:"count" yaml:"count"`
}

// Quantile returns the p-quantile of sorted values, interpolating linearly
// between the closest ranks. This is the R type 7 / spreadsheet definition.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Summarize computes the box statistics of values. ok is false for an empty list.
func Summarize(values []float64) (BoxStats, bool) {
	if len(values) == 0 {
		return BoxStats{}, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return BoxStats{
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Mean:   stat.Mean(sorted, nil),
		Count:  len(sorted),
	}, true
}

// SeriesValues is one series of a category plot: Values[i] belongs to
// Categories[i].
type SeriesValues struct {
	Name       string
	Categories []string
	Values     [][]float64
}

// BoxItem is the summary of one (series, category) pair.
type BoxItem struct {
	Series   string   `json:"series" yaml:"series"`
	Category string   `json:"category" yaml:"category"`
	Stats    BoxStats `json:"stats" yaml:"stats"`
}

// BoxPlotDataset is a category dataset of box summaries.
type BoxPlotDataset struct {
	Kind       Kind      `json:"kind" yaml:"kind"`
	Series     []string  `json:"series" yaml:"series"`
	Categories []string  `json:"categories" yaml:"categories"`
	Items      []BoxItem `json:"items" yaml:"items"`
}

func (d *BoxPlotDataset) PlotKind() Kind { return d.Kind }

// BuildBoxPlotDataset summarises every non-empty (series, category) pair.
// Categories keep their first appearance order across series.
func BuildBoxPlotDataset(kind Kind, series []SeriesValues) (*BoxPlotDataset, error) {
	d := &BoxPlotDataset{Kind: kind}
	seenCategory := make(map[string]bool)

	for _, s := range series {
		if len(s.Categories) != len(s.Values) {
			return nil, fmt.Errorf("series %s has %d categories but %d value lists", s.Name, len(s.Categories), len(s.Values))
		}
		added := false
		for i, category := range s.Categories {
			stats, ok := Summarize(s.Values[i])
			if !ok {
				continue
			}
			d.Items = append(d.Items, BoxItem{Series: s.Name, Category: category, Stats: stats})
			if !seenCategory[category] {
				seenCategory[category] = true
				d.Categories = append(d.Categories, category)
			}
			added = true
		}
		if added {
			d.Series = append(d.Series, s.Name)
		}
	}

	if len(d.Items) == 0 {
		return nil, ErrNoData
	}
	return d, nil
}
