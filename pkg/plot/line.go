package plot

import "sort"

// LinePoint is the occurrence percentage of a series at one bucket.
type LinePoint struct {
	Bucket  int     `json:"bucket" yaml:"bucket"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// LineSeries is the occurrence curve of one ion series.
type LineSeries struct {
	Label  string      `json:"label" yaml:"label"`
	Points []LinePoint `json:"points" yaml:"points"`
}

// CategoryPercent is the occurrence percentage of a sequence-independent ion.
type CategoryPercent struct {
	Label   string  `json:"label" yaml:"label"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// LineDataset is an ion-probability dataset.
type LineDataset struct {
	Kind   Kind              `json:"kind" yaml:"kind"`
	Series []LineSeries      `json:"series" yaml:"series"`
	Other  []CategoryPercent `json:"other,omitempty" yaml:"other,omitempty"`
}

func (d *LineDataset) PlotKind() Kind { return d.Kind }

// Denominators returns, for every bucket below size, the number of spectra
// whose peptide is longer than the bucket index.
func Denominators(lengths map[int]int, size int) []int {
	out := make([]int, size)
	for length, count := range lengths {
		for k := 0; k < size && k < length; k++ {
			out[k] += count
		}
	}
	return out
}

// BuildLinePlotSeries converts per-bucket occurrence counts into percentages
// of the spectra that are long enough to contain each bucket. lengths maps a
// peptide length to its number of spectra. Series are sorted by label.
func BuildLinePlotSeries(counts map[string][]int, lengths map[int]int) (*LineDataset, error) {
	size := 0
	for _, c := range counts {
		size = max(size, len(c))
	}
	denominators := Denominators(lengths, size)

	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	d := &LineDataset{Kind: IonProbability}
	for _, label := range labels {
		s := LineSeries{Label: label}
		for k, count := range counts[label] {
			if k == 0 || denominators[k] == 0 {
				continue
			}
			s.Points = append(s.Points, LinePoint{
				Bucket:  k,
				Percent: 100 * float64(count) / float64(denominators[k]),
			})
		}
		if len(s.Points) > 0 {
			d.Series = append(d.Series, s)
		}
	}

	if len(d.Series) == 0 {
		return nil, ErrNoData
	}
	return d, nil
}

// OtherPercentages converts sequence-independent ion counts into percentages
// of all spectra, sorted by label.
func OtherPercentages(counts map[string]int, spectra int) []CategoryPercent {
	if spectra == 0 {
		return nil
	}
	out := make([]CategoryPercent, 0, len(counts))
	for label, count := range counts {
		out = append(out, CategoryPercent{Label: label, Percent: 100 * float64(count) / float64(spectra)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}
