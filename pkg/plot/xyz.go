package plot

// XYZPoint is one point of a scatter or bubble plot.
type XYZPoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// XYZSeries is a named group of points.
type XYZSeries struct {
	Name   string     `json:"name" yaml:"name"`
	Points []XYZPoint `json:"points" yaml:"points"`
}

// XYZOptions controls how raw (m/z, error, intensity) triples are presented.
type XYZOptions struct {
	XLabel string
	YLabel string
	// Scale multiplies z. Zero leaves z unchanged.
	Scale float64
	// Swap exchanges x and y, including the axis labels.
	Swap bool
}

// XYZDataset is a scatter or bubble dataset.
type XYZDataset struct {
	Kind   Kind        `json:"kind" yaml:"kind"`
	XLabel string      `json:"xLabel" yaml:"xLabel"`
	YLabel string      `json:"yLabel" yaml:"yLabel"`
	Series []XYZSeries `json:"series" yaml:"series"`
}

func (d *XYZDataset) PlotKind() Kind { return d.Kind }

// BuildXYZSeries copies the input series applying the bubble scale and the
// optional axis swap. Empty series are dropped.
func BuildXYZSeries(kind Kind, series []XYZSeries, opts XYZOptions) (*XYZDataset, error) {
	d := &XYZDataset{
		Kind:   kind,
		XLabel: opts.XLabel,
		YLabel: opts.YLabel,
	}
	if opts.Swap {
		d.XLabel, d.YLabel = d.YLabel, d.XLabel
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		out := XYZSeries{Name: s.Name, Points: make([]XYZPoint, len(s.Points))}
		for i, p := range s.Points {
			if opts.Swap {
				p.X, p.Y = p.Y, p.X
			}
			p.Z *= scale
			out.Points[i] = p
		}
		d.Series = append(d.Series, out)
	}

	if len(d.Series) == 0 {
		return nil, ErrNoData
	}
	return d, nil
}
