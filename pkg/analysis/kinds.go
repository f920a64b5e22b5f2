package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/aggregate"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/plot"
)

func (s *Session) intensityBoxPlot(ctx context.Context, idx *index.Index, rows []core.SelectionRow, report *Report) error {
	recs := records(idx, rows)
	report.Identifications = len(recs)

	ri, err := s.aggregator.ResidueIntensities(ctx, recs)
	if err != nil {
		return err
	}
	report.Warnings = append(report.Warnings, warningStrings(ri.Warnings)...)

	labels := ri.Labels()
	d, err := plot.BuildBoxPlotDataset(plot.IntensityBoxPlot, []plot.SeriesValues{
		{Name: "b", Categories: labels, Values: ri.B},
		{Name: "y", Categories: labels, Values: ri.Y},
	})
	if err != nil {
		return err
	}
	report.Dataset = d
	return nil
}

// modificationBoxPlot compares the unmodified members of the selected rows
// with their modified variants.
func (s *Session) modificationBoxPlot(ctx context.Context, idx *index.Index, rows []core.SelectionRow, report *Report) error {
	if idx.Mode() != index.ModificationSearch {
		return fmt.Errorf("%w: %s requires a %s search", ErrWrongMode, plot.ModificationBoxPlot, index.ModificationSearch)
	}

	seen := make(map[int64]bool)
	var unmodified, modified []*core.IdentificationRecord
	for _, row := range rows {
		primary, secondary := idx.Lookup(row)
		for _, rec := range primary {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				unmodified = append(unmodified, rec)
			}
		}
		for _, rec := range secondary {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				modified = append(modified, rec)
			}
		}
	}
	report.Identifications = len(unmodified) + len(modified)

	base, err := s.aggregator.ResidueIntensities(ctx, unmodified)
	if err != nil {
		return err
	}
	variant, err := s.aggregator.ResidueIntensities(ctx, modified)
	if err != nil {
		return err
	}
	report.Warnings = append(report.Warnings, warningStrings(base.Warnings)...)
	report.Warnings = append(report.Warnings, warningStrings(variant.Warnings)...)

	d, err := plot.BuildBoxPlotDataset(plot.ModificationBoxPlot, []plot.SeriesValues{
		{Name: "b unmodified", Categories: base.Labels(), Values: base.B},
		{Name: "y unmodified", Categories: base.Labels(), Values: base.Y},
		{Name: "b modified", Categories: variant.Labels(), Values: variant.B},
		{Name: "y modified", Categories: variant.Labels(), Values: variant.Y},
	})
	if err != nil {
		return err
	}
	report.Dataset = d
	return nil
}

func (s *Session) massErrors(ctx context.Context, kind plot.Kind, idx *index.Index, rows []core.SelectionRow, opts Options, report *Report) error {
	recs := records(idx, rows)
	report.Identifications = len(recs)

	me, err := s.aggregator.MassErrors(ctx, recs, opts.Unit, opts.Significance)
	if err != nil {
		return err
	}
	if me.Empty() {
		return plot.ErrNoData
	}

	if kind == plot.MassErrorBoxPlot {
		values := make([][]float64, len(me.Labels))
		for i, label := range me.Labels {
			values[i] = me.Values[label]
		}
		d, err := plot.BuildBoxPlotDataset(kind, []plot.SeriesValues{
			{Name: "mass error (" + me.Unit.String() + ")", Categories: me.Labels, Values: values},
		})
		if err != nil {
			return err
		}
		report.Dataset = d
		return nil
	}

	xyz := plot.XYZOptions{
		XLabel: "m/z",
		YLabel: "mass error (" + me.Unit.String() + ")",
		Swap:   opts.Swap,
	}
	if kind == plot.MassErrorBubble {
		xyz.Scale = opts.BubbleScale
	}
	d, err := plot.BuildXYZSeries(kind, groupPoints(me.Points), xyz)
	if err != nil {
		return err
	}
	report.Dataset = d
	return nil
}

// groupPoints splits mass-error points into one series per ion letter plus
// one for sequence-independent ions, in order of first appearance.
func groupPoints(points []aggregate.MassErrorPoint) []plot.XYZSeries {
	var order []string
	groups := make(map[string][]plot.XYZPoint)
	for _, p := range points {
		name := seriesName(p.Label)
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], plot.XYZPoint{X: p.MZ, Y: p.Error, Z: p.Intensity})
	}

	out := make([]plot.XYZSeries, len(order))
	for i, name := range order {
		out[i] = plot.XYZSeries{Name: name, Points: groups[name]}
	}
	return out
}

func seriesName(label string) string {
	if len(label) > 1 && label[1] >= '0' && label[1] <= '9' {
		if _, err := core.ParseIonType(label[:1]); err == nil {
			return label[:1]
		}
	}
	return "other"
}

func (s *Session) ionProbability(ctx context.Context, idx *index.Index, rows []core.SelectionRow, opts Options, report *Report) error {
	recs := records(idx, rows)
	report.Identifications = len(recs)

	p, err := s.aggregator.IonProbabilities(ctx, recs, opts.Invert)
	if err != nil {
		return err
	}
	if p.Empty() {
		return plot.ErrNoData
	}

	other := plot.OtherPercentages(p.SequenceIndependent, p.Spectra)
	d, err := plot.BuildLinePlotSeries(p.SequenceDependent, p.Lengths)
	switch {
	case errors.Is(err, plot.ErrNoData) && len(other) > 0:
		d = &plot.LineDataset{Kind: plot.IonProbability}
	case err != nil:
		return err
	}
	d.Other = other
	report.Dataset = d
	return nil
}

// heatMap correlates the averaged intensity profile of every selected row.
// In a modification search the modified variant stands for its row.
func (s *Session) heatMap(ctx context.Context, idx *index.Index, rows []core.SelectionRow, opts Options, report *Report) error {
	var profiles []plot.Profile
	for _, row := range rows {
		primary, secondary := idx.Lookup(row)
		recs := primary
		if idx.Mode() == index.ModificationSearch {
			recs = secondary
		}
		report.Identifications += len(recs)

		ri, err := s.aggregator.ResidueIntensities(ctx, recs)
		if err != nil {
			return err
		}
		report.Warnings = append(report.Warnings, warningStrings(ri.Warnings)...)
		if ri.Empty() {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: no b or y intensities", row.ModifiedSequence))
			continue
		}
		profiles = append(profiles, plot.Profile{
			Label: row.ModifiedSequence,
			B:     ri.Average(core.IonB),
			Y:     ri.Average(core.IonY),
		})
	}

	filter := opts.IonFilter
	if filter == "" {
		filter = plot.FilterBoth
	}
	d, err := plot.BuildHeatMapMatrix(profiles, opts.HeatMapLower, opts.HeatMapUpper, filter, opts.SignificantOnly)
	if err != nil {
		return err
	}
	report.Dataset = d
	return nil
}
