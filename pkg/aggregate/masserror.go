package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// Unit is the unit mass errors are reported in.
type Unit int

const (
	Dalton Unit = iota
	PPM
)

func (u Unit) String() string {
	if u == PPM {
		return "ppm"
	}
	return "Da"
}

// ParseUnit parses "da" or "ppm".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "da", "dalton":
		return Dalton, nil
	case "ppm":
		return PPM, nil
	}
	return 0, fmt.Errorf("unknown mass error unit %q, must be da or ppm", s)
}

// MassErrorPoint is one fragment ion on the m/z versus error plane.
type MassErrorPoint struct {
	Label     string
	MZ        float64
	Error     float64
	Intensity float64
}

// MassErrors holds the signed mass errors of a selection grouped by fragment
// ion label.
type MassErrors struct {
	Unit    Unit
	Labels  []string // sorted
	Values  map[string][]float64
	Points  []MassErrorPoint
	Derived int // errors computed from the theoretical m/z
}

// Empty reports whether no fragment ion contributed.
func (m *MassErrors) Empty() bool {
	return len(m.Points) == 0
}

type massErrorResult struct {
	points  []MassErrorPoint
	derived int
}

// MassErrors extracts the mass error of every fragment ion of recs whose
// significance tier is selected. Missing mass errors are derived from the
// theoretical fragment m/z; ions for which that fails are skipped.
func (a *Aggregator) MassErrors(ctx context.Context, recs []*core.IdentificationRecord, unit Unit, sig core.SignificanceSet) (*MassErrors, error) {
	start := time.Now()
	defer a.metrics.ObserveAggregation("mass-errors", start)

	results, err := each(ctx, a, recs, func(ctx context.Context, rec *core.IdentificationRecord) (massErrorResult, error) {
		ions, err := a.fetch(ctx, rec, nil)
		if err != nil {
			return massErrorResult{}, err
		}
		var r massErrorResult
		for _, ion := range ions {
			if !sig.Allows(ion.Significance) {
				continue
			}
			errDa := ion.MassError
			if !ion.HasMassError() {
				theoretical, err := core.TheoreticalFragmentMZ(rec.Parsed(), ion.Type, ion.Number, ion.Charge, ion.NeutralLoss, a.opts.Mods)
				if err != nil {
					a.logger.Debug("cannot derive mass error", "identification", rec.ID, "ion", ion.Label(), "error", err)
					continue
				}
				errDa = ion.MZ - theoretical
				r.derived++
			}
			value := errDa
			if unit == PPM {
				value = errDa / ion.MZ * 1e6
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}
			r.points = append(r.points, MassErrorPoint{
				Label:     ion.Label(),
				MZ:        ion.MZ,
				Error:     value,
				Intensity: ion.Intensity,
			})
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	out := &MassErrors{
		Unit:   unit,
		Values: make(map[string][]float64),
	}
	for _, r := range results {
		out.Derived += r.derived
		for _, p := range r.points {
			if _, ok := out.Values[p.Label]; !ok {
				out.Labels = append(out.Labels, p.Label)
			}
			out.Values[p.Label] = append(out.Values[p.Label], p.Error)
			out.Points = append(out.Points, p)
		}
	}
	sort.Strings(out.Labels)

	a.logger.Debug("mass errors aggregated",
		"identifications", len(recs),
		"ions", len(out.Points),
		"labels", len(out.Labels),
		"derived", out.Derived,
		"unit", unit,
	)
	return out, nil
}
