package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// residueIonTypes are the series compared on the residue axis.
var residueIonTypes = []core.IonType{core.IonB, core.IonY}

// Profile is the bucketed intensity of one identification. Index k holds the
// summed intensity of bucket k, zero when nothing was observed. Bucket 0 is
// never populated.
type Profile struct {
	IdentificationID int64
	Length           int
	B                []float64
	Y                []float64
}

// ResidueIntensities holds the non-null b- and y-ion intensities of a
// selection per residue bucket.
type ResidueIntensities struct {
	Sequence string // first identification, used for category labels
	Length   int    // common peptide length after truncation
	B        [][]float64
	Y        [][]float64
	Profiles []*Profile
	Warnings []Warning
}

// Labels returns the category label of every bucket, e.g. "K4".
func (r *ResidueIntensities) Labels() []string {
	labels := make([]string, r.Length)
	for k := range labels {
		labels[k] = core.ResidueLabel(r.Sequence, k)
	}
	return labels
}

// Empty reports whether no bucket holds a value.
func (r *ResidueIntensities) Empty() bool {
	for k := range r.B {
		if len(r.B[k]) > 0 || len(r.Y[k]) > 0 {
			return false
		}
	}
	return true
}

// Average returns the mean of every bucket of the given series, NaN where the
// bucket is empty.
func (r *ResidueIntensities) Average(t core.IonType) []float64 {
	values := r.B
	if t == core.IonY {
		values = r.Y
	}
	out := make([]float64, len(values))
	for k, v := range values {
		m, ok := Mean(v)
		if !ok {
			m = math.NaN()
		}
		out[k] = m
	}
	return out
}

type profileResult struct {
	profile *Profile
	warning *Warning
}

// ResidueIntensities aggregates the b- and y-ion intensities of recs by residue
// bucket. A selection mixing peptide lengths is truncated to the shortest one
// and reported as a warning. Identifications whose total intensity cannot be
// resolved are skipped with a warning when normalising.
func (a *Aggregator) ResidueIntensities(ctx context.Context, recs []*core.IdentificationRecord) (*ResidueIntensities, error) {
	start := time.Now()
	defer a.metrics.ObserveAggregation("residue-intensities", start)

	res := &ResidueIntensities{}
	if len(recs) == 0 {
		return res, nil
	}
	res.Sequence = recs[0].Sequence
	res.Length = recs[0].Length()

	mixed := false
	for _, rec := range recs[1:] {
		if l := rec.Length(); l != res.Length {
			mixed = true
			res.Length = min(res.Length, l)
		}
	}
	if mixed {
		w := Warning{Message: fmt.Sprintf("selection mixes peptide lengths, truncating to the shortest length %d", res.Length)}
		res.Warnings = append(res.Warnings, w)
		a.logger.Warn("inconsistent selection", "warning", w.Message, "identifications", len(recs))
	}
	for _, rec := range recs {
		if rec.Length() == res.Length {
			res.Sequence = rec.Sequence
			break
		}
	}

	results, err := each(ctx, a, recs, a.profile)
	if err != nil {
		return nil, err
	}

	res.B = make([][]float64, res.Length)
	res.Y = make([][]float64, res.Length)
	for _, r := range results {
		if r.warning != nil {
			res.Warnings = append(res.Warnings, *r.warning)
			continue
		}
		res.Profiles = append(res.Profiles, r.profile)
		for k := 1; k < res.Length; k++ {
			if v := r.profile.B[k]; v > 0 {
				res.B[k] = append(res.B[k], v)
			}
			if v := r.profile.Y[k]; v > 0 {
				res.Y[k] = append(res.Y[k], v)
			}
		}
	}

	a.logger.Debug("residue intensities aggregated",
		"identifications", len(recs),
		"profiles", len(res.Profiles),
		"length", res.Length,
		"normalized", a.opts.Normalize,
	)
	return res, nil
}

// profile buckets the b- and y-ion intensities of one identification into a
// freshly allocated profile.
func (a *Aggregator) profile(ctx context.Context, rec *core.IdentificationRecord) (profileResult, error) {
	total := 1.0
	if a.opts.Normalize {
		if a.intensity == nil {
			return profileResult{}, fmt.Errorf("normalisation requested without an intensity resolver")
		}
		t, err := a.intensity.Resolve(ctx, rec)
		if err != nil {
			if errors.Is(err, ErrNoTotalIntensity) {
				return skip(rec, "no total intensity, excluded from normalised aggregation"), nil
			}
			return profileResult{}, err
		}
		if t <= 0 {
			return skip(rec, "total intensity is zero, excluded from normalised aggregation"), nil
		}
		total = t
	}

	ions, err := a.fetch(ctx, rec, residueIonTypes)
	if err != nil {
		return profileResult{}, err
	}

	length := rec.Length()
	p := &Profile{
		IdentificationID: rec.ID,
		Length:           length,
		B:                make([]float64, length),
		Y:                make([]float64, length),
	}
	for _, ion := range ions {
		// Only singly charged b and y ions without a neutral loss count.
		if ion.NeutralLoss != "" || ion.Charge > 1 || (ion.Type != core.IonB && ion.Type != core.IonY) {
			continue
		}
		bucket, ok := BucketFor(ion.Type, length, ion.Number)
		if !ok {
			a.logger.Debug("ion outside peptide", "identification", rec.ID, "ion", ion.Label(), "length", length)
			continue
		}
		v := ion.Intensity / total
		if ion.Type == core.IonB {
			p.B[bucket] += v
		} else {
			p.Y[bucket] += v
		}
	}
	return profileResult{profile: p}, nil
}

func skip(rec *core.IdentificationRecord, msg string) profileResult {
	return profileResult{warning: &Warning{IdentificationID: rec.ID, Message: msg}}
}
