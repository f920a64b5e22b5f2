package aggregate

import (
	"context"
	"sort"
	"time"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// IonProbabilities counts how many identifications show each ion series at
// each bucket. Every series and bucket counts at most once per identification.
type IonProbabilities struct {
	Invert              bool
	SequenceDependent   map[string][]int // series label -> count per bucket
	SequenceIndependent map[string]int   // ion label -> count
	Lengths             map[int]int      // peptide length -> number of spectra
	Spectra             int
	MaxLength           int
}

// Denominator returns the number of spectra whose peptide is longer than k
// residues, the only ones that can carry a fragment at bucket k.
func (p *IonProbabilities) Denominator(k int) int {
	n := 0
	for length, count := range p.Lengths {
		if length > k {
			n += count
		}
	}
	return n
}

// Labels returns the sequence-dependent series labels in sorted order.
func (p *IonProbabilities) Labels() []string {
	labels := make([]string, 0, len(p.SequenceDependent))
	for l := range p.SequenceDependent {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// Empty reports whether no fragment ion was counted.
func (p *IonProbabilities) Empty() bool {
	return len(p.SequenceDependent) == 0 && len(p.SequenceIndependent) == 0
}

type occurrence struct {
	length      int
	dependent   map[string]map[int]struct{}
	independent map[string]struct{}
}

// IonProbabilities counts fragment ion occurrences over recs. With invert set,
// C-terminal ions are flipped onto the residue axis of the N-terminal ones.
func (a *Aggregator) IonProbabilities(ctx context.Context, recs []*core.IdentificationRecord, invert bool) (*IonProbabilities, error) {
	start := time.Now()
	defer a.metrics.ObserveAggregation("ion-probabilities", start)

	results, err := each(ctx, a, recs, func(ctx context.Context, rec *core.IdentificationRecord) (occurrence, error) {
		ions, err := a.fetch(ctx, rec, nil)
		if err != nil {
			return occurrence{}, err
		}
		occ := occurrence{
			length:      rec.Length(),
			dependent:   make(map[string]map[int]struct{}),
			independent: make(map[string]struct{}),
		}
		for _, ion := range ions {
			if !ion.IsSequenceDependent() {
				occ.independent[ion.Label()] = struct{}{}
				continue
			}
			bucket, ok := ion.Number, ion.Number < occ.length
			if invert {
				bucket, ok = BucketFor(ion.Type, occ.length, ion.Number)
			}
			if !ok {
				continue
			}
			label := ion.SeriesLabel()
			if occ.dependent[label] == nil {
				occ.dependent[label] = make(map[int]struct{})
			}
			occ.dependent[label][bucket] = struct{}{}
		}
		return occ, nil
	})
	if err != nil {
		return nil, err
	}

	p := &IonProbabilities{
		Invert:              invert,
		SequenceDependent:   make(map[string][]int),
		SequenceIndependent: make(map[string]int),
		Lengths:             make(map[int]int),
	}
	for _, occ := range results {
		p.Spectra++
		p.Lengths[occ.length]++
		p.MaxLength = max(p.MaxLength, occ.length)
	}
	for _, occ := range results {
		for label, buckets := range occ.dependent {
			counts := p.SequenceDependent[label]
			if counts == nil {
				counts = make([]int, p.MaxLength)
				p.SequenceDependent[label] = counts
			}
			for k := range buckets {
				counts[k]++
			}
		}
		for label := range occ.independent {
			p.SequenceIndependent[label]++
		}
	}

	a.logger.Debug("ion probabilities aggregated",
		"identifications", len(recs),
		"series", len(p.SequenceDependent),
		"other", len(p.SequenceIndependent),
		"invert", invert,
	)
	return p, nil
}
