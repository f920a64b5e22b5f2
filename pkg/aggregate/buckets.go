package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

// BucketFor returns the residue-position bucket of a backbone ion of a
// peptide of length L. N-terminal ions keep their number and C-terminal ions
// are flipped so that both sides of the same bond share a bucket. ok is false
// for sequence-independent ions and numbers outside [1, L).
func BucketFor(t core.IonType, length, number int) (bucket int, ok bool) {
	if number < 1 || number >= length {
		return 0, false
	}
	switch {
	case t.IsNTerminal():
		return number, true
	case t.IsCTerminal():
		return FlipBucket(length, number), true
	}
	return 0, false
}

// FlipBucket maps C-terminal ion number n to bucket L - n. It is its own inverse.
func FlipBucket(length, n int) int {
	return length - n
}

// NonNull returns the strictly positive values in their original order.
// Zero intensities mark unobserved fragments.
func NonNull(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the arithmetic mean of the non-null values and false when
// there are none.
func Mean(values []float64) (float64, bool) {
	nn := NonNull(values)
	if len(nn) == 0 {
		return 0, false
	}
	return stat.Mean(nn, nil), true
}
