// Package aggregate collects the fragment ions of a selection of
// identifications into the per-bucket and per-label value lists consumed by
// the plot builders.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/metrics"
)

// FragmentSource loads the fragment ions of one identification. A nil types
// slice requests every ion type.
type FragmentSource interface {
	FetchFragmentIons(ctx context.Context, identificationID int64, types []core.IonType) ([]core.FragmentIonRecord, error)
}

// PeakSource sums the peak intensities of one spectrum.
type PeakSource interface {
	FetchTotalIntensity(ctx context.Context, spectrumID int64) (float64, error)
}

// ProgressFunc receives the number of processed identifications and the total.
type ProgressFunc func(current, total int)

// Warning reports an inconsistent selection that was handled by a fallback.
type Warning struct {
	IdentificationID int64 // 0 for selection-wide warnings
	Message          string
}

func (w Warning) String() string {
	if w.IdentificationID == 0 {
		return w.Message
	}
	return fmt.Sprintf("identification %d: %s", w.IdentificationID, w.Message)
}

// Options configures an Aggregator.
type Options struct {
	// Normalize divides every fragment intensity by the total intensity of
	// its spectrum.
	Normalize bool
	// Workers > 1 fetches identifications concurrently.
	Workers  int
	Progress ProgressFunc
	// Mods resolves modification masses when a mass error has to be derived.
	Mods *core.ModDatabase
}

// Aggregator runs the fragment-ion analyses over a selection.
type Aggregator struct {
	fragments FragmentSource
	intensity *IntensityResolver
	opts      Options
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates an Aggregator. intensity is only used when opts.Normalize is
// set and m may be nil.
func New(fragments FragmentSource, intensity *IntensityResolver, m *metrics.Metrics, opts Options) *Aggregator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Mods == nil {
		opts.Mods = core.DefaultModDatabase()
	}
	return &Aggregator{
		fragments: fragments,
		intensity: intensity,
		opts:      opts,
		logger:    logger.WithComponent("aggregator"),
		metrics:   m,
	}
}

// fetch loads the fragment ions of rec after checking for cancellation.
func (a *Aggregator) fetch(ctx context.Context, rec *core.IdentificationRecord, types []core.IonType) ([]core.FragmentIonRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ions, err := a.fragments.FetchFragmentIons(ctx, rec.ID, types)
	a.metrics.ObserveFetch(err)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, core.ErrSourceUnavailable):
			return nil, err
		}
		return nil, core.NewSourceError("fragment ions", err)
	}
	return a.validIons(rec, ions), nil
}

// validIons drops ions whose position does not fit the peptide. The source
// slice is left untouched.
func (a *Aggregator) validIons(rec *core.IdentificationRecord, ions []core.FragmentIonRecord) []core.FragmentIonRecord {
	length := rec.Length()
	var out []core.FragmentIonRecord
	for i := range ions {
		err := ions[i].Validate(length)
		if err == nil {
			if out != nil {
				out = append(out, ions[i])
			}
			continue
		}
		if out == nil {
			out = make([]core.FragmentIonRecord, i, len(ions))
			copy(out, ions[:i])
		}
		a.logger.Warn("dropping invalid fragment ion", "identification", rec.ID, "ion", ions[i].Label(), "error", err)
	}
	if out == nil {
		return ions
	}
	return out
}

// each runs fn for every record and returns the results in selection order.
// With more than one worker the records are processed concurrently, each into
// its own result, and the caller merges them afterwards.
func each[T any](ctx context.Context, a *Aggregator, recs []*core.IdentificationRecord,
	fn func(ctx context.Context, rec *core.IdentificationRecord) (T, error)) ([]T, error) {

	results := make([]T, len(recs))

	var mu sync.Mutex
	done := 0
	report := func() {
		if a.opts.Progress == nil {
			return
		}
		mu.Lock()
		done++
		a.opts.Progress(done, len(recs))
		mu.Unlock()
	}

	if a.opts.Workers <= 1 {
		for i, rec := range recs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(ctx, rec)
			if err != nil {
				return nil, err
			}
			results[i] = r
			report()
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, rec)
			if err != nil {
				return err
			}
			results[i] = r
			report()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Prefer the caller's cancellation over the errgroup's derived one.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return results, nil
}
