package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/cache"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/metrics"
)

// ErrNoTotalIntensity is returned when a record carries no total intensity and
// has no spectrum to compute it from.
var ErrNoTotalIntensity = errors.New("total intensity unavailable")

// IntensityResolver returns the total spectrum intensity of an identification,
// computing it from the peak list on demand. Computed totals are cached per
// spectrum and concurrent requests for the same spectrum share one fetch.
type IntensityResolver struct {
	peaks   PeakSource
	cache   cache.Store
	group   singleflight.Group
	metrics *metrics.Metrics
}

// NewIntensityResolver creates a resolver. A nil store gets a fresh memory
// cache, so each resolver is a per-run cache unless a shared store is given.
func NewIntensityResolver(peaks PeakSource, store cache.Store, m *metrics.Metrics) *IntensityResolver {
	if store == nil {
		store = cache.NewMemory()
	}
	return &IntensityResolver{
		peaks:   peaks,
		cache:   store,
		metrics: m,
	}
}

// Resolve returns the stored total intensity of rec or sums its spectrum.
func (r *IntensityResolver) Resolve(ctx context.Context, rec *core.IdentificationRecord) (float64, error) {
	if rec.TotalIntensity != nil {
		return *rec.TotalIntensity, nil
	}
	if rec.SpectrumFileID == nil || r.peaks == nil {
		return 0, fmt.Errorf("identification %d: %w", rec.ID, ErrNoTotalIntensity)
	}

	id := *rec.SpectrumFileID
	if v, ok := r.cache.Get(ctx, id); ok {
		r.metrics.ObserveCache(true)
		return v, nil
	}
	r.metrics.ObserveCache(false)

	v, err, _ := r.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		if v, ok := r.cache.Get(ctx, id); ok {
			return v, nil
		}
		total, err := r.peaks.FetchTotalIntensity(ctx, id)
		if err != nil {
			return nil, err
		}
		r.cache.Set(ctx, id, total)
		return total, nil
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, fmt.Errorf("identification %d: spectrum %d: %w", rec.ID, id, ErrNoTotalIntensity)
		}
		if errors.Is(err, core.ErrSourceUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, core.NewSourceError("spectra", err)
	}
	return v.(float64), nil
}
