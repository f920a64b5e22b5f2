package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/cache"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
)

type failingPeaks struct{}

func (failingPeaks) FetchTotalIntensity(context.Context, int64) (float64, error) {
	return 0, errors.New("connection refused")
}

func TestIntensityResolver(t *testing.T) {
	ctx := context.Background()
	peaks := &fakePeaks{totals: map[int64]float64{5: 250}}
	store := cache.NewMemory()
	r := NewIntensityResolver(peaks, store, nil)

	stored := ident(t, 1, 5, "ACDK", "ACDK", floatPtr(99))
	if v, err := r.Resolve(ctx, stored); err != nil || v != 99 {
		t.Errorf("Resolve(stored) = %v, %v; want 99", v, err)
	}
	if peaks.calls != 0 {
		t.Error("stored total intensity must not hit the peak source")
	}

	computed := ident(t, 2, 5, "ACDK", "ACDK", nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := r.Resolve(ctx, computed); err != nil || v != 250 {
				t.Errorf("Resolve(computed) = %v, %v; want 250", v, err)
			}
		}()
	}
	wg.Wait()
	if peaks.calls != 1 {
		t.Errorf("peak source calls = %d, want 1", peaks.calls)
	}
	if store.Len() != 1 {
		t.Errorf("cache size = %d, want 1", store.Len())
	}
}

func TestIntensityResolverErrors(t *testing.T) {
	ctx := context.Background()

	unlinked, err := core.NewIdentification(3, nil, "ACDK", "ACDK", 2, "X", "", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIntensityResolver(&fakePeaks{}, nil, nil).Resolve(ctx, unlinked); !errors.Is(err, ErrNoTotalIntensity) {
		t.Errorf("unlinked: error = %v, want ErrNoTotalIntensity", err)
	}

	missing := ident(t, 4, 77, "ACDK", "ACDK", nil)
	if _, err := NewIntensityResolver(&fakePeaks{}, nil, nil).Resolve(ctx, missing); !errors.Is(err, ErrNoTotalIntensity) {
		t.Errorf("missing spectrum: error = %v, want ErrNoTotalIntensity", err)
	}

	if _, err := NewIntensityResolver(failingPeaks{}, nil, nil).Resolve(ctx, missing); !errors.Is(err, core.ErrSourceUnavailable) {
		t.Errorf("failing source: error = %v, want ErrSourceUnavailable", err)
	}
}
