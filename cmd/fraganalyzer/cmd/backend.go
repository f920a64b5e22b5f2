package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/aggregate"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/cache"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/reader/fragments"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/reader/identifications"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/reader/peaks"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/search"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/server"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/store"
)

// backend bundles the collaborators of one command run.
type backend struct {
	open        server.OpenFunc
	fragments   aggregate.FragmentSource
	peaks       aggregate.PeakSource
	instruments server.InstrumentLister
	closers     []func() error
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
}

// openBackend uses the flat files when --identifications is given and the
// configured database otherwise.
func openBackend(ctx context.Context) (*backend, error) {
	if identificationsFile != "" {
		return openFlatFiles()
	}

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	b := &backend{
		open: func(ctx context.Context) (search.Source, error) {
			return db.Identifications(ctx)
		},
		fragments:   db,
		peaks:       db,
		instruments: db,
	}
	b.closers = append(b.closers, db.Close)
	return b, nil
}

func openFlatFiles() (*backend, error) {
	if fragmentsFile == "" {
		return nil, fmt.Errorf("--fragments is required with --identifications")
	}
	if _, err := os.Stat(identificationsFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("identification file does not exist: %s", identificationsFile)
	}

	frags, err := fragments.LoadFile(fragmentsFile)
	if err != nil {
		return nil, err
	}
	if n := frags.Malformed(); n > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d malformed fragment ion lines\n", n)
	}

	b := &backend{
		open: func(ctx context.Context) (search.Source, error) {
			return identifications.Open(identificationsFile)
		},
		fragments: frags,
	}
	if peaksFile != "" {
		p, err := peaks.LoadFile(peaksFile)
		if err != nil {
			return nil, err
		}
		b.peaks = p
	}
	return b, nil
}

// newSession builds the search engine and aggregator from the config. The
// total-intensity cache is layered over Redis when it is enabled.
func newSession(b *backend) (*analysis.Session, error) {
	var shared cache.Store
	if cfg.Redis.Enabled {
		r, err := cache.Dial(cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, r.Close)
		shared = r
	}
	resolver := aggregate.NewIntensityResolver(b.peaks, cache.NewTiered(cache.NewMemory(), shared), appMetrics)

	agg := aggregate.New(b.fragments, resolver, appMetrics, aggregate.Options{
		Normalize: cfg.Analysis.Normalize,
		Workers:   cfg.Analysis.Workers,
		Mods:      mods,
	})
	return analysis.NewSession(search.NewEngine(appMetrics), agg), nil
}
