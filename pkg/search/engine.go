// Package search filters a stream of identification records into an
// identification index and synthesises the selection rows shown to the user.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/filter"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/metrics"
)

// Source is a sequential stream of identification records.
type Source interface {
	// Next advances to the next record. It returns false at the end of the
	// stream or on a fatal error.
	Next() bool
	// Record returns the current record, or an error wrapping
	// core.ErrMalformedRecord when the current line could not be parsed.
	Record() (*core.IdentificationRecord, error)
	// Total returns the record count announced by the source, 0 if unknown.
	Total() int
	// Err returns the fatal error that stopped the stream, if any.
	Err() error
}

// ProgressFunc receives the number of processed records and the announced total.
type ProgressFunc func(current, total int)

// Params configures one search.
type Params struct {
	Mode         index.Mode
	Criteria     filter.Criteria
	MinimumPairs int // modification search only, must be >= 1
}

// Validate checks the parameters before any record is read.
func (p *Params) Validate() error {
	if err := p.Criteria.Validate(); err != nil {
		return err
	}
	if p.Mode == index.ModificationSearch && p.MinimumPairs < 1 {
		return fmt.Errorf("minimum number of modification pairs must be at least 1, got %d", p.MinimumPairs)
	}
	return nil
}

// Result is the outcome of one search. Index is nil when NoHits is set.
type Result struct {
	Mode       index.Mode
	Index      *index.Index
	Rows       []core.SelectionRow
	MatchCount int
	Scanned    int
	Malformed  int
	NoHits     bool
}

// Engine runs searches. It holds no state between searches.
type Engine struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates a search engine. m may be nil.
func NewEngine(m *metrics.Metrics) *Engine {
	return &Engine{
		logger:  logger.WithComponent("search"),
		metrics: m,
	}
}

// Search reads every record from src, keeps those passing the active filters
// and groups them into a fresh index. Malformed records are skipped. A fatal
// source error aborts the search and no index is returned. On cancellation the
// context error is returned together with the partial result, which callers
// are expected to discard.
func (e *Engine) Search(ctx context.Context, src Source, params Params, progress ProgressFunc) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Mode:  params.Mode,
		Index: index.New(params.Mode),
	}
	// The modification predicate is deferred to row synthesis in modification mode.
	withModification := params.Mode == index.GeneralSearch
	total := src.Total()

	for src.Next() {
		if err := ctx.Err(); err != nil {
			e.observe(params.Mode, "cancelled", res)
			return res, err
		}

		res.Scanned++
		if progress != nil {
			progress(res.Scanned, total)
		}
		rec, err := src.Record()
		if err != nil {
			if !errors.Is(err, core.ErrMalformedRecord) {
				e.observe(params.Mode, "error", res)
				return nil, wrapSource(err)
			}
			res.Malformed++
			e.logger.Warn("skipping malformed identification", "record", res.Scanned, "error", err)
			continue
		}

		if !params.Criteria.Matches(rec, withModification) {
			continue
		}
		res.Index.Insert(rec)
		res.MatchCount++
	}

	if err := src.Err(); err != nil {
		e.observe(params.Mode, "error", res)
		return nil, wrapSource(err)
	}

	if res.MatchCount == 0 {
		res.Index = nil
		res.NoHits = true
		e.observe(params.Mode, "no_hits", res)
		e.logger.Info("search found no hits", "mode", params.Mode, "filters", params.Criteria.String(), "scanned", res.Scanned)
		return res, nil
	}

	rows, err := BuildRows(ctx, res.Index, params)
	res.Rows = rows
	if err != nil {
		e.observe(params.Mode, "cancelled", res)
		return res, err
	}

	e.observe(params.Mode, "hits", res)
	e.logger.Info("search complete",
		"mode", params.Mode,
		"filters", params.Criteria.String(),
		"scanned", res.Scanned,
		"matched", res.MatchCount,
		"malformed", res.Malformed,
		"groups", res.Index.Len(),
		"rows", len(res.Rows),
	)
	return res, nil
}

func (e *Engine) observe(mode index.Mode, outcome string, res *Result) {
	e.metrics.ObserveSearch(mode.String(), outcome, res.Scanned, res.MatchCount, res.Malformed)
}

func wrapSource(err error) error {
	if errors.Is(err, core.ErrSourceUnavailable) {
		return err
	}
	return core.NewSourceError("identifications", err)
}

// BuildRows synthesises the selection rows of an index and sorts them by
// descending CountA, keeping insertion order among ties.
func BuildRows(ctx context.Context, idx *index.Index, params Params) ([]core.SelectionRow, error) {
	var rows []core.SelectionRow

	for _, key := range idx.Keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bucket := idx.Bucket(key)
		switch idx.Mode() {
		case index.GeneralSearch:
			rows = append(rows, core.SelectionRow{
				Sequence:         bucket[0].Sequence,
				ModifiedSequence: key,
				Length:           bucket[0].Length(),
				CountA:           len(bucket),
			})
		case index.ModificationSearch:
			rows = append(rows, modificationRows(bucket, params)...)
		}
	}

	SortRows(rows)
	return rows, nil
}

// modificationRows pairs the unmodified members of a bucket with each modified
// variant that carries a selected modification.
func modificationRows(bucket []*core.IdentificationRecord, params Params) []core.SelectionRow {
	unmodified := 0
	var variants []string
	members := make(map[string][]*core.IdentificationRecord)

	for _, rec := range bucket {
		if !rec.IsModified() {
			unmodified++
			continue
		}
		if _, ok := members[rec.ModifiedSequence]; !ok {
			variants = append(variants, rec.ModifiedSequence)
		}
		members[rec.ModifiedSequence] = append(members[rec.ModifiedSequence], rec)
	}

	if unmodified < params.MinimumPairs {
		return nil
	}

	var rows []core.SelectionRow
	for _, variant := range variants {
		recs := members[variant]
		if !params.Criteria.MatchesModification(recs[0], true) {
			continue
		}
		modified := len(recs)
		if modified < params.MinimumPairs {
			continue
		}
		rows = append(rows, core.SelectionRow{
			Sequence:         recs[0].Sequence,
			ModifiedSequence: variant,
			Length:           recs[0].Length(),
			CountA:           unmodified,
			CountB:           &modified,
		})
	}
	return rows
}

// SortRows is a stable sort by descending CountA.
func SortRows(rows []core.SelectionRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CountA > rows[j].CountA
	})
}
