// Package analysis ties a search result, the user's row selection and the
// fragment aggregator together and produces plot datasets.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/aggregate"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/plot"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/search"
)

var (
	// ErrNoSearch is returned when rows are selected or analysed before a
	// search produced hits.
	ErrNoSearch = errors.New("no search result")
	// ErrEmptySelection is returned by Run when no row is selected.
	ErrEmptySelection = errors.New("no rows selected")
	// ErrUnknownRow is returned by Select for rows the current result does not hold.
	ErrUnknownRow = errors.New("row not in search result")
	// ErrWrongMode is returned for analyses the current search mode cannot feed.
	ErrWrongMode = errors.New("analysis not available for this search mode")
)

// Options are the per-run analysis settings.
type Options struct {
	Unit         aggregate.Unit
	Significance core.SignificanceSet
	// Invert flips y-ion positions in the ion-probability analysis.
	Invert          bool
	BubbleScale     float64
	Swap            bool
	HeatMapLower    float64
	HeatMapUpper    float64
	IonFilter       plot.IonFilter
	SignificantOnly bool
}

// DefaultOptions returns the settings used when a caller does not override them.
func DefaultOptions() Options {
	return Options{
		Unit:         aggregate.Dalton,
		Significance: core.AllSignificance,
		BubbleScale:  1,
		HeatMapLower: -1,
		HeatMapUpper: 1,
		IonFilter:    plot.FilterBoth,
	}
}

// Report is the outcome of one analysis run.
type Report struct {
	RunID           string              `json:"runId" yaml:"runId"`
	Kind            plot.Kind           `json:"kind" yaml:"kind"`
	Rows            []core.SelectionRow `json:"rows" yaml:"rows"`
	Identifications int                 `json:"identifications" yaml:"identifications"`
	Dataset         plot.Dataset        `json:"dataset" yaml:"dataset"`
	Warnings        []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Duration        time.Duration       `json:"duration" yaml:"duration"`
}

// Session holds the state of one interactive analysis: the latest search
// result and the rows selected from it. A new search replaces both.
type Session struct {
	mu         sync.Mutex
	engine     *search.Engine
	aggregator *aggregate.Aggregator
	result     *search.Result
	params     search.Params
	selection  core.Selection
	logger     *slog.Logger
}

// NewSession creates an empty session.
func NewSession(engine *search.Engine, aggregator *aggregate.Aggregator) *Session {
	return &Session{
		engine:     engine,
		aggregator: aggregator,
		logger:     logger.WithComponent("analysis"),
	}
}

// Search runs a search and replaces the session's result and selection. On
// error the previous state is kept.
func (s *Session) Search(ctx context.Context, src search.Source, params search.Params, progress search.ProgressFunc) (*search.Result, error) {
	res, err := s.engine.Search(ctx, src, params, progress)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	s.params = params
	s.selection.Clear()
	return res, nil
}

// Result returns the current search result, nil before the first search.
func (s *Session) Result() *search.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Select adds rows of the current result to the selection and returns how
// many were new.
func (s *Session) Select(rows ...core.SelectionRow) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil || s.result.NoHits {
		return 0, ErrNoSearch
	}
	for _, row := range rows {
		if !containsRow(s.result.Rows, row) {
			return 0, fmt.Errorf("%w: %s", ErrUnknownRow, row)
		}
	}
	return s.selection.Add(rows...), nil
}

// SelectAll selects every row of the current result.
func (s *Session) SelectAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil || s.result.NoHits {
		return 0, ErrNoSearch
	}
	return s.selection.Add(s.result.Rows...), nil
}

// Selection returns the selected rows in selection order.
func (s *Session) Selection() []core.SelectionRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Rows()
}

// ClearSelection drops every selected row.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// Run aggregates the selected rows and builds the dataset of the given kind.
func (s *Session) Run(ctx context.Context, kind plot.Kind, opts Options) (*Report, error) {
	s.mu.Lock()
	res := s.result
	rows := s.selection.Rows()
	s.mu.Unlock()

	if res == nil || res.NoHits {
		return nil, ErrNoSearch
	}
	if len(rows) == 0 {
		return nil, ErrEmptySelection
	}

	start := time.Now()
	report := &Report{
		RunID: uuid.NewString(),
		Kind:  kind,
		Rows:  rows,
	}
	log := s.logger.With("run", report.RunID, "kind", kind)

	var err error
	switch kind {
	case plot.IntensityBoxPlot:
		err = s.intensityBoxPlot(ctx, res.Index, rows, report)
	case plot.ModificationBoxPlot:
		err = s.modificationBoxPlot(ctx, res.Index, rows, report)
	case plot.MassErrorBoxPlot, plot.MassErrorScatter, plot.MassErrorBubble:
		err = s.massErrors(ctx, kind, res.Index, rows, opts, report)
	case plot.IonProbability:
		err = s.ionProbability(ctx, res.Index, rows, opts, report)
	case plot.HeatMap:
		err = s.heatMap(ctx, res.Index, rows, opts, report)
	default:
		err = fmt.Errorf("unknown plot kind %d", kind)
	}
	if err != nil {
		log.Warn("analysis failed", "rows", len(rows), "error", err)
		return nil, err
	}

	report.Duration = time.Since(start)
	for _, w := range report.Warnings {
		log.Warn("inconsistent selection", "warning", w)
	}
	log.Info("analysis complete",
		"rows", len(rows),
		"identifications", report.Identifications,
		"duration", report.Duration,
	)
	return report, nil
}

// records collects the identifications behind rows without duplicates, in
// selection order.
func records(idx *index.Index, rows []core.SelectionRow) []*core.IdentificationRecord {
	seen := make(map[int64]bool)
	var out []*core.IdentificationRecord
	add := func(recs []*core.IdentificationRecord) {
		for _, rec := range recs {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				out = append(out, rec)
			}
		}
	}
	for _, row := range rows {
		primary, secondary := idx.Lookup(row)
		add(primary)
		add(secondary)
	}
	return out
}

func containsRow(rows []core.SelectionRow, row core.SelectionRow) bool {
	for _, r := range rows {
		if r.Equal(row) {
			return true
		}
	}
	return false
}

func warningStrings(ws []aggregate.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}
