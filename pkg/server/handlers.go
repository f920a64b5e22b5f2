package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/aggregate"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/filter"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/index"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/plot"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/search"
)

type searchRequest struct {
	Mode          string   `json:"mode"`
	Charge        int      `json:"charge"`
	Instruments   []string `json:"instruments"`
	NTerminal     string   `json:"nTerminal"`
	CTerminal     string   `json:"cTerminal"`
	Modifications []string `json:"modifications"`
	MinimumPairs  int      `json:"minimumPairs"`
}

type searchResponse struct {
	Mode       index.Mode          `json:"mode"`
	MatchCount int                 `json:"matchCount"`
	Scanned    int                 `json:"scanned"`
	Malformed  int                 `json:"malformed"`
	NoHits     bool                `json:"noHits"`
	Rows       []core.SelectionRow `json:"rows"`
}

type selectRequest struct {
	All  bool                `json:"all"`
	Rows []core.SelectionRow `json:"rows"`
}

type selectionResponse struct {
	Added int                 `json:"added"`
	Rows  []core.SelectionRow `json:"rows"`
}

type analysisRequest struct {
	Unit            string   `json:"unit"`
	Significance    string   `json:"significance"`
	Invert          bool     `json:"invert"`
	BubbleScale     *float64 `json:"bubbleScale"`
	Swap            bool     `json:"swap"`
	Lower           *float64 `json:"lower"`
	Upper           *float64 `json:"upper"`
	IonFilter       string   `json:"ionFilter"`
	SignificantOnly bool     `json:"significantOnly"`
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	mode, err := index.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	params := search.Params{
		Mode: mode,
		Criteria: filter.Criteria{
			Charge:        req.Charge,
			Instruments:   req.Instruments,
			NTerminal:     req.NTerminal,
			CTerminal:     req.CTerminal,
			Modifications: req.Modifications,
		},
		MinimumPairs: req.MinimumPairs,
	}
	if mode == index.ModificationSearch && params.MinimumPairs == 0 {
		params.MinimumPairs = s.pairs
	}
	if err := params.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	src, err := s.open(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	res, err := s.session.Search(r.Context(), src, params, nil)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Mode:       res.Mode,
		MatchCount: res.MatchCount,
		Scanned:    res.Scanned,
		Malformed:  res.Malformed,
		NoHits:     res.NoHits,
		Rows:       nonNilRows(res.Rows),
	})
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	res := s.session.Result()
	if res == nil {
		writeJSON(w, http.StatusOK, []core.SelectionRow{})
		return
	}
	writeJSON(w, http.StatusOK, nonNilRows(res.Rows))
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, nonNilRows(s.session.Selection()))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var added int
	var err error
	if req.All {
		added, err = s.session.SelectAll()
	} else {
		added, err = s.session.Select(req.Rows...)
	}
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Added: added, Rows: nonNilRows(s.session.Selection())})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.session.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, plot.Kinds())
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	kind, err := plot.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	var req analysisRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	opts, err := s.analysisOptions(req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.session.Run(r.Context(), kind, opts)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) analysisOptions(req analysisRequest) (analysis.Options, error) {
	opts := s.defaults

	if req.Unit != "" {
		unit, err := aggregate.ParseUnit(req.Unit)
		if err != nil {
			return opts, err
		}
		opts.Unit = unit
	}
	if req.Significance != "" {
		sig, err := core.ParseSignificanceSet(req.Significance)
		if err != nil {
			return opts, err
		}
		opts.Significance = sig
	}
	if req.IonFilter != "" {
		f, err := plot.ParseIonFilter(req.IonFilter)
		if err != nil {
			return opts, err
		}
		opts.IonFilter = f
	}
	if req.BubbleScale != nil {
		opts.BubbleScale = *req.BubbleScale
	}
	if req.Lower != nil {
		opts.HeatMapLower = *req.Lower
	}
	if req.Upper != nil {
		opts.HeatMapUpper = *req.Upper
	}
	opts.Invert = req.Invert
	opts.Swap = req.Swap
	opts.SignificantOnly = req.SignificantOnly
	return opts, nil
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	names, err := s.instruments.Instruments(r.Context())
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func nonNilRows(rows []core.SelectionRow) []core.SelectionRow {
	if rows == nil {
		return []core.SelectionRow{}
	}
	return rows
}
