// Package server exposes search and analysis runs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/analysis"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/config"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/logger"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/metrics"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/plot"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/search"
)

// OpenFunc opens a fresh identification stream for one search. Sources that
// implement io.Closer are closed once the search finishes.
type OpenFunc func(ctx context.Context) (search.Source, error)

// InstrumentLister returns the instrument names known to the backing source.
type InstrumentLister interface {
	Instruments(ctx context.Context) ([]string, error)
}

// Options wires the server to its collaborators. Metrics and Instruments may
// be nil.
type Options struct {
	Open        OpenFunc
	Session     *analysis.Session
	Metrics     *metrics.Metrics
	Instruments InstrumentLister
	Defaults    analysis.Options
	// MinimumPairs applies to modification searches that do not set one.
	MinimumPairs int
}

type Server struct {
	router      chi.Router
	open        OpenFunc
	session     *analysis.Session
	metrics     *metrics.Metrics
	instruments InstrumentLister
	defaults    analysis.Options
	pairs       int
	logger      *slog.Logger
}

// New builds the router.
func New(opts Options) (*Server, error) {
	if opts.Open == nil {
		return nil, fmt.Errorf("identification source required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("analysis session required")
	}
	s := &Server{
		router:      chi.NewRouter(),
		open:        opts.Open,
		session:     opts.Session,
		metrics:     opts.Metrics,
		instruments: opts.Instruments,
		defaults:    opts.Defaults,
		pairs:       opts.MinimumPairs,
		logger:      logger.WithComponent("server"),
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/rows", s.handleRows)
		r.Get("/selection", s.handleSelection)
		r.Post("/selection", s.handleSelect)
		r.Delete("/selection", s.handleClearSelection)
		r.Get("/analyses", s.handleKinds)
		r.Post("/analyses/{kind}", s.handleAnalysis)
		if s.instruments != nil {
			r.Get("/instruments", s.handleInstruments)
		}
	})
}

// ListenAndServe serves until ctx is cancelled and then shuts down within
// cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var validation *core.ValidationError
	switch {
	case errors.Is(err, analysis.ErrNoSearch), errors.Is(err, analysis.ErrEmptySelection):
		return http.StatusConflict
	case errors.Is(err, analysis.ErrUnknownRow), errors.Is(err, analysis.ErrWrongMode), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, plot.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrSourceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
