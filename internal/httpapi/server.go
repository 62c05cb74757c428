// Package httpapi serves backtest results over HTTP: stored runs can be
// listed and fetched, and new backtests can be triggered against the bar
// store on demand.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"crossbt/internal/backtest"
	"crossbt/internal/batch"
	"crossbt/internal/dataset"
	"crossbt/internal/domain"
	"crossbt/internal/store"
)

// Server serves the backtest HTTP API.
type Server struct {
	results    store.ResultStore
	bars       store.BarStore // nil disables POST /api/backtest
	params     backtest.Params
	maxWorkers int
	log        *slog.Logger
}

// NewServer creates a new backtest API server. bars may be nil when no bar
// store is configured; on-demand backtests then return 503.
func NewServer(results store.ResultStore, bars store.BarStore, params backtest.Params, maxWorkers int, log *slog.Logger) *Server {
	return &Server{
		results:    results,
		bars:       bars,
		params:     params,
		maxWorkers: maxWorkers,
		log:        log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRun)
	mux.HandleFunc("GET /api/runs/{id}/{symbol}", s.handleRecord)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.results.ListRuns(r.Context())
	if err != nil {
		s.log.Error("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []string{}
	}
	writeJSON(w, RunsResponse{Runs: runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	records, err := s.results.GetRun(r.Context(), runID)
	if err != nil {
		s.log.Error("loading run", "run", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", runID))
		return
	}
	writeJSON(w, RunResponse{RunID: runID, Records: toJSONList(records)})
}

func (s *Server) handleRecord(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	symbol := strings.ToUpper(r.PathValue("symbol"))

	record, ok, err := s.results.GetRecord(r.Context(), runID, symbol)
	if err != nil {
		s.log.Error("loading record", "run", runID, "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load record")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no record for %s in run %s", symbol, runID))
		return
	}
	writeJSON(w, toJSON(record))
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	if s.bars == nil {
		writeError(w, http.StatusServiceUnavailable, "bar store not configured")
		return
	}

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Market == "" {
		req.Market = domain.MarketUS
	}

	start, end, err := parseDateRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols, err = s.bars.ListSymbols(r.Context(), req.Market)
		if err != nil {
			s.log.Error("listing symbols", "market", req.Market, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list symbols")
			return
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no symbols in market %s", req.Market))
		return
	}

	var bars []domain.Bar
	for _, symbol := range symbols {
		symbol = strings.ToUpper(symbol)
		sb, err := s.bars.ReadBars(r.Context(), symbol, req.Market, start, end)
		if err != nil {
			s.log.Warn("reading bars", "symbol", symbol, "error", err)
			continue
		}
		bars = append(bars, sb...)
	}
	if len(bars) == 0 {
		writeError(w, http.StatusNotFound, "no bars in the requested range")
		return
	}

	ds := dataset.FromBars(bars)
	records := batch.Run(r.Context(), ds, batch.Options{
		Params:     s.params,
		Sized:      req.Sized,
		MaxWorkers: s.maxWorkers,
		Log:        s.log,
	})

	runID := newRunID(req.Sized)
	if err := s.results.SaveRun(r.Context(), runID, records); err != nil {
		s.log.Error("saving run", "run", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save run")
		return
	}

	s.log.Info("backtest complete", "run", runID, "instruments", len(records))
	writeJSON(w, RunResponse{RunID: runID, Records: toJSONList(records)})
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	if startStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start date required")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", startStr)
	}
	end := time.Now().UTC()
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", endStr)
		}
		// Inclusive through the end date.
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date before start date")
	}
	return start, end, nil
}

func newRunID(sized bool) string {
	variant := "simple"
	if sized {
		variant = "sized"
	}
	return fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102-150405"), variant)
}
