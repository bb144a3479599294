package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/quantfolio/internal/charts"
	"github.com/aristath/quantfolio/internal/history"
	"github.com/aristath/quantfolio/internal/optimization"
	"github.com/aristath/quantfolio/internal/returns"
)

type optimizeRequest struct {
	NumTrials    *int     `json:"numTrials,omitempty"`
	RiskFreeRate *float64 `json:"riskFreeRate,omitempty"`
	Freq         *int     `json:"freq,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePortfolio returns the full statistics summary of the loaded
// portfolio, warnings included.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	summary, err := s.cfg.Portfolio.Summarize(s.cfg.RiskFreeRate, s.cfg.Freq)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	png, err := charts.RenderGrowth(s.cfg.Portfolio.Table())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondPNG(w, png)
}

// handleOptimize runs a Monte Carlo search over the loaded portfolio's price
// table and persists the result. The response carries the winners but not
// the full trial list; fetch a stored run for that.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, err)
			return
		}
	}

	opt := s.optimizerFor(req)

	weights, err := s.cfg.Portfolio.Weights()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	result, err := opt.Run(r.Context(), s.cfg.Portfolio.Table(), weights)
	if err != nil {
		if errors.Is(err, optimization.ErrInvalidTrials) || errors.Is(err, returns.ErrInvalidFreq) {
			s.respondError(w, http.StatusBadRequest, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.cfg.RunStore.SaveRun(r.Context(), result); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	trimmed := *result
	trimmed.Trials = nil
	s.respondJSON(w, http.StatusCreated, &trimmed)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.cfg.RunStore.ListRuns(r.Context(), 50)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []history.RunSummary{}
	}
	s.respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	result, err := s.cfg.RunStore.LoadRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRunChart(w http.ResponseWriter, r *http.Request) {
	result, err := s.cfg.RunStore.LoadRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, err)
			return
		}
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	png, err := charts.RenderFrontier(result)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondPNG(w, png)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) respondPNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.log.Error().Err(err).Msg("Failed to write chart response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("Request failed")
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
