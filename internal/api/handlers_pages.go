package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	series := s.presenter.Series()
	data := IndexData{
		Query:       strings.TrimSpace(r.URL.Query().Get("q")),
		SeriesStart: series.Start(),
		SeriesEnd:   series.End(),
		SeriesDays:  len(series),
	}

	status := http.StatusOK
	if data.Query != "" {
		result, err := s.presenter.Present(r.Context(), data.Query)
		if err != nil {
			status = statusFor(err)
			data.Error = err.Error()
		} else {
			data.Result = result
			s.results.Set(data.Query, result)
			data.ChartURL = "/chart.png?q=" + url.QueryEscape(result.Query.Input)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("template error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	series := s.presenter.Series()
	health := HealthStatus{
		Status:     "ok",
		SeriesDays: len(series),
		CheckedAt:  time.Now().UTC(),
	}
	if len(series) > 0 {
		health.SeriesStart = series.Start().Format("2006-01-02")
		health.SeriesEnd = series.End().Format("2006-01-02")
	} else {
		health.Status = "degraded"
	}

	if s.store != nil {
		stats, err := s.store.GetStats()
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}
		health.SchemaVersion = stats.SchemaVersion
		health.IngestRuns = stats.IngestRuns
		health.FailedIngests = stats.FailedIngestRuns
		health.Requests = stats.ForecastRequests

		if err := s.fillLatest(&health); err != nil {
			log.Printf("health: %v", err)
			health.Status = "degraded"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

func (s *Server) fillLatest(health *HealthStatus) error {
	req, err := s.store.GetLatestForecastRequest()
	if err != nil {
		return fmt.Errorf("latest forecast request: %w", err)
	}
	if req != nil {
		health.LastRequest = &RequestSummary{
			Input:       req.Input,
			Mode:        req.Mode,
			Success:     req.Success,
			Error:       req.ErrorMessage.String,
			RequestedAt: req.RequestedAt,
		}
	}

	runs, err := s.store.GetRecentIngestRuns(1)
	if err != nil {
		return fmt.Errorf("recent ingest runs: %w", err)
	}
	if len(runs) > 0 {
		health.LastIngest = &IngestSummary{
			Source:     runs[0].Source,
			RecordDate: runs[0].RecordDate,
			Success:    runs[0].Success,
			Error:      runs[0].ErrorMessage.String,
			StartedAt:  runs[0].StartedAt,
		}
	}
	return nil
}
