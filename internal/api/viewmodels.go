package api

import (
	"time"

	"github.com/lox/gridcast/internal/forecast"
	"github.com/lox/gridcast/internal/models"
)

// IndexData is the view model for the index page.
type IndexData struct {
	Query       string
	Result      *forecast.Result
	Error       string
	ChartURL    string
	SeriesStart time.Time
	SeriesEnd   time.Time
	SeriesDays  int
}

// ForecastResponse is the JSON body of /api/forecast.
type ForecastResponse struct {
	Input     string                 `json:"input"`
	Mode      forecast.Mode          `json:"mode"`
	Title     string                 `json:"title"`
	Cutoff    string                 `json:"cutoff"`
	History   []models.ForecastPoint `json:"history,omitempty"`
	Forecast  []models.ForecastPoint `json:"forecast"`
	Change    *float64               `json:"change,omitempty"`
	Verdict   forecast.Verdict       `json:"verdict,omitempty"`
	Summary   string                 `json:"summary,omitempty"`
	Narrative string                 `json:"narrative,omitempty"`
}

func newForecastResponse(r *forecast.Result) ForecastResponse {
	resp := ForecastResponse{
		Input:     r.Query.Input,
		Mode:      r.Query.Mode,
		Title:     r.Title,
		Cutoff:    r.View.Cutoff.Format("2006-01-02"),
		Forecast:  r.Forecast,
		Verdict:   r.Verdict,
		Summary:   r.Summary,
		Narrative: r.Narrative,
	}
	if r.View.HasHistory {
		resp.History = r.HistoryPoints()
		change := r.Change
		resp.Change = &change
	}
	return resp
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthStatus struct {
	Status        string          `json:"status"`
	SeriesStart   string          `json:"series_start,omitempty"`
	SeriesEnd     string          `json:"series_end,omitempty"`
	SeriesDays    int             `json:"series_days"`
	SchemaVersion int             `json:"schema_version,omitempty"`
	IngestRuns    int             `json:"ingest_runs"`
	FailedIngests int             `json:"failed_ingest_runs"`
	Requests      int             `json:"forecast_requests"`
	LastRequest   *RequestSummary `json:"last_request,omitempty"`
	LastIngest    *IngestSummary  `json:"last_ingest,omitempty"`
	CheckedAt     time.Time       `json:"checked_at"`
}

type RequestSummary struct {
	Input       string    `json:"input"`
	Mode        string    `json:"mode"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

type IngestSummary struct {
	Source     string    `json:"source"`
	RecordDate string    `json:"record_date"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
}
