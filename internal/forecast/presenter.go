package forecast

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lox/gridcast/internal/metrics"
	"github.com/lox/gridcast/internal/models"
)

// RequestLogger records presenter requests. *store.Store satisfies it.
type RequestLogger interface {
	InsertForecastRequest(req models.ForecastRequest) (int64, error)
}

// Narrator writes a short commentary on a result. Failures are logged and
// never fail the request.
type Narrator interface {
	Narrate(ctx context.Context, r *Result) (string, error)
}

// Result is everything a presentation surface needs to render one query.
type Result struct {
	Query    Query                  `json:"query"`
	View     View                   `json:"-"`
	Title    string                 `json:"title"`
	History  models.DailySeries     `json:"-"`
	Forecast []models.ForecastPoint `json:"forecast"`
	// Change and Verdict are only set for month and year queries.
	Change    float64 `json:"change,omitempty"`
	Verdict   Verdict `json:"verdict,omitempty"`
	Summary   string  `json:"summary,omitempty"`
	Narrative string  `json:"narrative,omitempty"`
}

// HistoryPoints exposes the historical slice in the same shape as the
// forecast for JSON and templates.
func (r *Result) HistoryPoints() []models.ForecastPoint {
	points := make([]models.ForecastPoint, len(r.History))
	for i, v := range r.History {
		points[i] = models.ForecastPoint{Date: v.Date, Value: v.Value}
	}
	return points
}

type Presenter struct {
	forecaster *Forecaster
	requests   RequestLogger
	narrator   Narrator
}

type PresenterOption func(*Presenter)

func WithRequestLogger(l RequestLogger) PresenterOption {
	return func(p *Presenter) { p.requests = l }
}

func WithNarrator(n Narrator) PresenterOption {
	return func(p *Presenter) { p.narrator = n }
}

func NewPresenter(f *Forecaster, opts ...PresenterOption) *Presenter {
	p := &Presenter{forecaster: f}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Series is the national series requests are answered from.
func (p *Presenter) Series() models.DailySeries {
	return p.forecaster.Series()
}

// Present resolves text and, when a narrator is configured, adds a
// narrative. Narrative failures are logged and leave Narrative empty.
func (p *Presenter) Present(ctx context.Context, text string) (*Result, error) {
	result, err := p.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}
	if p.narrator != nil {
		narrative, err := p.narrator.Narrate(ctx, result)
		if err != nil {
			log.Printf("forecast: narrative failed for %q: %v", result.Query.Input, err)
		} else {
			result.Narrative = narrative
		}
	}
	return result, nil
}

// Resolve parses text, selects the view and produces its forecast. Text
// that matches no layout returns ErrInvalidInput before any fit.
func (p *Presenter) Resolve(ctx context.Context, text string) (*Result, error) {
	start := time.Now()

	q, err := ParseQuery(text)
	if err != nil {
		p.record(start, models.ForecastRequest{Input: text, Mode: "invalid"}, err)
		metrics.ForecastRequestsTotal.WithLabelValues("invalid", "error").Inc()
		return nil, err
	}

	view := Plan(q)
	req := models.ForecastRequest{
		Input:   q.Input,
		Mode:    string(q.Mode),
		Cutoff:  sql.NullTime{Time: view.Cutoff, Valid: true},
		Horizon: view.Horizon,
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	points, err := p.forecaster.Forecast(view.Cutoff, view.Horizon)
	if err != nil {
		p.record(start, req, err)
		metrics.ForecastRequestsTotal.WithLabelValues(string(q.Mode), "error").Inc()
		return nil, fmt.Errorf("forecast %s: %w", q.Input, err)
	}

	result := &Result{
		Query:    q,
		View:     view,
		Title:    view.Title,
		Forecast: points,
	}
	if view.HasHistory {
		result.History = p.forecaster.Series().Between(view.HistoryStart, view.HistoryEnd)
		result.Change, result.Verdict = Trend(result.History)
		result.Summary = fmt.Sprintf("Overall consumption %s during the %s.", result.Verdict, view.Period)
	}

	p.record(start, req, nil)
	metrics.ForecastRequestsTotal.WithLabelValues(string(q.Mode), "ok").Inc()
	return result, nil
}

func (p *Presenter) record(start time.Time, req models.ForecastRequest, err error) {
	if p.requests == nil {
		return
	}
	req.RequestedAt = start.UTC()
	req.DurationMS = time.Since(start).Milliseconds()
	req.Success = err == nil
	if err != nil {
		req.ErrorMessage = sql.NullString{String: err.Error(), Valid: true}
	}
	if _, lerr := p.requests.InsertForecastRequest(req); lerr != nil {
		log.Printf("forecast: failed to record request %q: %v", req.Input, lerr)
	}
}
