package models

import (
	"database/sql"
	"time"
)

// Reading is one station's declared capability for one day after
// duplicate rows have been summed. Capability is null when the source
// row had no value.
type Reading struct {
	Station    string
	Date       time.Time
	Category   string
	Capability sql.NullFloat64
}

type DailyValue struct {
	Date  time.Time
	Value float64
	// Imputed is true when the value was filled by the gap filler rather
	// than observed.
	Imputed bool
}

// StationSeries is a contiguous daily sequence for one station.
type StationSeries struct {
	Station string
	Values  []DailyValue
}

// DailySeries is the national series: one value per date, ascending.
type DailySeries []DailyValue

type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Start returns the first date, or the zero time when empty.
func (s DailySeries) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

func (s DailySeries) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// Until returns the prefix of the series with dates on or before cutoff.
func (s DailySeries) Until(cutoff time.Time) DailySeries {
	cutoff = Day(cutoff)
	n := 0
	for n < len(s) && !s[n].Date.After(cutoff) {
		n++
	}
	return s[:n]
}

// Between returns the values with start <= date <= end.
func (s DailySeries) Between(start, end time.Time) DailySeries {
	start, end = Day(start), Day(end)
	var out DailySeries
	for _, v := range s {
		if v.Date.Before(start) {
			continue
		}
		if v.Date.After(end) {
			break
		}
		out = append(out, v)
	}
	return out
}

func (s DailySeries) Values() []float64 {
	vals := make([]float64, len(s))
	for i, v := range s {
		vals[i] = v.Value
	}
	return vals
}

type IngestRun struct {
	ID                int64
	StartedAt         time.Time
	FinishedAt        sql.NullTime
	Source            string
	RecordDate        string
	HTTPStatus        sql.NullInt64
	ResponseSizeBytes sql.NullInt64
	RowsParsed        sql.NullInt64
	Success           bool
	ErrorMessage      sql.NullString
}

type ForecastRequest struct {
	ID           int64
	RequestedAt  time.Time
	Input        string
	Mode         string
	Cutoff       sql.NullTime
	Horizon      int
	DurationMS   int64
	Success      bool
	ErrorMessage sql.NullString
}
