package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/gridcast/internal/models"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		input    string
		wantMode Mode
		wantDate string
		wantErr  bool
	}{
		{"2023-05-15", ModeDate, "2023-05-15", false},
		{"2023-05", ModeMonth, "2023-05-01", false},
		{"2023", ModeYear, "2023-01-01", false},
		{"  2023-05  ", ModeMonth, "2023-05-01", false},
		{"2024-02-29", ModeDate, "2024-02-29", false},
		{"2023-02-30", "", "", true},
		{"2023-13", "", "", true},
		{"2023/05/15", "", "", true},
		{"15-05-2023", "", "", true},
		{"not-a-date", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := ParseQuery(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, q.Mode)
			assert.Equal(t, date(tt.wantDate), q.Date)
		})
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		input        string
		hasHistory   bool
		historyStart string
		historyEnd   string
		cutoff       string
		title        string
	}{
		{"2023-05-15", false, "", "", "2023-05-15", "Predicted Energy Consumption from 2023-05-15 to 2023-05-22"},
		{"2023-05", true, "2023-05-01", "2023-05-31", "2023-05-31", "Energy Consumption Trend for May 2023"},
		{"2024-02", true, "2024-02-01", "2024-02-29", "2024-02-29", "Energy Consumption Trend for February 2024"},
		{"2023", true, "2023-01-01", "2023-12-31", "2023-12-31", "Energy Consumption Trend for 2023"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := ParseQuery(tt.input)
			require.NoError(t, err)

			v := Plan(q)
			assert.Equal(t, tt.hasHistory, v.HasHistory)
			if tt.hasHistory {
				assert.Equal(t, date(tt.historyStart), v.HistoryStart)
				assert.Equal(t, date(tt.historyEnd), v.HistoryEnd)
			}
			assert.Equal(t, date(tt.cutoff), v.Cutoff)
			assert.Equal(t, HorizonDays, v.Horizon)
			assert.Equal(t, tt.title, v.Title)
			assert.Equal(t, v.Cutoff.AddDate(0, 0, 1), v.ForecastStart())
			assert.Equal(t, v.Cutoff.AddDate(0, 0, 7), v.ForecastEnd())
		})
	}
}

func series(start string, values ...float64) models.DailySeries {
	d := date(start)
	out := make(models.DailySeries, len(values))
	for i, v := range values {
		out[i] = models.DailyValue{Date: d.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name    string
		history models.DailySeries
		change  float64
		verdict Verdict
	}{
		{"rising", series("2023-05-01", 10, 12, 11, 15), 5, Increased},
		{"falling", series("2023-05-01", 15, 12, 13, 10), -5, Decreased},
		{"flat", series("2023-05-01", 10, 20, 10), 0, Decreased},
		{"single", series("2023-05-01", 10), 0, Decreased},
		{"empty", nil, 0, Decreased},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			change, verdict := Trend(tt.history)
			assert.InDelta(t, tt.change, change, 1e-9)
			assert.Equal(t, tt.verdict, verdict)
		})
	}
}
