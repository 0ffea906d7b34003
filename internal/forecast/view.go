package forecast

import (
	"fmt"
	"time"

	"github.com/lox/gridcast/internal/models"
)

// HorizonDays is the forecast length for every mode.
const HorizonDays = 7

// View is what a query shows: an optional historical range and the
// forecast window that follows Cutoff.
type View struct {
	Mode         Mode
	HasHistory   bool
	HistoryStart time.Time
	HistoryEnd   time.Time
	Cutoff       time.Time
	Horizon      int
	Title        string
	ChartTitle   string
	Period       string // "month" or "year"
}

// Plan maps a query to its view.
func Plan(q Query) View {
	d := models.Day(q.Date)
	switch q.Mode {
	case ModeMonth:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		title := fmt.Sprintf("Energy Consumption Trend for %s", start.Format("January 2006"))
		return View{
			Mode:         ModeMonth,
			HasHistory:   true,
			HistoryStart: start,
			HistoryEnd:   end,
			Cutoff:       end,
			Horizon:      HorizonDays,
			Title:        title,
			ChartTitle:   title,
			Period:       "month",
		}
	case ModeYear:
		start := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(d.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
		title := fmt.Sprintf("Energy Consumption Trend for %d", d.Year())
		return View{
			Mode:         ModeYear,
			HasHistory:   true,
			HistoryStart: start,
			HistoryEnd:   end,
			Cutoff:       end,
			Horizon:      HorizonDays,
			Title:        title,
			ChartTitle:   title,
			Period:       "year",
		}
	default:
		return View{
			Mode:    ModeDate,
			Cutoff:  d,
			Horizon: HorizonDays,
			Title: fmt.Sprintf("Predicted Energy Consumption from %s to %s",
				d.Format("2006-01-02"), d.AddDate(0, 0, HorizonDays).Format("2006-01-02")),
			ChartTitle: fmt.Sprintf("Energy Consumption Forecast (Week after %s)", d.Format("2006-01-02")),
		}
	}
}

// ForecastStart is the first forecast date.
func (v View) ForecastStart() time.Time {
	return v.Cutoff.AddDate(0, 0, 1)
}

func (v View) ForecastEnd() time.Time {
	return v.Cutoff.AddDate(0, 0, v.Horizon)
}

type Verdict string

const (
	Increased Verdict = "increased"
	Decreased Verdict = "decreased"
)

// Trend sums the day-over-day differences of history. Only a strictly
// positive sum counts as an increase.
func Trend(history models.DailySeries) (float64, Verdict) {
	var change float64
	for i := 1; i < len(history); i++ {
		change += history[i].Value - history[i-1].Value
	}
	if change > 0 {
		return change, Increased
	}
	return change, Decreased
}
