package pipeline

import (
	"log"
	"sort"
	"time"

	"github.com/lox/gridcast/internal/metrics"
	"github.com/lox/gridcast/internal/models"
)

// Aggregate sums station values per calendar day. Dates with no value for
// any station are absent from the result.
func Aggregate(series []models.StationSeries) models.DailySeries {
	totals := make(map[time.Time]float64)
	for _, s := range series {
		for _, v := range s.Values {
			totals[models.Day(v.Date)] += v.Value
		}
	}

	out := make(models.DailySeries, 0, len(totals))
	for date, total := range totals {
		out = append(out, models.DailyValue{Date: date, Value: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Build runs gap filling and aggregation over loaded readings.
func Build(readings []models.Reading) models.DailySeries {
	stations := FillGaps(readings)
	imputed := 0
	for _, s := range stations {
		for _, v := range s.Values {
			if v.Imputed {
				imputed++
			}
		}
	}

	daily := Aggregate(stations)
	metrics.SeriesDays.Set(float64(len(daily)))
	if len(daily) > 0 {
		log.Printf("pipeline: %d stations, %d imputed station-days, national series %s to %s (%d days)",
			len(stations), imputed, daily.Start().Format("2006-01-02"), daily.End().Format("2006-01-02"), len(daily))
	} else {
		log.Printf("pipeline: %d stations, national series is empty", len(stations))
	}
	return daily
}
