// Package pipeline turns per-station readings into the national daily
// series used for forecasting.
package pipeline

import (
	"sort"
	"time"

	"github.com/lox/gridcast/internal/models"
)

// WindowDays is the trailing window, current day included, used to impute
// a missing day.
const WindowDays = 7

// FillGaps reindexes every station to a contiguous daily calendar between
// its first and last reading and imputes the missing days.
//
// A station whose observed values are all zero is filled with zero.
// Otherwise a missing day gets the mean of the values already known in the
// trailing window; a day with no known value in its window is dropped.
// Gaps are never filled backwards.
func FillGaps(readings []models.Reading) []models.StationSeries {
	byStation := make(map[string][]models.Reading)
	var stations []string
	for _, r := range readings {
		if _, ok := byStation[r.Station]; !ok {
			stations = append(stations, r.Station)
		}
		byStation[r.Station] = append(byStation[r.Station], r)
	}
	sort.Strings(stations)

	out := make([]models.StationSeries, 0, len(stations))
	for _, station := range stations {
		out = append(out, fillStation(station, byStation[station]))
	}
	return out
}

func fillStation(station string, readings []models.Reading) models.StationSeries {
	sort.Slice(readings, func(i, j int) bool { return readings[i].Date.Before(readings[j].Date) })

	first := models.Day(readings[0].Date)
	last := models.Day(readings[len(readings)-1].Date)
	n := daysBetween(first, last) + 1

	values := make([]float64, n)
	known := make([]bool, n)
	observed := make([]bool, n)
	allZero := true
	for _, r := range readings {
		if !r.Capability.Valid {
			continue
		}
		i := daysBetween(first, models.Day(r.Date))
		values[i] += r.Capability.Float64
		known[i] = true
		observed[i] = true
	}
	for i := range values {
		if observed[i] && values[i] != 0 {
			allZero = false
			break
		}
	}

	for i := range values {
		if known[i] {
			continue
		}
		if allZero {
			known[i] = true
			continue
		}
		if mean, ok := trailingMean(values, known, i); ok {
			values[i] = mean
			known[i] = true
		}
	}

	series := models.StationSeries{Station: station}
	for i := range values {
		if !known[i] {
			continue
		}
		series.Values = append(series.Values, models.DailyValue{
			Date:    first.AddDate(0, 0, i),
			Value:   values[i],
			Imputed: !observed[i],
		})
	}
	return series
}

// trailingMean averages the known values in [i-WindowDays+1, i].
func trailingMean(values []float64, known []bool, i int) (float64, bool) {
	start := i - WindowDays + 1
	if start < 0 {
		start = 0
	}
	var sum float64
	var count int
	for j := start; j <= i; j++ {
		if known[j] {
			sum += values[j]
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours()/24 + 0.5)
}
