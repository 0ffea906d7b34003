// Package chart renders consumption history and forecasts as PNG line
// charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strconv"
	"time"

	"github.com/lox/gridcast/internal/forecast"
	"github.com/lox/gridcast/internal/models"
)

const (
	Width  = 1200
	Height = 600

	marginLeft   = 110
	marginRight  = 40
	marginTop    = 60
	marginBottom = 90

	XLabel = "Date"
	YLabel = "Energy Consumption (MWh)"
)

var (
	background  = color.RGBA{255, 255, 255, 255}
	axisColor   = color.RGBA{60, 60, 60, 255}
	gridColor   = color.RGBA{225, 225, 225, 255}
	textColor   = color.RGBA{30, 30, 30, 255}
	historyBlue = color.RGBA{31, 119, 180, 255}
	forecastRed = color.RGBA{214, 39, 40, 255}
)

// Spec describes one chart. History is drawn solid and Forecast dashed.
type Spec struct {
	Title         string
	History       []models.ForecastPoint
	Forecast      []models.ForecastPoint
	HistoryLabel  string
	ForecastLabel string
}

// Render draws spec as a PNG.
func Render(spec Spec) ([]byte, error) {
	if len(spec.History) == 0 && len(spec.Forecast) == 0 {
		return nil, errors.New("chart has no points")
	}
	ff, err := newFaces()
	if err != nil {
		return nil, err
	}
	defer ff.Close()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	sc := newScale(spec.History, spec.Forecast)
	drawAxes(img, sc, ff)

	drawSeries(img, sc, spec.History, historyBlue, false)
	drawSeries(img, sc, spec.Forecast, forecastRed, true)

	drawTextCentered(img, spec.Title, Width/2, marginTop-25, textColor, ff.title)
	drawTextCentered(img, XLabel, marginLeft+plotWidth()/2, Height-20, textColor, ff.regular)
	drawText(img, YLabel, 12, marginTop-8, textColor, ff.regular)
	drawLegend(img, spec, ff)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func plotWidth() int  { return Width - marginLeft - marginRight }
func plotHeight() int { return Height - marginTop - marginBottom }

// scale maps dates and values onto the plot area.
type scale struct {
	start, end time.Time
	min, max   float64
}

func newScale(sets ...[]models.ForecastPoint) scale {
	sc := scale{min: math.Inf(1), max: math.Inf(-1)}
	for _, points := range sets {
		for _, p := range points {
			if sc.start.IsZero() || p.Date.Before(sc.start) {
				sc.start = p.Date
			}
			if p.Date.After(sc.end) {
				sc.end = p.Date
			}
			sc.min = math.Min(sc.min, p.Value)
			sc.max = math.Max(sc.max, p.Value)
		}
	}
	if !sc.end.After(sc.start) {
		sc.end = sc.start.AddDate(0, 0, 1)
	}
	pad := (sc.max - sc.min) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(sc.max)*0.05, 1)
	}
	sc.min -= pad
	sc.max += pad
	return sc
}

func (sc scale) x(t time.Time) int {
	frac := float64(t.Sub(sc.start)) / float64(sc.end.Sub(sc.start))
	return marginLeft + int(math.Round(frac*float64(plotWidth())))
}

func (sc scale) y(v float64) int {
	frac := (v - sc.min) / (sc.max - sc.min)
	return marginTop + plotHeight() - int(math.Round(frac*float64(plotHeight())))
}

func drawAxes(img *image.RGBA, sc scale, ff *faces) {
	left, right := marginLeft, marginLeft+plotWidth()
	top, bottom := marginTop, marginTop+plotHeight()

	const yTicks = 5
	for i := 0; i <= yTicks; i++ {
		v := sc.min + (sc.max-sc.min)*float64(i)/yTicks
		y := sc.y(v)
		hline(img, left, right, y, gridColor)
		drawTextRight(img, formatValue(v), left-8, y+5, textColor, ff.regular)
	}

	days := int(sc.end.Sub(sc.start).Hours()/24) + 1
	step := max(1, days/8)
	for d := 0; d < days; d += step {
		t := sc.start.AddDate(0, 0, d)
		x := sc.x(t)
		vline(img, x, top, bottom, gridColor)
		vline(img, x, bottom, bottom+5, axisColor)
		drawTextCentered(img, t.Format("2006-01-02"), x, bottom+22, textColor, ff.regular)
	}

	hline(img, left, right, bottom, axisColor)
	vline(img, left, top, bottom, axisColor)
}

func drawSeries(img *image.RGBA, sc scale, points []models.ForecastPoint, col color.Color, dashed bool) {
	if len(points) == 1 {
		p := points[0]
		dot(img, sc.x(p.Date), sc.y(p.Value), 3, col)
		return
	}
	var traveled float64
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		traveled = line(img, sc.x(a.Date), sc.y(a.Value), sc.x(b.Date), sc.y(b.Value), col, dashed, traveled)
	}
}

func drawLegend(img *image.RGBA, spec Spec, ff *faces) {
	x := marginLeft + plotWidth() - 230
	y := marginTop + 20
	if len(spec.History) > 0 {
		line(img, x, y-5, x+30, y-5, historyBlue, false, 0)
		drawText(img, spec.HistoryLabel, x+40, y, textColor, ff.regular)
		y += 22
	}
	if len(spec.Forecast) > 0 {
		line(img, x, y-5, x+30, y-5, forecastRed, true, 0)
		drawText(img, spec.ForecastLabel, x+40, y, textColor, ff.regular)
	}
}

// formatValue renders axis values with thousands separators.
func formatValue(v float64) string {
	s := strconv.FormatInt(int64(math.Round(v)), 10)
	neg := s[0] == '-'
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// SpecFor lays out a result the way each mode is plotted: date mode shows
// the forecast alone, month and year modes overlay it on history.
func SpecFor(r *forecast.Result) Spec {
	spec := Spec{
		Title:         r.View.ChartTitle,
		Forecast:      r.Forecast,
		ForecastLabel: "Forecasted Consumption",
	}
	if r.View.HasHistory {
		spec.History = r.HistoryPoints()
		spec.HistoryLabel = "Historical Consumption"
		spec.ForecastLabel = "Next Week Forecast"
	}
	return spec
}
