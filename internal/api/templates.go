package api

import (
	"embed"
	"html/template"
	"math"
	"strconv"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates creates and parses the HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"mwh": formatMWh,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// formatMWh renders a value rounded to whole MWh with thousands separators.
func formatMWh(v float64) string {
	s := strconv.FormatInt(int64(math.Round(math.Abs(v))), 10)
	out := make([]byte, 0, len(s)+len(s)/3)
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if v < 0 && math.Round(v) != 0 {
		return "-" + string(out)
	}
	return string(out)
}
