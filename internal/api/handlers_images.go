package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/lox/gridcast/internal/chart"
)

// handleChart serves the chart for q. The page that links to it has
// usually resolved q already, so the cached result is reused and the
// chart does not refit the model or log a second request.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("q"))
	if data, ok := s.charts.Get(key); ok {
		servePNG(w, data)
		return
	}

	result, ok := s.results.Get(key)
	if !ok {
		var err error
		result, err = s.presenter.Resolve(r.Context(), key)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		s.results.Set(key, result)
	}

	data, err := chart.Render(chart.SpecFor(result))
	if err != nil {
		log.Printf("chart: render %q: %v", key, err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	s.charts.Set(key, data)
	servePNG(w, data)
}

func servePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
