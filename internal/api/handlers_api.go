package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	result, err := s.presenter.Present(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeJSON(w, statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, newForecastResponse(result))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
