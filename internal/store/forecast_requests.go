package store

import (
	"database/sql"

	"github.com/lox/gridcast/internal/models"
)

// InsertForecastRequest logs one presenter request. Fitted parameters are
// never stored.
func (s *Store) InsertForecastRequest(req models.ForecastRequest) (int64, error) {
	result, err := s.db.Exec(`
		INSERT INTO forecast_requests (requested_at, input, mode, cutoff, horizon, duration_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, req.RequestedAt, req.Input, req.Mode, req.Cutoff, req.Horizon, req.DurationMS, req.Success, req.ErrorMessage)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (s *Store) GetLatestForecastRequest() (*models.ForecastRequest, error) {
	row := s.db.QueryRow(`
		SELECT id, requested_at, input, mode, cutoff, horizon, duration_ms, success, error_message
		FROM forecast_requests
		ORDER BY id DESC
		LIMIT 1
	`)

	var req models.ForecastRequest
	err := row.Scan(&req.ID, &req.RequestedAt, &req.Input, &req.Mode, &req.Cutoff,
		&req.Horizon, &req.DurationMS, &req.Success, &req.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
