package store

import (
	"database/sql"
	"time"

	"github.com/lox/gridcast/internal/models"
)

// StartIngestRun records the start of one per-day export download.
func (s *Store) StartIngestRun(source, recordDate string) (*models.IngestRun, error) {
	run := &models.IngestRun{
		StartedAt:  time.Now().UTC(),
		Source:     source,
		RecordDate: recordDate,
	}

	result, err := s.db.Exec(`
		INSERT INTO ingest_runs (started_at, source, record_date, success)
		VALUES (?, ?, ?, FALSE)
	`, run.StartedAt, run.Source, run.RecordDate)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return run, nil
}

// CompleteIngestRun stores the outcome of a run started with StartIngestRun.
func (s *Store) CompleteIngestRun(run *models.IngestRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE ingest_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			rows_parsed = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.ResponseSizeBytes, run.RowsParsed,
		run.Success, run.ErrorMessage, run.ID)
	return err
}

// GetRecentIngestRuns returns the latest runs, newest first.
func (s *Store) GetRecentIngestRuns(limit int) ([]models.IngestRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, source, record_date,
			   http_status, response_size_bytes, rows_parsed, success, error_message
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.IngestRun
	for rows.Next() {
		var r models.IngestRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Source, &r.RecordDate,
			&r.HTTPStatus, &r.ResponseSizeBytes, &r.RowsParsed, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
