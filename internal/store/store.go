package store

import (
	"database/sql"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Stats summarises the audit tables for the health endpoint.
type Stats struct {
	SchemaVersion    int
	IngestRuns       int
	FailedIngestRuns int
	RawPayloadCount  int
	ForecastRequests int
	FailedForecasts  int
}

func (s *Store) GetStats() (*Stats, error) {
	var stats Stats
	var err error
	if stats.SchemaVersion, err = s.MigrationVersion(); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM ingest_runs),
			(SELECT COUNT(*) FROM ingest_runs WHERE success = FALSE),
			(SELECT COUNT(*) FROM raw_payloads),
			(SELECT COUNT(*) FROM forecast_requests),
			(SELECT COUNT(*) FROM forecast_requests WHERE success = FALSE)
	`)
	if err := row.Scan(&stats.IngestRuns, &stats.FailedIngestRuns, &stats.RawPayloadCount,
		&stats.ForecastRequests, &stats.FailedForecasts); err != nil {
		return nil, err
	}
	return &stats, nil
}
