package model

import (
	"database/sql"
	"time"
)

// Stats is the aggregate over all retrieval attempts
type Stats struct {
	Attempts           int64   `db:"attempts"`
	Succeeded          int64   `db:"succeeded"`
	Failed             int64   `db:"failed"`
	TerminalFailures   int64   `db:"terminal_failures"`
	TotalBytes         int64   `db:"total_bytes"`
	AvgFetchDurationMs float64 `db:"avg_fetch_duration_ms"`
	AvgSaveDurationMs  float64 `db:"avg_save_duration_ms"`
}

// DestinationStats is the aggregate for one storage destination
type DestinationStats struct {
	Destination string `db:"destination"`
	Attempts    int64  `db:"attempts"`
	Succeeded   int64  `db:"succeeded"`
	TotalBytes  int64  `db:"total_bytes"`
}

// Retrieval is one row of the retrieval log as read back by the API
type Retrieval struct {
	ID                int64          `db:"id"`
	URL               string         `db:"url"`
	StorageName       sql.NullString `db:"storage_name"`
	Destination       string         `db:"destination"`
	Location          sql.NullString `db:"location"`
	FetchDurationMs   int64          `db:"fetch_duration_ms"`
	SaveDurationMs    int64          `db:"save_duration_ms"`
	Status            string         `db:"status"`
	ByteSize          int64          `db:"byte_size"`
	ContentType       sql.NullString `db:"content_type"`
	AttemptsRemaining int            `db:"attempts_remaining"`
	Terminal          bool           `db:"terminal"`
	ErrorMessage      sql.NullString `db:"error_message"`
	CreatedAt         time.Time      `db:"created_at"`
}
