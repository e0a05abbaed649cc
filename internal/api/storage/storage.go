// Package storage reads the retrieval log for the API.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/api/model"
	"github.com/jmoiron/sqlx"
)

// Storage queries the retrieval_logs table
type Storage struct {
	db *sqlx.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
	}
}

// GetStats aggregates the retrieval log
func (s *Storage) GetStats(ctx context.Context) (*model.Stats, []model.DestinationStats, error) {
	query := `
		SELECT
			COUNT(*) AS attempts,
			COUNT(*) FILTER (WHERE status = 'success') AS succeeded,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'failed' AND terminal) AS terminal_failures,
			COALESCE(SUM(byte_size) FILTER (WHERE status = 'success'), 0) AS total_bytes,
			COALESCE(AVG(fetch_duration_ms) FILTER (WHERE fetch_end IS NOT NULL), 0) AS avg_fetch_duration_ms,
			COALESCE(AVG(save_duration_ms) FILTER (WHERE save_end IS NOT NULL), 0) AS avg_save_duration_ms
		FROM retrieval_logs
	`

	var stats model.Stats
	if err := s.db.GetContext(ctx, &stats, query); err != nil {
		return nil, nil, fmt.Errorf("failed to get retrieval stats: %w", err)
	}

	byDestination := `
		SELECT
			destination,
			COUNT(*) AS attempts,
			COUNT(*) FILTER (WHERE status = 'success') AS succeeded,
			COALESCE(SUM(byte_size) FILTER (WHERE status = 'success'), 0) AS total_bytes
		FROM retrieval_logs
		GROUP BY destination
		ORDER BY destination
	`

	var destinations []model.DestinationStats
	if err := s.db.SelectContext(ctx, &destinations, byDestination); err != nil {
		return nil, nil, fmt.Errorf("failed to get destination stats: %w", err)
	}

	return &stats, destinations, nil
}

// RecordFilter narrows ListRecords. Empty fields match everything.
type RecordFilter struct {
	URL         string
	Status      string
	Destination string
	PageSize    int
	Cursor      *RecordCursor
}

// RecordCursor is the position of the last record of a page
type RecordCursor struct {
	CreatedAt time.Time
	ID        int64
}

// ListRecords returns up to PageSize+1 records, newest first, so the caller
// can tell whether another page exists.
func (s *Storage) ListRecords(ctx context.Context, filter RecordFilter) ([]model.Retrieval, error) {
	query := `
        SELECT
            id, url, storage_name, destination, location,
            fetch_duration_ms, save_duration_ms, status, byte_size,
            content_type, attempts_remaining, terminal, error_message, created_at
        FROM retrieval_logs
        WHERE 1=1
    `
	args := []interface{}{}
	argIdx := 1

	// Filters
	if filter.URL != "" {
		query += fmt.Sprintf(" AND url = $%d", argIdx)
		args = append(args, filter.URL)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Destination != "" {
		query += fmt.Sprintf(" AND destination = $%d", argIdx)
		args = append(args, filter.Destination)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, id DESC"

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var records []model.Retrieval
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}
