package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/pdf-retriever/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// TableName is the append-only retrieval log table
const TableName = "retrieval_logs"

const schema = `
	CREATE TABLE IF NOT EXISTS retrieval_logs (
		id                 BIGSERIAL PRIMARY KEY,
		url                TEXT NOT NULL,
		storage_name       TEXT,
		destination        TEXT NOT NULL,
		location           TEXT,
		fetch_start        TIMESTAMPTZ,
		fetch_end          TIMESTAMPTZ,
		save_start         TIMESTAMPTZ,
		save_end           TIMESTAMPTZ,
		fetch_duration_ms  BIGINT NOT NULL DEFAULT 0,
		save_duration_ms   BIGINT NOT NULL DEFAULT 0,
		status             TEXT NOT NULL,
		byte_size          BIGINT NOT NULL DEFAULT 0,
		content_type       TEXT,
		attempts_remaining INTEGER NOT NULL,
		terminal           BOOLEAN NOT NULL DEFAULT FALSE,
		error_message      TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_retrieval_logs_status ON retrieval_logs (status);
	CREATE INDEX IF NOT EXISTS idx_retrieval_logs_created_at ON retrieval_logs (created_at);
`

const insertRecord = `
	INSERT INTO retrieval_logs (
		url, storage_name, destination, location,
		fetch_start, fetch_end, save_start, save_end,
		fetch_duration_ms, save_duration_ms,
		status, byte_size, content_type,
		attempts_remaining, terminal, error_message, created_at
	) VALUES (
		:url, :storage_name, :destination, :location,
		:fetch_start, :fetch_end, :save_start, :save_end,
		:fetch_duration_ms, :save_duration_ms,
		:status, :byte_size, :content_type,
		:attempts_remaining, :terminal, :error_message, :created_at
	)
`

// Storage writes retrieval records to PostgreSQL
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the retrieval log table and its indexes if missing
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure %s schema: %w", TableName, err)
	}

	s.logger.Info("Metadata schema ready",
		slog.String("table", TableName),
	)
	return nil
}

// Record appends one retrieval record. CreatedAt is set when empty.
func (s *Storage) Record(ctx context.Context, rec *domain.Record) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if _, err := s.db.NamedExecContext(ctx, insertRecord, rec); err != nil {
		return fmt.Errorf("failed to insert retrieval record: %w", err)
	}

	s.logger.Debug("Retrieval record written",
		slog.String("url", rec.URL),
		slog.String("status", rec.Status),
		slog.Int("attempts_remaining", rec.AttemptsRemaining),
		slog.Bool("terminal", rec.Terminal),
	)

	return nil
}
