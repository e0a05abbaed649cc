package domain

import (
	"database/sql"
	"time"
)

// Record is one row of the retrieval log. One is written per attempt.
type Record struct {
	URL               string         `db:"url"`
	StorageName       sql.NullString `db:"storage_name"`
	Destination       string         `db:"destination"`
	Location          sql.NullString `db:"location"`
	FetchStart        sql.NullTime   `db:"fetch_start"`
	FetchEnd          sql.NullTime   `db:"fetch_end"`
	SaveStart         sql.NullTime   `db:"save_start"`
	SaveEnd           sql.NullTime   `db:"save_end"`
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

// Phase holds the boundaries of one timed phase. A zero Start means the
// phase was never reached.
type Phase struct {
	Start time.Time
	End   time.Time
}

// Duration returns the elapsed time of the phase, or 0 when it was not
// reached or has not ended.
func (p Phase) Duration() time.Duration {
	if p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start) {
		return 0
	}
	return p.End.Sub(p.Start)
}

func (p Phase) nullStart() sql.NullTime {
	return sql.NullTime{Time: p.Start, Valid: !p.Start.IsZero()}
}

func (p Phase) nullEnd() sql.NullTime {
	return sql.NullTime{Time: p.End, Valid: !p.End.IsZero()}
}

// SetFetch copies the fetch phase into the record
func (r *Record) SetFetch(p Phase) {
	r.FetchStart = p.nullStart()
	r.FetchEnd = p.nullEnd()
	r.FetchDurationMs = p.Duration().Milliseconds()
}

// SetSave copies the save phase into the record
func (r *Record) SetSave(p Phase) {
	r.SaveStart = p.nullStart()
	r.SaveEnd = p.nullEnd()
	r.SaveDurationMs = p.Duration().Milliseconds()
}

// NullString returns a NullString that is NULL for the empty string.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
