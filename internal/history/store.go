// Package history records every operation issued against an agent.
package history

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const timeLayout = "2006-01-02 15:04:05.000"

// Entry is one recorded operation
type Entry struct {
	ID           int64
	OperationID  string
	ProfileName  string
	Kind         string
	OID          string
	ExecutedAt   time.Time
	Duration     time.Duration
	Rows         int
	Dropped      int
	Success      bool
	ErrorMessage string
}

// Store manages operation history persistence
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens the history database at path and migrates it
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Add records an operation. A zero ExecutedAt is stamped with the current time.
func (s *Store) Add(e Entry) (int64, error) {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = s.now()
	}
	res, err := s.db.Exec(`
		INSERT INTO operation_history
		(operation_id, profile_name, kind, oid, executed_at, duration_ms, row_count, dropped_count, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.OperationID,
		e.ProfileName,
		e.Kind,
		e.OID,
		e.ExecutedAt.UTC().Format(timeLayout),
		e.Duration.Milliseconds(),
		e.Rows,
		e.Dropped,
		e.Success,
		e.ErrorMessage,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const selectColumns = `
	SELECT id, operation_id, profile_name, kind, oid, executed_at,
	       duration_ms, row_count, dropped_count, success, error_message
	FROM operation_history`

// GetRecent retrieves the most recent entries, newest first
func (s *Store) GetRecent(limit int) ([]Entry, error) {
	return s.query(selectColumns+`
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, limit)
}

// Search finds entries whose OID or profile name contains text
func (s *Store) Search(text string, limit int) ([]Entry, error) {
	pattern := "%" + text + "%"
	return s.query(selectColumns+`
		WHERE oid LIKE ? OR profile_name LIKE ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, pattern, pattern, limit)
}

// ForProfile retrieves the most recent entries of one profile
func (s *Store) ForProfile(profile string, limit int) ([]Entry, error) {
	return s.query(selectColumns+`
		WHERE profile_name = ?
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, profile, limit)
}

// Prune deletes entries older than cutoff and returns how many went
func (s *Store) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM operation_history WHERE executed_at < ?`,
		cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.OperationID,
			&e.ProfileName,
			&e.Kind,
			&e.OID,
			&executedAt,
			&durationMs,
			&e.Rows,
			&e.Dropped,
			&e.Success,
			&e.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt, _ = time.Parse(timeLayout, executedAt)

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
