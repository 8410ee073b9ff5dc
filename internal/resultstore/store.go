// Package resultstore provides SQLite-backed persistence for terminal
// execution results, so results outlive the engine's in-memory state and
// can be fetched later for follow-on runs or report rendering.
package resultstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/datenai/datalab/internal/domain"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no result exists for an execution ID
var ErrNotFound = errors.New("result not found")

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id             TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	error_message  TEXT,
	execution_time REAL NOT NULL,
	payload        TEXT NOT NULL,
	created_at     TIMESTAMP NOT NULL
);
`

// Store persists execution results keyed by execution ID
type Store struct {
	db *sql.DB
}

// New creates a Store with the given database path. Use ":memory:" in tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a result. Results are written exactly once per execution; a
// second write for the same ID is rejected by the primary key.
func (s *Store) Put(result *domain.ExecutionResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO results (id, status, error_message, execution_time, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		result.ExecutionID,
		string(result.Status),
		result.Error,
		result.ElapsedSecs,
		string(payload),
		time.Now(),
	)
	return err
}

// Get retrieves a result by execution ID, or ErrNotFound
func (s *Store) Get(executionID string) (*domain.ExecutionResult, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM results WHERE id = ?`, executionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var result domain.ExecutionResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Count returns the number of stored results
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&n)
	return n, err
}

// RemoveExpired deletes results older than ttl and reports how many were
// removed. Wired to the same cron sweep as the dataset store.
func (s *Store) RemoveExpired(ttl time.Duration) (int, error) {
	res, err := s.db.Exec(`DELETE FROM results WHERE created_at < ?`, time.Now().Add(-ttl))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
