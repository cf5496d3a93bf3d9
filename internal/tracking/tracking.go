// Package tracking keeps a local audit log of processed batches in sqlite:
// which message produced them, what mode ran and which rows failed. It backs
// the batch listing endpoints and survives restarts.
package tracking

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the audit database. The handle is injected at construction, so
// tests can point it at a throwaway file or :memory:.
type Store struct {
	db *sql.DB
}

// Open creates (or reopens) the audit database and its tables.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	batchTable := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		message_id TEXT,
		mode TEXT,
		rows INTEGER,
		status TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);
	`
	failureTable := `
	CREATE TABLE IF NOT EXISTS batch_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT,
		row_index INTEGER,
		family TEXT,
		error_message TEXT,
		created_at DATETIME
	);
	`

	if _, err := db.Exec(batchTable); err != nil {
		return nil, err
	}
	if _, err := db.Exec(failureTable); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch records a newly received batch as processing.
func (s *Store) SaveBatch(batchID, messageID, mode string, rows int) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO batches (id, message_id, mode, rows, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batchID, messageID, mode, rows, "processing", now, now)
	return err
}

// UpdateBatchStatus moves a batch to a terminal status (applied, failed, aborted).
func (s *Store) UpdateBatchStatus(batchID, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE batches SET status = ?, updated_at = ? WHERE id = ?`, status, now, batchID)
	return err
}

// SaveRowFailure records one failed (row, family) write for later inspection.
func (s *Store) SaveRowFailure(batchID string, row int, family, message string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO batch_failures (batch_id, row_index, family, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		batchID, row, family, message, now)
	return err
}

// ListBatches returns all batches, newest first.
func (s *Store) ListBatches() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT id, message_id, mode, rows, status, created_at, updated_at FROM batches ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []map[string]interface{}
	for rows.Next() {
		var id, messageID, mode, status string
		var rowCount int
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &messageID, &mode, &rowCount, &status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, map[string]interface{}{
			"id":        id,
			"messageId": messageID,
			"mode":      mode,
			"rows":      rowCount,
			"status":    status,
			"createdAt": createdAt,
			"updatedAt": updatedAt,
		})
	}
	return batches, rows.Err()
}

// GetBatch fetches one batch with its recorded row failures.
func (s *Store) GetBatch(batchID string) (map[string]interface{}, error) {
	var messageID, mode, status string
	var rowCount int
	var createdAt, updatedAt time.Time

	err := s.db.QueryRow(`SELECT message_id, mode, rows, status, created_at, updated_at FROM batches WHERE id = ?`, batchID).
		Scan(&messageID, &mode, &rowCount, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	failures, err := s.getFailures(batchID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":        batchID,
		"messageId": messageID,
		"mode":      mode,
		"rows":      rowCount,
		"status":    status,
		"failures":  failures,
		"createdAt": createdAt,
		"updatedAt": updatedAt,
	}, nil
}

func (s *Store) getFailures(batchID string) ([]map[string]interface{}, error) {
	rows, err := s.db.Query(`SELECT row_index, family, error_message, created_at FROM batch_failures WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	failures := []map[string]interface{}{}
	for rows.Next() {
		var row int
		var family, message string
		var createdAt time.Time
		if err := rows.Scan(&row, &family, &message, &createdAt); err != nil {
			return nil, err
		}
		failures = append(failures, map[string]interface{}{
			"row":       row,
			"family":    family,
			"error":     message,
			"createdAt": createdAt,
		})
	}
	return failures, rows.Err()
}
