package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/quizreport/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		received_at DATETIME NOT NULL,
		student_name TEXT NOT NULL DEFAULT '',
		unit_title TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		percentage REAL NOT NULL DEFAULT 0,
		record TEXT NOT NULL,
		report TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_results_received_at ON results(received_at);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// InsertResult stores a formatted result with pending delivery and returns its ID.
func (s *Store) InsertResult(rec model.ResultRecord, report string) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO results (id, received_at, student_name, unit_title, score, percentage, record, report, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), rec.StudentName, rec.UnitTitle, rec.Score, rec.Percentage,
		string(data), report, model.DeliveryPending,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetResult returns a stored result by ID.
func (s *Store) GetResult(id string) (model.StoredResult, error) {
	var (
		res  model.StoredResult
		data string
	)
	err := s.db.QueryRow(
		`SELECT id, received_at, record, report, status FROM results WHERE id = ?`, id,
	).Scan(&res.ID, &res.ReceivedAt, &data, &res.Report, &res.Status)
	if err == sql.ErrNoRows {
		return res, fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal([]byte(data), &res.Record); err != nil {
		return res, fmt.Errorf("decode record %s: %w", id, err)
	}
	return res, nil
}

// ListResults returns summaries of all stored results, newest first.
func (s *Store) ListResults() ([]model.ResultSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, student_name, unit_title, score, percentage, status, received_at
		 FROM results ORDER BY received_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []model.ResultSummary
	for rows.Next() {
		var r model.ResultSummary
		if err := rows.Scan(&r.ID, &r.StudentName, &r.UnitTitle, &r.Score, &r.Percentage, &r.Status, &r.ReceivedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// UpdateResultStatus records the outcome of a delivery attempt.
func (s *Store) UpdateResultStatus(id string, status model.DeliveryStatus) error {
	res, err := s.db.Exec(`UPDATE results SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	return nil
}

// ResultCount returns the number of stored results.
func (s *Store) ResultCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}
