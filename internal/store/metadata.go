package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/quizreport/internal/model"
)

const studentInfoKey = "ioe_student_info"

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// DeleteMetadata removes a metadata key. Missing keys are not an error.
func (s *Store) DeleteMetadata(key string) error {
	_, err := s.db.Exec(`DELETE FROM metadata WHERE key = ?`, key)
	return err
}

// GetStudentInfo returns the saved student, or nil if none is saved.
func (s *Store) GetStudentInfo() (*model.StudentInfo, error) {
	raw, err := s.GetMetadata(studentInfoKey)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var info model.StudentInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		// a corrupt entry reads as absent, like the pages' localStorage fallback
		slog.Warn("discarding unreadable student info", "error", err)
		return nil, nil
	}
	return &info, nil
}

// SaveStudentInfo stores the student's name and photo, stamping SavedAt.
func (s *Store) SaveStudentInfo(name, photo string) (model.StudentInfo, error) {
	info := model.StudentInfo{
		Name:    strings.TrimSpace(name),
		Photo:   photo,
		SavedAt: time.Now().UTC(),
	}
	if info.Name == "" {
		return info, fmt.Errorf("save student info: name is empty")
	}
	data, err := json.Marshal(info)
	if err != nil {
		return info, fmt.Errorf("encode student info: %w", err)
	}
	if err := s.SetMetadata(studentInfoKey, string(data)); err != nil {
		return info, fmt.Errorf("save student info: %w", err)
	}
	return info, nil
}

// ClearStudentInfo forgets the saved student.
func (s *Store) ClearStudentInfo() error {
	return s.DeleteMetadata(studentInfoKey)
}
