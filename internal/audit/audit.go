// Package audit records blocked gating attempts. The core engine never
// persists verdicts; this store belongs to the calling side and is wired in
// by cmd/guardian.
package audit

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/anatolykoptev/go-guardian"
)

//go:embed schema.sql
var schema string

// Entry is one recorded blocked attempt.
type Entry struct {
	ID           string    `json:"id"`
	EvaluationID string    `json:"evaluation_id"`
	ContentID    string    `json:"content_id"`
	Title        string    `json:"title"`
	SourceID     string    `json:"source_id"`
	SourceName   string    `json:"source_name"`
	Tier         string    `json:"tier"`
	TrustLevel   string    `json:"trust_level"`
	ScoreTotal   int       `json:"score_total"`
	Reasons      string    `json:"reasons"` // verdict reasons as JSON
	RecordedAt   time.Time `json:"recorded_at"`
}

// Store handles audit database operations.
type Store struct {
	db *sql.DB
}

// Open creates a Store at the given database path, bootstrapping the
// schema when needed.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordBlock stores one blocked attempt and returns the recorded entry.
func (s *Store) RecordBlock(item guardian.ContentItem, v guardian.Verdict) (*Entry, error) {
	if v.Allowed {
		return nil, fmt.Errorf("record block: verdict is allowed")
	}

	reasons, err := json.Marshal(v.Reasons)
	if err != nil {
		return nil, fmt.Errorf("marshal reasons: %w", err)
	}

	entry := Entry{
		ID:           uuid.NewString(),
		EvaluationID: v.EvaluationID,
		ContentID:    item.ID,
		Title:        item.Title,
		SourceID:     item.SourceID,
		SourceName:   item.SourceName,
		Tier:         v.Tier.String(),
		TrustLevel:   v.TrustLevel.String(),
		ScoreTotal:   v.Score.Total,
		Reasons:      string(reasons),
		RecordedAt:   time.Now().UTC(),
	}

	_, err = s.db.Exec(
		`INSERT INTO blocked_attempts
		 (id, evaluation_id, content_id, title, source_id, source_name, tier, trust_level, score_total, reasons, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.EvaluationID, entry.ContentID, entry.Title,
		entry.SourceID, entry.SourceName, entry.Tier, entry.TrustLevel,
		entry.ScoreTotal, entry.Reasons, entry.RecordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert blocked attempt: %w", err)
	}
	return &entry, nil
}

// Recent returns the most recently recorded blocked attempts, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT id, evaluation_id, content_id, title, source_id, source_name,
		        tier, trust_level, score_total, reasons, recorded_at
		 FROM blocked_attempts
		 ORDER BY recorded_at DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query blocked attempts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.EvaluationID, &e.ContentID, &e.Title, &e.SourceID,
			&e.SourceName, &e.Tier, &e.TrustLevel, &e.ScoreTotal, &e.Reasons,
			&e.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan blocked attempt: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
