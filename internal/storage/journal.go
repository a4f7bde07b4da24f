package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SaveJournalAnalysis stores a, replacing any earlier analysis of the same entry.
func (s *Store) SaveJournalAnalysis(a JournalAnalysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO journal_analyses (entry_id, tone, theme, summary, model, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET tone = excluded.tone, theme = excluded.theme,
			summary = excluded.summary, model = excluded.model, created_at = excluded.created_at`,
		a.EntryID, a.Tone, a.Theme, a.Summary, a.Model, a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving journal analysis: %w", err)
	}
	return nil
}

func (s *Store) GetJournalAnalysis(entryID string) (JournalAnalysis, error) {
	var a JournalAnalysis
	var createdAt string
	err := s.db.QueryRow(`SELECT entry_id, tone, theme, summary, model, created_at FROM journal_analyses WHERE entry_id = ?`, entryID).
		Scan(&a.EntryID, &a.Tone, &a.Theme, &a.Summary, &a.Model, &createdAt)
	if err == sql.ErrNoRows {
		return JournalAnalysis{}, ErrNotFound
	}
	if err != nil {
		return JournalAnalysis{}, err
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return JournalAnalysis{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return a, nil
}
