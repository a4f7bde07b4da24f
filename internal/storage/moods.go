package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/auracare/auracare/internal/mood"
)

// SaveMoodLog stores r. An empty ID is replaced with a new UUID and a zero
// CreatedAt with the current time; the stored record is returned.
func (s *Store) SaveMoodLog(r mood.Record) (mood.Record, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	r.CreatedAt = r.CreatedAt.UTC().Truncate(time.Second)

	_, err := s.db.Exec(`INSERT INTO mood_logs (id, mood, notes, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, string(r.Mood), r.Notes, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return mood.Record{}, fmt.Errorf("inserting mood log: %w", err)
	}
	return r, nil
}

func (s *Store) GetMoodLog(id string) (mood.Record, error) {
	row := s.db.QueryRow(`SELECT id, mood, notes, created_at FROM mood_logs WHERE id = ?`, id)
	r, err := scanMoodLog(row)
	if err == sql.ErrNoRows {
		return mood.Record{}, ErrNotFound
	}
	return r, err
}

// DeleteMoodLog removes a mood log together with any journal analysis of it.
func (s *Store) DeleteMoodLog(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM journal_analyses WHERE entry_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM mood_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// ListMoodLogs returns every entry, journal entries included, newest first.
func (s *Store) ListMoodLogs(limit, offset int) ([]mood.Record, error) {
	return s.queryMoodLogs(`SELECT id, mood, notes, created_at FROM mood_logs
		ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
}

// MoodHistory returns the newest limit check-ins with journal entries
// excluded. This is the snapshot handed to the insight engines.
func (s *Store) MoodHistory(limit int) (mood.History, error) {
	recs, err := s.queryMoodLogs(`SELECT id, mood, notes, created_at FROM mood_logs
		WHERE mood <> ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, string(mood.JournalEntry), limit)
	return mood.History(recs), err
}

// ListJournalEntries returns journal entries only, newest first.
func (s *Store) ListJournalEntries(limit, offset int) ([]mood.Record, error) {
	return s.queryMoodLogs(`SELECT id, mood, notes, created_at FROM mood_logs
		WHERE mood = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, string(mood.JournalEntry), limit, offset)
}

// CountMoodLogs returns the number of check-ins and journal entries stored.
func (s *Store) CountMoodLogs() (checkIns, journal int, err error) {
	err = s.db.QueryRow(`SELECT
		COALESCE(SUM(CASE WHEN mood <> ? THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN mood = ? THEN 1 ELSE 0 END), 0)
		FROM mood_logs`, string(mood.JournalEntry), string(mood.JournalEntry)).Scan(&checkIns, &journal)
	return checkIns, journal, err
}

func (s *Store) queryMoodLogs(query string, args ...any) ([]mood.Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []mood.Record{}
	for rows.Next() {
		r, err := scanMoodLog(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMoodLog(row rowScanner) (mood.Record, error) {
	var r mood.Record
	var m, createdAt string
	if err := row.Scan(&r.ID, &m, &r.Notes, &createdAt); err != nil {
		return mood.Record{}, err
	}
	r.Mood = mood.Category(m)
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return mood.Record{}, fmt.Errorf("parsing created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}
