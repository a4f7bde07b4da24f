package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Profile fields are stored as free-form key/value rows. internal/profile
// decides which keys exist and validates their values.

// SetProfileKey inserts or replaces one profile field.
func (s *Store) SetProfileKey(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO user_profile (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("setting profile key %q: %w", key, err)
	}
	return nil
}

// GetProfileKey returns ErrNotFound for a field that was never set.
func (s *Store) GetProfileKey(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM user_profile WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

func (s *Store) GetAllProfileKeys() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM user_profile")
	if err != nil {
		return nil, fmt.Errorf("listing profile keys: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		fields[k] = v
	}
	return fields, rows.Err()
}

// DeleteProfileKey clears a field. Clearing an unset field is not an error.
func (s *Store) DeleteProfileKey(key string) error {
	if _, err := s.db.Exec("DELETE FROM user_profile WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting profile key %q: %w", key, err)
	}
	return nil
}
