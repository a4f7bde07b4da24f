package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AddContact stores a new support circle member and returns it with its ID.
func (s *Store) AddContact(name, phone string) (Contact, error) {
	c := Contact{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.Exec(`INSERT INTO support_contacts (id, name, phone, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, c.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return Contact{}, fmt.Errorf("inserting contact: %w", err)
	}
	return c, nil
}

func (s *Store) GetContact(id string) (Contact, error) {
	var c Contact
	var createdAt string
	err := s.db.QueryRow(`SELECT id, name, phone, created_at FROM support_contacts WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &createdAt)
	if err == sql.ErrNoRows {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Contact{}, fmt.Errorf("parsing created_at: %w", err)
	}
	return c, nil
}

// ListContacts returns the support circle in the order members were added.
func (s *Store) ListContacts() ([]Contact, error) {
	rows, err := s.db.Query(`SELECT id, name, phone, created_at FROM support_contacts ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Contact{}
	for rows.Next() {
		var c Contact
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *Store) DeleteContact(id string) error {
	res, err := s.db.Exec(`DELETE FROM support_contacts WHERE id = ?`, id)
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
	return nil
}
