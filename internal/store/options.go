package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetOption returns the value stored under name, or "" if unset.
func (s *Store) GetOption(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query option %s: %w", name, err)
	}
	return value, nil
}

// SetOption creates or replaces an option.
func (s *Store) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO options (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("upsert option %s: %w", name, err)
	}
	return nil
}
