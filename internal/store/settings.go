package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const settingBaseURL = "api_base_url"

// GetSetting returns the value for key, empty when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// SetSetting upserts a key-value pair; an empty value removes the key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if value == "" {
		_, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key)
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now())
	return err
}

// BaseURLOverride returns the user's runtime gateway override, empty when
// the build-time default applies.
func (s *Store) BaseURLOverride(ctx context.Context) (string, error) {
	return s.GetSetting(ctx, settingBaseURL)
}

// SetBaseURLOverride stores (or, with an empty value, clears) the override.
func (s *Store) SetBaseURLOverride(ctx context.Context, baseURL string) error {
	return s.SetSetting(ctx, settingBaseURL, baseURL)
}
