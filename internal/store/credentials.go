package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"shifa/internal/models"
)

// LoadCredential returns the persisted credential, or nil when none is
// stored. Implements session.CredentialStore.
func (s *Store) LoadCredential(ctx context.Context) (*models.Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, token_type, user_id, user_name, user_email, user_phone
		FROM credential WHERE id = 1`)

	var cred models.Credential
	err := row.Scan(&cred.Token, &cred.TokenType,
		&cred.User.ID, &cred.User.Name, &cred.User.Email, &cred.User.Phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// SaveCredential stores token and identity in one row, replacing any
// previous credential.
func (s *Store) SaveCredential(ctx context.Context, cred models.Credential) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credential (id, token, token_type, user_id, user_name, user_email, user_phone, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			token_type = excluded.token_type,
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			user_email = excluded.user_email,
			user_phone = excluded.user_phone,
			updated_at = excluded.updated_at`,
		cred.Token, cred.TokenType,
		cred.User.ID, cred.User.Name, cred.User.Email, cred.User.Phone,
		time.Now())
	return err
}

// ClearCredential removes the stored credential, if any.
func (s *Store) ClearCredential(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM credential WHERE id = 1`)
	return err
}
