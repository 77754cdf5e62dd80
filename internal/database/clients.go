package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"piscineiro/internal/models"
)

func (db *DB) CreateClient(ctx context.Context, client *models.Client) error {
	now := time.Now()
	query := `INSERT INTO clients (id, name, email, password_hash, phone, email_verified, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		client.ID, client.Name, client.Email, client.PasswordHash,
		client.Phone, client.EmailVerified, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	client.CreatedAt = now
	client.UpdatedAt = now
	return nil
}

func (db *DB) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return db.getClient(ctx, `WHERE id = ?`, id)
}

func (db *DB) GetClientByEmail(ctx context.Context, email string) (*models.Client, error) {
	return db.getClient(ctx, `WHERE email = ?`, email)
}

func (db *DB) getClient(ctx context.Context, where string, arg interface{}) (*models.Client, error) {
	var c models.Client
	query := `SELECT id, name, email, password_hash, phone, email_verified, created_at, updated_at
	          FROM clients ` + where
	err := db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Phone,
		&c.EmailVerified, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

func (db *DB) MarkEmailVerified(ctx context.Context, clientID string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE clients SET email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now(), clientID)
	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateClientPassword(ctx context.Context, clientID, passwordHash string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE clients SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now(), clientID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error {
	now := time.Now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO verification_tokens (token, client_id, purpose, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token.Token, token.ClientID, token.Purpose, token.ExpiresAt, now)
	if err != nil {
		return fmt.Errorf("failed to create verification token: %w", err)
	}
	token.CreatedAt = now
	return nil
}

// ConsumeVerificationToken atomically looks up a token of the given purpose
// and deletes it, making tokens single-use. Expired tokens are deleted too
// but reported as ErrTokenExpired.
func (db *DB) ConsumeVerificationToken(ctx context.Context, token, purpose string) (*models.VerificationToken, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var t models.VerificationToken
	err = tx.QueryRowContext(ctx,
		`SELECT token, client_id, purpose, expires_at, created_at
		 FROM verification_tokens WHERE token = ? AND purpose = ?`,
		token, purpose).Scan(&t.Token, &t.ClientID, &t.Purpose, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification token: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM verification_tokens WHERE token = ?`, token); err != nil {
		return nil, fmt.Errorf("failed to delete verification token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit token consumption: %w", err)
	}

	if time.Now().After(t.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	return &t, nil
}
