package database

import (
	"context"
	"fmt"
	"time"

	"piscineiro/internal/models"
)

func (db *DB) AddFavorite(ctx context.Context, clientID, providerID string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO favorites (client_id, provider_id, created_at) VALUES (?, ?, ?)`,
		clientID, providerID, time.Now())
	if err != nil {
		// Favoriting twice is a no-op, not an error.
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (db *DB) RemoveFavorite(ctx context.Context, clientID, providerID string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM favorites WHERE client_id = ? AND provider_id = ?`,
		clientID, providerID)
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListFavorites(ctx context.Context, clientID string) ([]*models.Provider, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT provider_id FROM favorites WHERE client_id = ? ORDER BY created_at DESC`,
		clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	providers := make([]*models.Provider, 0, len(ids))
	for _, id := range ids {
		p, err := db.GetProvider(ctx, id)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func (db *DB) IsFavorite(ctx context.Context, clientID, providerID string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM favorites WHERE client_id = ? AND provider_id = ?`,
		clientID, providerID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}
