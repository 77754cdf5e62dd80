package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"piscineiro/internal/models"
)

func (db *DB) CreateProvider(ctx context.Context, p *models.Provider) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	query := `INSERT INTO providers (
				id, name, gender, age, phone, email, cpf, cep, street, number,
				district, city, state, photo, hours_start, hours_end, is_active,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		p.ID, p.Name, p.Gender, p.Age, p.Phone, p.Email, p.CPF, p.CEP,
		p.Street, p.Number, p.District, p.City, p.State, p.Photo,
		p.Hours.Start, p.Hours.End, p.IsActive, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	for _, city := range p.CitiesServed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO provider_cities (provider_id, city) VALUES (?, ?)`,
			p.ID, city); err != nil {
			return fmt.Errorf("failed to add served city: %w", err)
		}
	}

	for i := range p.Services {
		s := &p.Services[i]
		result, err := tx.ExecContext(ctx,
			`INSERT INTO provider_services (provider_id, description, price) VALUES (?, ?, ?)`,
			p.ID, s.Description, s.Price)
		if err != nil {
			return fmt.Errorf("failed to add service: %w", err)
		}
		s.ID, _ = result.LastInsertId()
		s.ProviderID = p.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit provider: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetProvider(ctx context.Context, id string) (*models.Provider, error) {
	var p models.Provider
	query := `SELECT id, name, gender, age, phone, email, cpf, cep, street, number,
	                 district, city, state, photo, hours_start, hours_end, is_active,
	                 created_at, updated_at
	          FROM providers WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Gender, &p.Age, &p.Phone, &p.Email, &p.CPF, &p.CEP,
		&p.Street, &p.Number, &p.District, &p.City, &p.State, &p.Photo,
		&p.Hours.Start, &p.Hours.End, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}

	if p.CitiesServed, err = db.providerCities(ctx, id); err != nil {
		return nil, err
	}
	if p.Services, err = db.providerServices(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (db *DB) providerCities(ctx context.Context, providerID string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT city FROM provider_cities WHERE provider_id = ? ORDER BY city`, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider cities: %w", err)
	}
	defer rows.Close()

	var cities []string
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

func (db *DB) providerServices(ctx context.Context, providerID string) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, provider_id, description, price FROM provider_services WHERE provider_id = ? ORDER BY id`,
		providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider services: %w", err)
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.Description, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// SearchProvidersByCity returns active providers that serve the given city,
// either as their home city or via the served-cities list.
func (db *DB) SearchProvidersByCity(ctx context.Context, city string) ([]*models.Provider, error) {
	query := `SELECT DISTINCT p.id
	          FROM providers p
	          LEFT JOIN provider_cities pc ON pc.provider_id = p.id
	          WHERE p.is_active = 1 AND (p.city = ? OR pc.city = ?)
	          ORDER BY p.id`
	rows, err := db.QueryContext(ctx, query, city, city)
	if err != nil {
		return nil, fmt.Errorf("failed to search providers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan provider id: %w", err)
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

func (db *DB) ListProviders(ctx context.Context) ([]*models.Provider, error) {
	rows, err := db.QueryContext(ctx, `SELECT id FROM providers WHERE is_active = 1 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan provider id: %w", err)
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

func (db *DB) SetProviderActive(ctx context.Context, id string, active bool) error {
	result, err := db.ExecContext(ctx,
		`UPDATE providers SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// BookedSlotsForDate returns the reservation markers of one provider on one day.
func (db *DB) BookedSlotsForDate(ctx context.Context, providerID, date string) ([]models.BookedSlot, error) {
	query := `SELECT provider_id, date, time, client_id, appointment_id
	          FROM provider_slots WHERE provider_id = ? AND date = ? ORDER BY time`
	rows, err := db.QueryContext(ctx, query, providerID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked slots: %w", err)
	}
	defer rows.Close()

	var slots []models.BookedSlot
	for rows.Next() {
		var s models.BookedSlot
		if err := rows.Scan(&s.ProviderID, &s.Date, &s.Time, &s.ClientID, &s.AppointmentID); err != nil {
			return nil, fmt.Errorf("failed to scan booked slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
