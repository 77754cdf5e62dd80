package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"piscineiro/internal/models"
)

// BookAppointmentTx re-validates the slot inside a transaction and then writes
// the appointment record and the provider's slot marker as one atomic unit.
// It returns ErrSlotTaken when a competing booking won the slot between the
// caller's optimistic check and this commit, and ErrSlotPast when the slot's
// moment passed in that window.
func (db *DB) BookAppointmentTx(ctx context.Context, appt *models.Appointment, now time.Time) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 1. Re-check the slot inside the transaction
	var taken int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM provider_slots WHERE provider_id = ? AND date = ? AND time = ?`,
		appt.ProviderID, appt.Date, appt.Time).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if taken > 0 {
		return ErrSlotTaken
	}

	if slotMomentPassed(appt.Date, appt.Time, now) {
		return ErrSlotPast
	}

	// 2. Write the appointment and the slot marker together
	created := now
	_, err = tx.ExecContext(ctx,
		`INSERT INTO appointments (
			id, provider_id, provider_name, client_id, date, time,
			service_description, service_price, payment_method, notes, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.ID, appt.ProviderID, appt.ProviderName, appt.ClientID,
		appt.Date, appt.Time, appt.ServiceDescription, appt.ServicePrice,
		appt.PaymentMethod, appt.Notes, appt.Status, created,
	)
	if err != nil {
		return fmt.Errorf("failed to insert appointment in tx: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO provider_slots (provider_id, date, time, client_id, appointment_id)
		 VALUES (?, ?, ?, ?, ?)`,
		appt.ProviderID, appt.Date, appt.Time, appt.ClientID, appt.ID,
	)
	if err != nil {
		// The primary key on (provider_id, date, time) can still fire if a
		// writer slipped in; report it as the same race outcome.
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to insert slot marker in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	appt.CreatedAt = created
	return nil
}

// CancelAppointmentTx removes the appointment record and the matching slot
// marker in one transaction, so the slot reappears as bookable exactly when
// the appointment disappears. Only the owning client may cancel.
func (db *DB) CancelAppointmentTx(ctx context.Context, appointmentID, clientID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var ownerID, providerID, date, slotTime string
	err = tx.QueryRowContext(ctx,
		`SELECT client_id, provider_id, date, time FROM appointments WHERE id = ?`,
		appointmentID).Scan(&ownerID, &providerID, &date, &slotTime)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load appointment in tx: %w", err)
	}
	if ownerID != clientID {
		return ErrNotOwner
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM appointments WHERE id = ?`, appointmentID); err != nil {
		return fmt.Errorf("failed to delete appointment in tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM provider_slots WHERE provider_id = ? AND date = ? AND time = ?`,
		providerID, date, slotTime); err != nil {
		return fmt.Errorf("failed to delete slot marker in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return nil
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var a models.Appointment
	query := `SELECT id, provider_id, provider_name, client_id, date, time,
	                 service_description, service_price, payment_method, notes, status, created_at
	          FROM appointments WHERE id = ?`
	err := db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.ProviderID, &a.ProviderName, &a.ClientID, &a.Date, &a.Time,
		&a.ServiceDescription, &a.ServicePrice, &a.PaymentMethod, &a.Notes,
		&a.Status, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

// ListClientAppointments returns a client's appointments, upcoming first.
func (db *DB) ListClientAppointments(ctx context.Context, clientID string) ([]*models.Appointment, error) {
	query := `SELECT id, provider_id, provider_name, client_id, date, time,
	                 service_description, service_price, payment_method, notes, status, created_at
	          FROM appointments WHERE client_id = ? ORDER BY date DESC, time DESC`
	return db.queryAppointments(ctx, query, clientID)
}

// GetAppointmentsByDateRange returns all appointments with date in [start, end],
// ordered for the export report.
func (db *DB) GetAppointmentsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Appointment, error) {
	query := `SELECT id, provider_id, provider_name, client_id, date, time,
	                 service_description, service_price, payment_method, notes, status, created_at
	          FROM appointments WHERE date >= ? AND date <= ?
	          ORDER BY date ASC, time ASC, provider_name ASC`
	return db.queryAppointments(ctx, query, startDate, endDate)
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...interface{}) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appts []*models.Appointment
	for rows.Next() {
		a := &models.Appointment{}
		err := rows.Scan(
			&a.ID, &a.ProviderID, &a.ProviderName, &a.ClientID, &a.Date, &a.Time,
			&a.ServiceDescription, &a.ServicePrice, &a.PaymentMethod, &a.Notes,
			&a.Status, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}

// slotMomentPassed mirrors the availability rule: only a slot on the current
// calendar day can be past, and a slot equal to now counts as gone.
func slotMomentPassed(date, slot string, now time.Time) bool {
	if date != now.Format(models.DateLayout) {
		return false
	}
	t, err := time.Parse(models.SlotTimeLayout, slot)
	if err != nil {
		return false
	}
	slotAt := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	return !slotAt.After(now)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
