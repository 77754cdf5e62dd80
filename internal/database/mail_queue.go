package database

import (
	"context"
	"fmt"
	"time"

	"piscineiro/internal/models"
)

func (db *DB) CreateMailTask(ctx context.Context, task *models.MailTask) error {
	query := `INSERT INTO mail_queue (mail_type, recipient, payload, status, retry_count, last_error, created_at, next_retry_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.MailType,
		task.Recipient,
		task.Payload,
		task.Status,
		task.RetryCount,
		task.LastError,
		now,
		task.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create mail task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now

	return nil
}

func (db *DB) GetPendingMailTasks(ctx context.Context, limit int) ([]models.MailTask, error) {
	query := `SELECT id, mail_type, recipient, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
	          FROM mail_queue
	          WHERE status IN ('pending', 'retry') AND (next_retry_at IS NULL OR next_retry_at <= ?)
	          ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending mail tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.MailTask
	for rows.Next() {
		var t models.MailTask
		err := rows.Scan(
			&t.ID, &t.MailType, &t.Recipient, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateMailTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error {
	var query string
	var args []interface{}
	now := time.Now()

	switch status {
	case "retry":
		query = `UPDATE mail_queue SET status = ?, last_error = ?, next_retry_at = ?, retry_count = retry_count + 1 WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	case "completed", "failed":
		query = `UPDATE mail_queue SET status = ?, last_error = ?, next_retry_at = ?, processed_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, &now, id}
	default:
		query = `UPDATE mail_queue SET status = ?, last_error = ?, next_retry_at = ? WHERE id = ?`
		args = []interface{}{status, errMsg, nextRetryAt, id}
	}

	_, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update mail task status: %w", err)
	}
	return nil
}

func (db *DB) GetFailedMailTasks(ctx context.Context) ([]models.MailTask, error) {
	query := `SELECT id, mail_type, recipient, payload, status, retry_count, last_error, created_at, processed_at, next_retry_at
	          FROM mail_queue WHERE status = 'failed' ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get failed mail tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.MailTask
	for rows.Next() {
		var t models.MailTask
		err := rows.Scan(
			&t.ID, &t.MailType, &t.Recipient, &t.Payload, &t.Status, &t.RetryCount, &t.LastError, &t.CreatedAt, &t.ProcessedAt, &t.NextRetryAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
