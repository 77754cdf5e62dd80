package models

import "time"

// MailTask is one row of the outgoing-mail outbox.
type MailTask struct {
	ID          int64      `json:"id"`
	MailType    string     `json:"mail_type"`
	Recipient   string     `json:"recipient"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"` // pending, retry, completed, failed
	RetryCount  int        `json:"retry_count"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
