package models

import "time"

// Client is a registered end user of the marketplace.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Phone         string    `json:"phone,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session binds an opaque bearer token to an authenticated client id.
type Session struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationToken is a one-shot token mailed to a client, either to confirm
// the e-mail address or to authorize a password reset.
type VerificationToken struct {
	Token     string    `json:"token"`
	ClientID  string    `json:"client_id"`
	Purpose   string    `json:"purpose"` // verify_email, reset_password
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
