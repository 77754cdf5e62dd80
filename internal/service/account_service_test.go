package service

import (
	"context"
	"testing"
	"time"

	"piscineiro/internal/database"
	"piscineiro/internal/models"
	"piscineiro/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(t *testing.T, db *database.DB, mails *fakeMailQueue) *AccountService {
	t.Helper()
	logger := zerolog.Nop()
	sessions := repository.NewMemorySessionRepository(time.Hour)
	return NewAccountService(db, sessions, mails, nil, "https://piscineiro.test", &logger)
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	mails := &fakeMailQueue{}
	svc := newAccountService(t, db, mails)
	ctx := context.Background()

	client, err := svc.Register(ctx, "Ana Souza", "  Ana@Example.COM ", "s3creta", "+55 11 99876-5432")
	require.NoError(t, err)

	assert.NotEmpty(t, client.ID)
	assert.Equal(t, "ana@example.com", client.Email)
	assert.NotEqual(t, "s3creta", client.PasswordHash)

	stored, err := db.GetClientByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.False(t, stored.EmailVerified)

	require.Len(t, mails.types, 1)
	assert.Equal(t, "verify_email", mails.types[0])
	assert.Equal(t, "ana@example.com", mails.recipients[0])
}

func TestRegister_Validation(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db, &fakeMailQueue{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "not-an-email", "s3creta", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, "Ana", "ana@example.com", "short", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db, &fakeMailQueue{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "s3creta", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Outra Ana", "ANA@example.com", "s3creta", "")
	assert.ErrorIs(t, err, database.ErrDuplicateEmail)
}

func TestVerifyEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db, &fakeMailQueue{})
	ctx := context.Background()

	client, err := svc.Register(ctx, "Ana", "ana@example.com", "s3creta", "")
	require.NoError(t, err)

	token := lastIssuedToken(t, db, client.ID, models.TokenPurposeVerifyEmail)
	require.NoError(t, svc.VerifyEmail(ctx, token))

	stored, err := db.GetClient(ctx, client.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailVerified)

	// One-shot token
	err = svc.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestLoginLogoutAuthenticate(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db, &fakeMailQueue{})
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ana", "ana@example.com", "s3creta", "")
	require.NoError(t, err)

	session, client, err := svc.Login(ctx, "ana@example.com", "s3creta")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, client.ID)
	assert.NotEmpty(t, session.Token)

	clientID, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, clientID)

	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogin_BadCredentials(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db, &fakeMailQueue{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "s3creta", "")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3creta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordReset(t *testing.T) {
	db := setupTestDB(t)
	mails := &fakeMailQueue{}
	svc := newAccountService(t, db, mails)
	ctx := context.Background()

	client, err := svc.Register(ctx, "Ana", "ana@example.com", "s3creta", "")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ana@example.com"))
	require.Len(t, mails.types, 2)
	assert.Equal(t, "password_reset", mails.types[1])

	token := lastIssuedToken(t, db, client.ID, models.TokenPurposeResetPassword)
	require.NoError(t, svc.ResetPassword(ctx, token, "n0vasenha"))

	_, _, err = svc.Login(ctx, "ana@example.com", "s3creta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "ana@example.com", "n0vasenha")
	assert.NoError(t, err)
}

func TestPasswordReset_UnknownEmailSilent(t *testing.T) {
	db := setupTestDB(t)
	mails := &fakeMailQueue{}
	svc := newAccountService(t, db, mails)

	err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	assert.NoError(t, err)
	assert.Empty(t, mails.types)
}

func TestResetPassword_WeakPassword(t *testing.T) {
	db := setupTestDB(t)
	svc := newAccountService(t, db, &fakeMailQueue{})

	err := svc.ResetPassword(context.Background(), "whatever", "abc")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func lastIssuedToken(t *testing.T, db *database.DB, clientID, purpose string) string {
	t.Helper()
	row := db.QueryRowContext(context.Background(),
		`SELECT token FROM verification_tokens WHERE client_id = ? AND purpose = ? ORDER BY created_at DESC LIMIT 1`,
		clientID, purpose)
	var token string
	require.NoError(t, row.Scan(&token))
	return token
}
