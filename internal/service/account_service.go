package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"piscineiro/internal/domain"
	"piscineiro/internal/events"
	"piscineiro/internal/mail"
	"piscineiro/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// AccountService handles registration, e-mail verification, sessions and
// password resets for clients.
type AccountService struct {
	repo       domain.Repository
	sessions   domain.SessionRepository
	mailWorker domain.MailEnqueuer
	eventBus   domain.EventPublisher
	baseURL    string
	tokenTTL   time.Duration
	logger     *zerolog.Logger
}

func NewAccountService(repo domain.Repository, sessions domain.SessionRepository, mailWorker domain.MailEnqueuer, eventBus domain.EventPublisher, baseURL string, logger *zerolog.Logger) *AccountService {
	return &AccountService{
		repo:       repo,
		sessions:   sessions,
		mailWorker: mailWorker,
		eventBus:   eventBus,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenTTL:   time.Duration(models.DefaultVerificationTTL) * time.Second,
		logger:     logger,
	}
}

// Register creates the account and mails a verification link. The password
// never leaves this method unhashed.
func (s *AccountService) Register(ctx context.Context, name, email, password, phone string) (*models.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	client := &models.Client{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(phone),
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, err
	}

	if err := s.sendTokenMail(ctx, client, models.TokenPurposeVerifyEmail, mail.TypeVerifyEmail, "/verify"); err != nil {
		// The account exists; verification can be re-requested later.
		s.logger.Error().Err(err).Str("client_id", client.ID).Msg("send verification mail")
	}

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventClientRegistered, events.ClientEventPayload{
			ClientID: client.ID,
			Name:     client.Name,
			Email:    client.Email,
		})
	}

	return client, nil
}

// VerifyEmail burns the token and flips the account to verified.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) error {
	t, err := s.repo.ConsumeVerificationToken(ctx, token, models.TokenPurposeVerifyEmail)
	if err != nil {
		return err
	}
	return s.repo.MarkEmailVerified(ctx, t.ClientID)
}

// Login checks the password and opens a session. The same error covers
// unknown e-mail and wrong password.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Session, *models.Client, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	client, err := s.repo.GetClientByEmail(ctx, email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(client.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session := &models.Session{
		Token:     uuid.NewString(),
		ClientID:  client.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.SetSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("store session: %w", err)
	}
	return session, client, nil
}

func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.ClearSession(ctx, token)
}

// Authenticate resolves a bearer token to the owning client id.
func (s *AccountService) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNotAuthenticated
	}
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return "", ErrNotAuthenticated
	}
	return session.ClientID, nil
}

// RequestPasswordReset mails a reset link. Unknown e-mails are ignored
// silently so the endpoint does not leak which addresses exist.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	client, err := s.repo.GetClientByEmail(ctx, email)
	if err != nil {
		s.logger.Info().Str("email", email).Msg("password reset requested for unknown email")
		return nil
	}
	return s.sendTokenMail(ctx, client, models.TokenPurposeResetPassword, mail.TypePasswordReset, "/reset")
}

// ResetPassword burns the token and replaces the password.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}

	t, err := s.repo.ConsumeVerificationToken(ctx, token, models.TokenPurposeResetPassword)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdateClientPassword(ctx, t.ClientID, string(hash))
}

func (s *AccountService) sendTokenMail(ctx context.Context, client *models.Client, purpose, mailType, path string) error {
	token := &models.VerificationToken{
		Token:     uuid.NewString(),
		ClientID:  client.ID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.tokenTTL),
	}
	if err := s.repo.CreateVerificationToken(ctx, token); err != nil {
		return err
	}

	if s.mailWorker == nil {
		return nil
	}
	payload := mail.VerificationPayload{
		Name: client.Name,
		Link: fmt.Sprintf("%s%s?token=%s", s.baseURL, path, token.Token),
	}
	return s.mailWorker.EnqueueMail(ctx, mailType, client.Email, payload)
}
