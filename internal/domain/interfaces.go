package domain

import (
	"context"
	"time"

	"piscineiro/internal/models"
)

type Repository interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	GetClientByEmail(ctx context.Context, email string) (*models.Client, error)
	MarkEmailVerified(ctx context.Context, clientID string) error
	UpdateClientPassword(ctx context.Context, clientID, passwordHash string) error
	CreateVerificationToken(ctx context.Context, token *models.VerificationToken) error
	ConsumeVerificationToken(ctx context.Context, token, purpose string) (*models.VerificationToken, error)

	CreateProvider(ctx context.Context, p *models.Provider) error
	GetProvider(ctx context.Context, id string) (*models.Provider, error)
	SearchProvidersByCity(ctx context.Context, city string) ([]*models.Provider, error)
	ListProviders(ctx context.Context) ([]*models.Provider, error)
	SetProviderActive(ctx context.Context, id string, active bool) error
	BookedSlotsForDate(ctx context.Context, providerID, date string) ([]models.BookedSlot, error)

	BookAppointmentTx(ctx context.Context, appt *models.Appointment, now time.Time) error
	CancelAppointmentTx(ctx context.Context, appointmentID, clientID string) error
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ListClientAppointments(ctx context.Context, clientID string) ([]*models.Appointment, error)
	GetAppointmentsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Appointment, error)

	AddFavorite(ctx context.Context, clientID, providerID string) error
	RemoveFavorite(ctx context.Context, clientID, providerID string) error
	ListFavorites(ctx context.Context, clientID string) ([]*models.Provider, error)
	IsFavorite(ctx context.Context, clientID, providerID string) (bool, error)
}

// SessionRepository stores login sessions and per-client rate counters.
// Implementations: Redis (primary), in-memory (fallback).
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	ClearSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// MailSender delivers one rendered message.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailEnqueuer hands mail tasks to the outbox worker.
type MailEnqueuer interface {
	EnqueueMail(ctx context.Context, mailType, recipient string, payload interface{}) error
}

type BookingService interface {
	ProviderSlots(ctx context.Context, providerID, date string) ([]models.SlotStatus, error)
	AttemptBooking(ctx context.Context, req *models.BookingRequest) (*models.Appointment, error)
	CancelBooking(ctx context.Context, appointmentID, clientID string) error
	ClientAppointments(ctx context.Context, clientID string) ([]*models.Appointment, error)
}

type AccountService interface {
	Register(ctx context.Context, name, email, password, phone string) (*models.Client, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*models.Session, *models.Client, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type ProviderService interface {
	SearchByCity(ctx context.Context, city string) ([]*models.Provider, error)
	Get(ctx context.Context, id string) (*models.Provider, error)
	AddFavorite(ctx context.Context, clientID, providerID string) error
	RemoveFavorite(ctx context.Context, clientID, providerID string) error
	Favorites(ctx context.Context, clientID string) ([]*models.Provider, error)
}
