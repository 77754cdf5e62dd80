package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"piscineiro/internal/database"
	"piscineiro/internal/domain"
	"piscineiro/internal/events"
	"piscineiro/internal/mail"
	"piscineiro/internal/metrics"
	"piscineiro/internal/models"
	"piscineiro/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidDate          = errors.New("invalid date")
	ErrDateTooFar           = errors.New("date is too far in the future")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotesTooLong         = errors.New("notes exceed the allowed length")
	ErrProviderInactive     = errors.New("provider is not active")
	ErrServiceNotFound      = errors.New("service not offered by provider")
	ErrSlotNotBookable      = errors.New("slot is not bookable")
)

// BookingService drives the booking flow: availability views, the
// optimistic-then-transactional booking attempt, and cancellation.
type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	mailWorker     domain.MailEnqueuer
	maxBookingDays int
	notesMaxLen    int
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, mailWorker domain.MailEnqueuer, maxBookingDays, notesMaxLen int, logger *zerolog.Logger) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = 365
	}
	if notesMaxLen <= 0 {
		notesMaxLen = models.NotesMaxLen
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		mailWorker:     mailWorker,
		maxBookingDays: maxBookingDays,
		notesMaxLen:    notesMaxLen,
		now:            time.Now,
		logger:         logger,
	}
}

// ProviderSlots returns every slot of the provider's working day for the given
// date, each flagged bookable or carrying the blocking reason.
func (s *BookingService) ProviderSlots(ctx context.Context, providerID, date string) ([]models.SlotStatus, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}

	provider, err := s.repo.GetProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	slots, err := schedule.DaySlots(provider.Hours)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.BookedSlotsForDate(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	statuses := make([]models.SlotStatus, 0, len(slots))
	for _, slot := range slots {
		c := schedule.Classify(day, slot, provider.Hours, booked, now)
		statuses = append(statuses, models.SlotStatus{
			Time:     slot,
			Bookable: c.Bookable,
			Reason:   string(c.Reason),
		})
	}
	return statuses, nil
}

// AttemptBooking validates the request, runs the optimistic slot check and
// then the transactional double-write. A conflict detected inside the
// transaction means a concurrent booking won the race; it surfaces as
// ErrSlotTaken/ErrSlotPast exactly like the optimistic rejection, but is
// counted separately.
func (s *BookingService) AttemptBooking(ctx context.Context, req *models.BookingRequest) (*models.Appointment, error) {
	if err := s.validateRequest(req); err != nil {
		metrics.IncBooking("rejected")
		return nil, err
	}

	provider, err := s.repo.GetProvider(ctx, req.ProviderID)
	if err != nil {
		metrics.IncBooking("error")
		return nil, err
	}
	if !provider.IsActive {
		metrics.IncBooking("rejected")
		return nil, ErrProviderInactive
	}

	var svc *models.Service
	for i := range provider.Services {
		if provider.Services[i].ID == req.ServiceID {
			svc = &provider.Services[i]
			break
		}
	}
	if svc == nil {
		metrics.IncBooking("rejected")
		return nil, ErrServiceNotFound
	}

	// Optimistic pre-check against the current availability view
	day, _ := time.Parse(models.DateLayout, req.Date)
	booked, err := s.repo.BookedSlotsForDate(ctx, req.ProviderID, req.Date)
	if err != nil {
		metrics.IncBooking("error")
		return nil, err
	}
	now := s.now()
	if c := schedule.Classify(day, req.Time, provider.Hours, booked, now); !c.Bookable {
		metrics.IncBooking("rejected")
		switch c.Reason {
		case schedule.ReasonPast:
			return nil, database.ErrSlotPast
		case schedule.ReasonTaken:
			return nil, database.ErrSlotTaken
		default:
			return nil, fmt.Errorf("%w: %s", ErrSlotNotBookable, c.Reason)
		}
	}

	appt := &models.Appointment{
		ID:                 uuid.NewString(),
		ProviderID:         provider.ID,
		ProviderName:       provider.Name,
		ClientID:           req.ClientID,
		Date:               req.Date,
		Time:               req.Time,
		ServiceDescription: svc.Description,
		ServicePrice:       svc.Price,
		PaymentMethod:      req.PaymentMethod,
		Notes:              req.Notes,
		Status:             models.StatusConfirmed,
	}

	if err := s.repo.BookAppointmentTx(ctx, appt, now); err != nil {
		if errors.Is(err, database.ErrSlotTaken) || errors.Is(err, database.ErrSlotPast) {
			// The slot was free a moment ago: a concurrent writer won it.
			metrics.IncBooking("race_lost")
			s.logger.Info().
				Str("provider_id", req.ProviderID).
				Str("date", req.Date).
				Str("time", req.Time).
				Msg("booking lost the slot race")
			return nil, err
		}
		metrics.IncBooking("error")
		return nil, err
	}

	metrics.IncBooking("confirmed")
	s.publishAppointmentEvent(events.EventAppointmentCreated, appt)
	s.enqueueBookingMail(ctx, mail.TypeBookingConfirmation, appt)

	return appt, nil
}

// CancelBooking removes the appointment and frees the slot atomically.
func (s *BookingService) CancelBooking(ctx context.Context, appointmentID, clientID string) error {
	appt, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := s.repo.CancelAppointmentTx(ctx, appointmentID, clientID); err != nil {
		return err
	}

	appt.Status = models.StatusCancelled
	s.publishAppointmentEvent(events.EventAppointmentCancelled, appt)
	s.enqueueBookingMail(ctx, mail.TypeBookingCancelled, appt)
	return nil
}

func (s *BookingService) ClientAppointments(ctx context.Context, clientID string) ([]*models.Appointment, error) {
	return s.repo.ListClientAppointments(ctx, clientID)
}

func (s *BookingService) validateRequest(req *models.BookingRequest) error {
	day, err := time.Parse(models.DateLayout, req.Date)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if _, err := time.Parse(models.SlotTimeLayout, req.Time); err != nil {
		return fmt.Errorf("%w: bad slot time %q", ErrInvalidDate, req.Time)
	}

	now := s.now()
	today, _ := time.Parse(models.DateLayout, now.Format(models.DateLayout))
	if day.Before(today) {
		return database.ErrSlotPast
	}
	if day.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return ErrDateTooFar
	}

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	if len([]rune(req.Notes)) > s.notesMaxLen {
		return ErrNotesTooLong
	}
	return nil
}

func (s *BookingService) publishAppointmentEvent(eventType string, appt *models.Appointment) {
	if s.eventBus == nil {
		return
	}

	payload := events.AppointmentEventPayload{
		AppointmentID:      appt.ID,
		ProviderID:         appt.ProviderID,
		ProviderName:       appt.ProviderName,
		ClientID:           appt.ClientID,
		Date:               appt.Date,
		Time:               appt.Time,
		ServiceDescription: appt.ServiceDescription,
		ServicePrice:       appt.ServicePrice,
		Status:             appt.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("appointment_id", appt.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueBookingMail(ctx context.Context, mailType string, appt *models.Appointment) {
	if s.mailWorker == nil {
		return
	}

	client, err := s.repo.GetClient(ctx, appt.ClientID)
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", appt.ClientID).Msg("load client for mail")
		return
	}

	payload := mail.BookingPayload{
		ClientName:   client.Name,
		ProviderName: appt.ProviderName,
		Date:         appt.Date,
		Time:         appt.Time,
		Service:      appt.ServiceDescription,
		Price:        appt.ServicePrice,
	}
	if err := s.mailWorker.EnqueueMail(ctx, mailType, client.Email, payload); err != nil {
		s.logger.Error().Err(err).Str("appointment_id", appt.ID).Str("mail_type", mailType).Msg("mail enqueue error")
	}
}
