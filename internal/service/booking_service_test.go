package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"piscineiro/internal/database"
	"piscineiro/internal/events"
	"piscineiro/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMailQueue records enqueued mail instead of delivering it.
type fakeMailQueue struct {
	types      []string
	recipients []string
}

func (f *fakeMailQueue) EnqueueMail(_ context.Context, mailType, recipient string, _ interface{}) error {
	f.types = append(f.types, mailType)
	f.recipients = append(f.recipients, recipient)
	return nil
}

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProvider(t *testing.T, db *database.DB) *models.Provider {
	t.Helper()
	p := &models.Provider{
		ID:           uuid.NewString(),
		Name:         "Carlos Mendes",
		Phone:        "+55 11 91234-5678",
		Email:        "carlos@example.com",
		City:         "São Paulo",
		State:        "SP",
		CitiesServed: []string{"São Paulo", "Guarulhos"},
		Hours:        models.WorkingHours{Start: "08:00", End: "18:00"},
		Services: []models.Service{
			{Description: "Limpeza completa", Price: 150},
			{Description: "Tratamento químico", Price: 90},
		},
		IsActive: true,
	}
	require.NoError(t, db.CreateProvider(context.Background(), p))
	return p
}

func seedClient(t *testing.T, db *database.DB, email string) *models.Client {
	t.Helper()
	c := &models.Client{
		ID:           uuid.NewString(),
		Name:         "Ana Souza",
		Email:        email,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Phone:        "+55 11 99876-5432",
	}
	require.NoError(t, db.CreateClient(context.Background(), c))
	return c
}

func newBookingService(t *testing.T, db *database.DB, mails *fakeMailQueue, now time.Time) *BookingService {
	t.Helper()
	logger := zerolog.Nop()
	svc := NewBookingService(db, events.NewEventBus(), mails, 60, models.NotesMaxLen, &logger)
	svc.now = func() time.Time { return now }
	return svc
}

func validRequest(provider *models.Provider, client *models.Client) *models.BookingRequest {
	return &models.BookingRequest{
		ClientID:      client.ID,
		ProviderID:    provider.ID,
		Date:          "2026-03-11",
		Time:          "10:00",
		ServiceID:     provider.Services[0].ID,
		PaymentMethod: models.PaymentPix,
		Notes:         "Portão lateral, cachorro no quintal",
	}
}

// 2026-03-10 12:30 local time; bookings target the following day.
var testNow = time.Date(2026, 3, 10, 12, 30, 0, 0, time.Local)

func TestProviderSlots(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	mails := &fakeMailQueue{}
	svc := newBookingService(t, db, mails, testNow)
	ctx := context.Background()

	_, err := svc.AttemptBooking(ctx, validRequest(provider, client))
	require.NoError(t, err)

	slots, err := svc.ProviderSlots(ctx, provider.ID, "2026-03-11")
	require.NoError(t, err)
	require.Len(t, slots, 10) // 08:00 .. 17:00

	for _, s := range slots {
		if s.Time == "10:00" {
			assert.False(t, s.Bookable)
			assert.Equal(t, "already_booked", s.Reason)
		} else {
			assert.True(t, s.Bookable, "slot %s should be free", s.Time)
			assert.Empty(t, s.Reason)
		}
	}
}

func TestProviderSlots_SameDayPastMarked(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)

	slots, err := svc.ProviderSlots(context.Background(), provider.ID, testNow.Format(models.DateLayout))
	require.NoError(t, err)

	for _, s := range slots {
		if s.Time <= "12:30" {
			assert.False(t, s.Bookable, "slot %s already passed", s.Time)
			assert.Equal(t, "past", s.Reason)
		} else {
			assert.True(t, s.Bookable, "slot %s is still ahead", s.Time)
		}
	}
}

func TestProviderSlots_BadDate(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)

	_, err := svc.ProviderSlots(context.Background(), provider.ID, "11/03/2026")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestAttemptBooking_Success(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	mails := &fakeMailQueue{}
	svc := newBookingService(t, db, mails, testNow)
	ctx := context.Background()

	appt, err := svc.AttemptBooking(ctx, validRequest(provider, client))
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, appt.Status)
	assert.Equal(t, provider.Name, appt.ProviderName)
	assert.Equal(t, "Limpeza completa", appt.ServiceDescription)
	assert.Equal(t, 150.0, appt.ServicePrice)

	stored, err := db.GetAppointment(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.ID, stored.ID)

	booked, err := db.BookedSlotsForDate(ctx, provider.ID, "2026-03-11")
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, appt.ID, booked[0].AppointmentID)

	require.Len(t, mails.types, 1)
	assert.Equal(t, "booking_confirmation", mails.types[0])
	assert.Equal(t, client.Email, mails.recipients[0])
}

func TestAttemptBooking_SlotTaken(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	first := seedClient(t, db, "ana@example.com")
	second := seedClient(t, db, "bia@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)
	ctx := context.Background()

	_, err := svc.AttemptBooking(ctx, validRequest(provider, first))
	require.NoError(t, err)

	_, err = svc.AttemptBooking(ctx, validRequest(provider, second))
	assert.ErrorIs(t, err, database.ErrSlotTaken)
}

func TestAttemptBooking_PastSlotSameDay(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)

	req := validRequest(provider, client)
	req.Date = testNow.Format(models.DateLayout)
	req.Time = "09:00"

	_, err := svc.AttemptBooking(context.Background(), req)
	assert.ErrorIs(t, err, database.ErrSlotPast)
}

func TestAttemptBooking_OutsideWorkingHours(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)

	req := validRequest(provider, client)
	req.Time = "19:00"

	_, err := svc.AttemptBooking(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotNotBookable)
}

func TestAttemptBooking_Validation(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)
	ctx := context.Background()

	t.Run("BadDate", func(t *testing.T) {
		req := validRequest(provider, client)
		req.Date = "tomorrow"
		_, err := svc.AttemptBooking(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("PastDay", func(t *testing.T) {
		req := validRequest(provider, client)
		req.Date = "2026-03-09"
		_, err := svc.AttemptBooking(ctx, req)
		assert.ErrorIs(t, err, database.ErrSlotPast)
	})

	t.Run("TooFarAhead", func(t *testing.T) {
		req := validRequest(provider, client)
		req.Date = "2026-09-01"
		_, err := svc.AttemptBooking(ctx, req)
		assert.ErrorIs(t, err, ErrDateTooFar)
	})

	t.Run("BadPaymentMethod", func(t *testing.T) {
		req := validRequest(provider, client)
		req.PaymentMethod = "barter"
		_, err := svc.AttemptBooking(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
	})

	t.Run("NotesTooLong", func(t *testing.T) {
		req := validRequest(provider, client)
		req.Notes = strings.Repeat("x", models.NotesMaxLen+1)
		_, err := svc.AttemptBooking(ctx, req)
		assert.ErrorIs(t, err, ErrNotesTooLong)
	})

	t.Run("UnknownService", func(t *testing.T) {
		req := validRequest(provider, client)
		req.ServiceID = 9999
		_, err := svc.AttemptBooking(ctx, req)
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})
}

func TestAttemptBooking_InactiveProvider(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)
	ctx := context.Background()

	require.NoError(t, db.SetProviderActive(ctx, provider.ID, false))

	_, err := svc.AttemptBooking(ctx, validRequest(provider, client))
	assert.ErrorIs(t, err, ErrProviderInactive)
}

func TestCancelBooking(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	mails := &fakeMailQueue{}
	svc := newBookingService(t, db, mails, testNow)
	ctx := context.Background()

	appt, err := svc.AttemptBooking(ctx, validRequest(provider, client))
	require.NoError(t, err)

	require.NoError(t, svc.CancelBooking(ctx, appt.ID, client.ID))

	// Appointment gone, slot free again
	_, err = db.GetAppointment(ctx, appt.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)

	booked, err := db.BookedSlotsForDate(ctx, provider.ID, appt.Date)
	require.NoError(t, err)
	assert.Empty(t, booked)

	require.Len(t, mails.types, 2)
	assert.Equal(t, "booking_cancelled", mails.types[1])
}

func TestCancelBooking_WrongClient(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	owner := seedClient(t, db, "ana@example.com")
	other := seedClient(t, db, "bia@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)
	ctx := context.Background()

	appt, err := svc.AttemptBooking(ctx, validRequest(provider, owner))
	require.NoError(t, err)

	err = svc.CancelBooking(ctx, appt.ID, other.ID)
	assert.ErrorIs(t, err, database.ErrNotOwner)

	// Still booked
	_, err = db.GetAppointment(ctx, appt.ID)
	assert.NoError(t, err)
}

func TestClientAppointments(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	svc := newBookingService(t, db, &fakeMailQueue{}, testNow)
	ctx := context.Background()

	req := validRequest(provider, client)
	_, err := svc.AttemptBooking(ctx, req)
	require.NoError(t, err)

	later := validRequest(provider, client)
	later.Date = "2026-03-12"
	_, err = svc.AttemptBooking(ctx, later)
	require.NoError(t, err)

	appts, err := svc.ClientAppointments(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, appts, 2)
	assert.Equal(t, "2026-03-12", appts[0].Date) // newest first
}

func TestBookingPublishesEvents(t *testing.T) {
	db := setupTestDB(t)
	provider := seedProvider(t, db)
	client := seedClient(t, db, "ana@example.com")
	logger := zerolog.Nop()

	bus := events.NewEventBus()
	var seen []string
	bus.Subscribe(events.EventAppointmentCreated, func(e *events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})
	bus.Subscribe(events.EventAppointmentCancelled, func(e *events.Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	svc := NewBookingService(db, bus, &fakeMailQueue{}, 60, models.NotesMaxLen, &logger)
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	appt, err := svc.AttemptBooking(ctx, validRequest(provider, client))
	require.NoError(t, err)
	require.NoError(t, svc.CancelBooking(ctx, appt.ID, client.ID))

	assert.Equal(t, []string{events.EventAppointmentCreated, events.EventAppointmentCancelled}, seen)
}
