package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"piscineiro/internal/database"
	"piscineiro/internal/models"
	"piscineiro/internal/schedule"
	"piscineiro/internal/service"
)

func (s *HTTPServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	client, err := s.accounts.Register(r.Context(), body.Name, body.Email, body.Password, body.Phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (s *HTTPServer) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.accounts.VerifyEmail(r.Context(), body.Token); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handlePasswordRecover(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.accounts.RequestPasswordReset(r.Context(), body.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	// Always accepted, even for unknown addresses
	w.WriteHeader(http.StatusAccepted)
}

func (s *HTTPServer) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := s.accounts.ResetPassword(r.Context(), body.Token, body.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	session, client, err := s.accounts.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token":  session.Token,
		"client": client,
	})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleSearchProviders(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	providers, err := s.providers.SearchByCity(r.Context(), city)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

func (s *HTTPServer) handleGetProvider(w http.ResponseWriter, r *http.Request) {
	provider, err := s.providers.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, provider)
}

func (s *HTTPServer) handleProviderSlots(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	slots, err := s.bookings.ProviderSlots(r.Context(), r.PathValue("id"), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}

func (s *HTTPServer) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ClientID = ClientID(r.Context())

	appt, err := s.bookings.AttemptBooking(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.bookings.ClientAppointments(r.Context(), ClientID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

func (s *HTTPServer) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	err := s.bookings.CancelBooking(r.Context(), r.PathValue("id"), ClientID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.providers.Favorites(r.Context(), ClientID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

func (s *HTTPServer) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	err := s.providers.AddFavorite(r.Context(), ClientID(r.Context()), r.PathValue("providerID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	err := s.providers.RemoveFavorite(r.Context(), ClientID(r.Context()), r.PathValue("providerID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExport builds an xlsx schedule for the requested range and streams it
// back. Defaults to the next 7 days.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	if start == "" {
		start = time.Now().Format(models.DateLayout)
	}
	if end == "" {
		end = time.Now().AddDate(0, 0, 7).Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date; expected YYYY-MM-DD")
		return
	}
	if _, err := time.Parse(models.DateLayout, end); err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date; expected YYYY-MM-DD")
		return
	}

	path, err := s.exporter.AppointmentsReport(r.Context(), start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="agendamentos.xlsx"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeServiceError maps sentinel errors from the lower layers onto HTTP
// status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, database.ErrSlotTaken),
		errors.Is(err, database.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrTokenExpired):
		writeError(w, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, database.ErrSlotPast),
		errors.Is(err, service.ErrSlotNotBookable),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrDateTooFar),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrNotesTooLong),
		errors.Is(err, service.ErrProviderInactive),
		errors.Is(err, service.ErrServiceNotFound),
		errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, schedule.ErrInvalidWorkingHours):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
