package mail

import (
	"encoding/json"
	"fmt"
)

const (
	TypeVerifyEmail         = "verify_email"
	TypePasswordReset       = "password_reset"
	TypeBookingConfirmation = "booking_confirmation"
	TypeBookingCancelled    = "booking_cancelled"
)

// VerificationPayload feeds the account mails; Link already carries the token.
type VerificationPayload struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// BookingPayload feeds the appointment mails.
type BookingPayload struct {
	ClientName   string  `json:"client_name"`
	ProviderName string  `json:"provider_name"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Service      string  `json:"service"`
	Price        float64 `json:"price"`
}

// Render turns a queued mail task into subject and body.
func Render(mailType, payload string) (subject, body string, err error) {
	switch mailType {
	case TypeVerifyEmail:
		var p VerificationPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return "", "", fmt.Errorf("decode %s payload: %w", mailType, err)
		}
		subject = "Confirme seu e-mail"
		body = fmt.Sprintf(
			"Olá %s,\n\nConfirme seu e-mail para ativar sua conta:\n%s\n\nSe você não criou esta conta, ignore esta mensagem.",
			p.Name, p.Link)

	case TypePasswordReset:
		var p VerificationPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return "", "", fmt.Errorf("decode %s payload: %w", mailType, err)
		}
		subject = "Redefinição de senha"
		body = fmt.Sprintf(
			"Olá %s,\n\nRecebemos um pedido para redefinir sua senha. Use o link abaixo:\n%s\n\nSe não foi você, ignore esta mensagem.",
			p.Name, p.Link)

	case TypeBookingConfirmation:
		var p BookingPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return "", "", fmt.Errorf("decode %s payload: %w", mailType, err)
		}
		subject = "Agendamento confirmado"
		body = fmt.Sprintf(
			"Olá %s,\n\nSeu agendamento foi confirmado:\n\nPiscineiro: %s\nData: %s às %s\nServiço: %s\nValor: R$ %.2f",
			p.ClientName, p.ProviderName, p.Date, p.Time, p.Service, p.Price)

	case TypeBookingCancelled:
		var p BookingPayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return "", "", fmt.Errorf("decode %s payload: %w", mailType, err)
		}
		subject = "Agendamento cancelado"
		body = fmt.Sprintf(
			"Olá %s,\n\nSeu agendamento com %s em %s às %s foi cancelado.",
			p.ClientName, p.ProviderName, p.Date, p.Time)

	default:
		return "", "", fmt.Errorf("unknown mail type %q", mailType)
	}
	return subject, body, nil
}
