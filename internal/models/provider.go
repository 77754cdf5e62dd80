package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WorkingHours is a provider's daily attendance window [Start, End),
// both in 24-hour "HH:MM" form.
type WorkingHours struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

func (h WorkingHours) IsZero() bool {
	return h.Start == "" && h.End == ""
}

// Validate checks that both bounds parse as HH:MM and the window is non-empty.
func (h WorkingHours) Validate() error {
	start, err := time.Parse(SlotTimeLayout, h.Start)
	if err != nil {
		return fmt.Errorf("invalid working hours start %q: %w", h.Start, err)
	}
	end, err := time.Parse(SlotTimeLayout, h.End)
	if err != nil {
		return fmt.Errorf("invalid working hours end %q: %w", h.End, err)
	}
	if !end.After(start) {
		return fmt.Errorf("working hours window %q-%q is empty", h.Start, h.End)
	}
	return nil
}

// ParseWorkingHours decodes the legacy representations that provider records
// arrive in: a JSON array `["08:00","18:00"]` or a free-form string such as
// "08:00 – 18:00". All decoding happens here, at the boundary; business logic
// only ever sees the typed window.
func ParseWorkingHours(raw string) (WorkingHours, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return WorkingHours{}, fmt.Errorf("working hours are empty")
	}

	if strings.HasPrefix(raw, "[") {
		var parts []string
		if err := json.Unmarshal([]byte(raw), &parts); err != nil {
			return WorkingHours{}, fmt.Errorf("decode working hours array: %w", err)
		}
		if len(parts) < 2 {
			return WorkingHours{}, fmt.Errorf("working hours array has %d entries, want 2", len(parts))
		}
		h := WorkingHours{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}
		return h, h.Validate()
	}

	// Seed data uses "08:00 – 18:00" with either an en dash or a plain hyphen.
	for _, sep := range []string{"–", "—", "-"} {
		if strings.Contains(raw, sep) {
			parts := strings.SplitN(raw, sep, 2)
			h := WorkingHours{Start: strings.TrimSpace(parts[0]), End: strings.TrimSpace(parts[1])}
			return h, h.Validate()
		}
	}

	return WorkingHours{}, fmt.Errorf("unrecognized working hours format: %q", raw)
}

// Service is a single priced offering of a provider.
type Service struct {
	ID          int64   `json:"id" yaml:"-"`
	ProviderID  string  `json:"provider_id,omitempty" yaml:"-"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
}

// Provider is a service vendor clients can book against.
type Provider struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Gender       string       `json:"gender,omitempty" yaml:"gender"`
	Age          int          `json:"age,omitempty" yaml:"age"`
	Phone        string       `json:"phone" yaml:"phone"`
	Email        string       `json:"email" yaml:"email"`
	CPF          string       `json:"-" yaml:"cpf"`
	CEP          string       `json:"cep,omitempty" yaml:"cep"`
	Street       string       `json:"street,omitempty" yaml:"street"`
	Number       string       `json:"number,omitempty" yaml:"number"`
	District     string       `json:"district,omitempty" yaml:"district"`
	City         string       `json:"city" yaml:"city"`
	State        string       `json:"state" yaml:"state"`
	Photo        string       `json:"photo,omitempty" yaml:"photo"`
	CitiesServed []string     `json:"cities_served" yaml:"cities_served"`
	Hours        WorkingHours `json:"hours" yaml:"hours"`
	Services     []Service    `json:"services" yaml:"services"`
	IsActive     bool         `json:"is_active" yaml:"is_active"`
	CreatedAt    time.Time    `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time    `json:"updated_at" yaml:"-"`
}

// BookedSlot is the compact reservation marker kept on the provider side.
// At most one marker may exist per (provider, date, time).
type BookedSlot struct {
	ProviderID    string `json:"provider_id"`
	Date          string `json:"date"` // "2006-01-02"
	Time          string `json:"time"` // "15:04"
	ClientID      string `json:"client_id"`
	AppointmentID string `json:"appointment_id"`
}
