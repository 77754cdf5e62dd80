package models

import "time"

// Appointment is a confirmed booking of one provider service by one client.
type Appointment struct {
	ID                 string    `json:"id"`
	ProviderID         string    `json:"provider_id"`
	ProviderName       string    `json:"provider_name"`
	ClientID           string    `json:"client_id"`
	Date               string    `json:"date"` // "2006-01-02", no time component
	Time               string    `json:"time"` // "15:04", hourly granularity
	ServiceDescription string    `json:"service_description"`
	ServicePrice       float64   `json:"service_price"`
	PaymentMethod      string    `json:"payment_method"`
	Notes              string    `json:"notes,omitempty"`
	Status             string    `json:"status"` // created, confirmed, cancelled
	CreatedAt          time.Time `json:"created_at"`
}

// BookingRequest carries a client's attempt to reserve one slot.
type BookingRequest struct {
	ClientID      string `json:"-"`
	ProviderID    string `json:"provider_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	ServiceID     int64  `json:"service_id"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes,omitempty"`
}

// SlotStatus is one entry of a provider's availability view for a day.
type SlotStatus struct {
	Time     string `json:"time"`
	Bookable bool   `json:"bookable"`
	Reason   string `json:"reason,omitempty"`
}
