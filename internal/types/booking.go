package types

import (
	"time"

	"github.com/google/uuid"
)

type BookingStep string

const (
	StepGatheringInfo BookingStep = "gathering_info"
	StepReady         BookingStep = "ready"
	StepCompleted     BookingStep = "completed"
)

// BookingState is the in-progress negotiation for one session.
type BookingState struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    string         `json:"hotel_id"`
	UserKey     string         `json:"session_id,omitempty"`
	ServiceType string         `json:"service_type"`
	CurrentStep BookingStep    `json:"current_step"`
	TempData    map[string]any `json:"temp_data"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (b *BookingState) Session() Session {
	return Session{TenantID: b.TenantID, UserKey: b.UserKey}
}

// Booking is an immutable log entry written on confirmation.
type Booking struct {
	ID             uuid.UUID      `json:"id"`
	TenantID       string         `json:"hotel_id"`
	UserKey        string         `json:"session_id,omitempty"`
	BookingStateID uuid.UUID      `json:"booking_state_id"`
	ServiceType    string         `json:"service_type"`
	ReferenceID    string         `json:"reference_id"`
	Status         string         `json:"status"`
	PaymentStatus  string         `json:"payment_status"`
	Details        map[string]any `json:"details"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ConfirmBookingRequest struct {
	HotelID   string `json:"hotel_id"`
	SessionID string `json:"session_id,omitempty"`
}

func (r ConfirmBookingRequest) Session() Session {
	return Session{TenantID: r.HotelID, UserKey: r.SessionID}
}

type BookingConfirmation struct {
	Status      string         `json:"status"`
	Message     string         `json:"message"`
	ReferenceID string         `json:"reference_id"`
	Details     map[string]any `json:"details"`
}
