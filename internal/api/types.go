package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/movewell/booking-server/internal/booking"
)

type BookAppointmentRequest struct {
	ClientID   string `json:"client_id"`
	ServiceID  string `json:"service_id"`
	Start      string `json:"start"` // RFC3339
	UsePackage bool   `json:"use_package"`
}

type AppointmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	ClientID        uuid.UUID  `json:"client_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		ClientID:        a.ClientID,
		ServiceID:       a.ServiceID,
		Start:           a.StartTime,
		End:             a.EndTime(),
		DurationMinutes: a.DurationMinutes,
		Status:          string(a.Status),
		ExpiresAt:       a.ExpiresAt,
	}
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	ClientName  string `json:"client_name"`
	ServiceName string `json:"service_name"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type AvailabilityResponse struct {
	ServiceID       uuid.UUID      `json:"service_id"`
	ServiceName     string         `json:"service_name"`
	DurationMinutes int            `json:"duration_minutes"`
	Date            string         `json:"date"`
	Slots           []SlotResponse `json:"slots"`
}

type ServiceResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	Active          bool      `json:"active"`
}

func toServiceResponse(s *booking.Service) ServiceResponse {
	return ServiceResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		DurationMinutes: s.DurationMinutes,
		PriceCents:      s.PriceCents,
		Active:          s.Active,
	}
}

type UpsertServiceRequest struct {
	Name            string  `json:"name"`
	Description     *string `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	PriceCents      int64   `json:"price_cents"`
	Active          *bool   `json:"active"`
}

type PackageResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	SessionCount int       `json:"session_count"`
	PriceCents   int64     `json:"price_cents"`
	Active       bool      `json:"active"`
}

func toPackageResponse(p *booking.Package) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		SessionCount: p.SessionCount,
		PriceCents:   p.PriceCents,
		Active:       p.Active,
	}
}

type UpsertPackageRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	SessionCount int     `json:"session_count"`
	PriceCents   int64   `json:"price_cents"`
	Active       *bool   `json:"active"`
}

type CreateWindowRequest struct {
	Weekday int    `json:"weekday"` // 0 = Sunday
	Start   string `json:"start"`   // HH:MM
	End     string `json:"end"`     // HH:MM
}

type WindowResponse struct {
	ID      uuid.UUID `json:"id"`
	Weekday int       `json:"weekday"`
	Start   string    `json:"start"`
	End     string    `json:"end"`
	Active  bool      `json:"active"`
}

func toWindowResponse(w *booking.AvailabilityWindow) WindowResponse {
	return WindowResponse{
		ID:      w.ID,
		Weekday: int(w.Weekday),
		Start:   formatClock(w.StartMinute),
		End:     formatClock(w.EndMinute),
		Active:  w.Active,
	}
}

type CreateBlockedIntervalRequest struct {
	Start  string  `json:"start"` // RFC3339
	End    string  `json:"end"`   // RFC3339
	Reason *string `json:"reason"`
}

type BlockedIntervalResponse struct {
	ID     uuid.UUID `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason *string   `json:"reason,omitempty"`
}

func toBlockedIntervalResponse(b *booking.BlockedInterval) BlockedIntervalResponse {
	return BlockedIntervalResponse{
		ID:     b.ID,
		Start:  b.StartTime,
		End:    b.EndTime,
		Reason: b.Reason,
	}
}

type CreateClientRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone"`
}

type ClientResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone *string   `json:"phone,omitempty"`
}

func toClientResponse(c *booking.Client) ClientResponse {
	return ClientResponse{
		ID:    c.ID,
		Name:  c.Name,
		Email: c.Email,
		Phone: c.Phone,
	}
}

type PackageCheckoutRequest struct {
	ClientID string `json:"client_id"`
}

type CheckoutResponse struct {
	PaymentID uuid.UUID `json:"payment_id"`
	URL       string    `json:"url"`
}

type PaymentResponse struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"client_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	PackageID     *uuid.UUID `json:"package_id,omitempty"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toPaymentResponse(p *booking.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		ClientID:      p.ClientID,
		AppointmentID: p.AppointmentID,
		PackageID:     p.PackageID,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		Status:        string(p.Status),
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func formatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// parseClock converts a wall-clock "HH:MM" string to minutes from midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
