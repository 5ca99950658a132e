package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
)

type Client struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Service struct {
	ID              uuid.UUID
	Name            string
	Description     *string
	DurationMinutes int
	PriceCents      int64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type Package struct {
	ID           uuid.UUID
	Name         string
	Description  *string
	SessionCount int
	PriceCents   int64
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ClientPackage is a purchased package: a bundle of prepaid sessions a
// client can book against instead of paying per appointment.
type ClientPackage struct {
	ID                uuid.UUID
	ClientID          uuid.UUID
	PackageID         uuid.UUID
	SessionsRemaining int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AvailabilityWindow is a recurring weekly open period. Times are wall-clock
// minutes from midnight; StartMinute < EndMinute always, windows never cross
// midnight. Windows on the same weekday must not overlap while active, which
// the admin create path enforces.
type AvailabilityWindow struct {
	ID          uuid.UUID
	Weekday     time.Weekday // 0 = Sunday
	StartMinute int
	EndMinute   int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Span combines the window's wall-clock times with a calendar day.
func (w *AvailabilityWindow) Span(day time.Time) (start, end time.Time) {
	start = day.Add(time.Duration(w.StartMinute) * time.Minute)
	end = day.Add(time.Duration(w.EndMinute) * time.Minute)
	return start, end
}

// BlockedInterval closes out an absolute time range regardless of standing
// availability. Admin-managed: holidays, travel, personal time.
type BlockedInterval struct {
	ID        uuid.UUID
	StartTime time.Time
	EndTime   time.Time
	Reason    *string
	CreatedAt time.Time
}

type Appointment struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	ServiceID       uuid.UUID
	StartTime       time.Time
	DurationMinutes int
	Status          AppointmentStatus
	ClientPackageID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiresAt       *time.Time
}

func (a *Appointment) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Occupies reports whether the appointment blocks its time range from new
// bookings. Completed and cancelled appointments do not.
func (a *Appointment) Occupies() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// Payment doubles as the client-visible invoice record.
type Payment struct {
	ID                uuid.UUID
	ClientID          uuid.UUID
	AppointmentID     *uuid.UUID
	PackageID         *uuid.UUID
	AmountCents       int64
	Currency          string
	Status            PaymentStatus
	CheckoutSessionID *string
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ProviderEvent records a received payment-provider webhook event. The
// unique provider event ID makes replayed deliveries idempotent.
type ProviderEvent struct {
	Provider        string
	ProviderEventID string
	EventType       string
	Payload         []byte
	CreatedAt       time.Time
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

type AppointmentDetail struct {
	Appointment
	Client  *Client
	Service *Service
}
