package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClientNotFound          = errors.New("client not found")
	ErrServiceNotFound         = errors.New("service not found")
	ErrPackageNotFound         = errors.New("package not found")
	ErrNoUsablePackage         = errors.New("no package with remaining sessions")
	ErrWindowNotFound          = errors.New("availability window not found")
	ErrBlockedIntervalNotFound = errors.New("blocked interval not found")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrDuplicateProviderEvent  = errors.New("provider event already recorded")
)

// Repository contains all DB interactions needed by the booking and billing
// services and the admin handlers.
type Repository interface {
	// Clients
	CreateClient(ctx context.Context, name, email string, phone *string) (*Client, error)
	GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error)
	ListClients(ctx context.Context, limit, offset int) ([]Client, error)

	// Services
	CreateService(ctx context.Context, svc Service) (*Service, error)
	UpdateService(ctx context.Context, svc Service) (*Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]Service, error)

	// Packages
	CreatePackage(ctx context.Context, pkg Package) (*Package, error)
	UpdatePackage(ctx context.Context, pkg Package) (*Package, error)
	GetPackageByID(ctx context.Context, id uuid.UUID) (*Package, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]Package, error)

	// Purchased packages
	GrantClientPackage(ctx context.Context, clientID, packageID uuid.UUID, sessions int) (*ClientPackage, error)
	FindUsableClientPackage(ctx context.Context, clientID uuid.UUID) (*ClientPackage, error)
	ConsumePackageSession(ctx context.Context, id uuid.UUID) (*ClientPackage, error)
	ListClientPackages(ctx context.Context, clientID uuid.UUID) ([]ClientPackage, error)

	// Availability windows
	CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error)
	DeactivateWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error)
	ListWindowsForWeekday(ctx context.Context, weekday time.Weekday, activeOnly bool) ([]AvailabilityWindow, error)
	ListWindows(ctx context.Context) ([]AvailabilityWindow, error)

	// Blocked intervals
	CreateBlockedInterval(ctx context.Context, b BlockedInterval) (*BlockedInterval, error)
	DeleteBlockedInterval(ctx context.Context, id uuid.UUID) error
	ListBlockedIntervalsOverlapping(ctx context.Context, from, to time.Time) ([]BlockedInterval, error)

	// Appointments
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	// ListOccupyingAppointments returns pending and confirmed appointments
	// whose [start, start+duration) interval overlaps [from, to).
	ListOccupyingAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error)
	ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error)

	// Payments
	CreatePayment(ctx context.Context, p Payment) (*Payment, error)
	GetPaymentByCheckoutSession(ctx context.Context, sessionID string) (*Payment, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, paidAt *time.Time) (*Payment, error)
	ListPaymentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Payment, error)
	ListPayments(ctx context.Context, limit, offset int) ([]Payment, error)

	// Webhook idempotency
	InsertProviderEvent(ctx context.Context, ev ProviderEvent) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
