package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/movewell/booking-server/internal/availability"
	"github.com/movewell/booking-server/internal/config"
	redisclient "github.com/movewell/booking-server/internal/redis"
)

const (
	EventAppointmentBooked    = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventAppointmentExpired   = "APPOINTMENT_EXPIRED"
	EventPackageRedeemed      = "PACKAGE_REDEEMED"
)

var (
	ErrServiceInactive         = errors.New("service is not active")
	ErrInvalidDuration         = errors.New("service duration must be positive")
	ErrStartInPast             = errors.New("appointment start must be in the future")
	ErrTimeSlotTaken           = errors.New("this time slot is not available")
	ErrTimeBlocked             = errors.New("this time is blocked")
	ErrDayBeingBooked          = errors.New("another booking for this day is in progress, please retry")
	ErrAppointmentExpiredState = errors.New("appointment payment deadline has passed")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidWindow           = errors.New("window start must be before end")
	ErrWindowOverlap           = errors.New("window overlaps an existing active window")
	ErrInvalidInterval         = errors.New("interval start must be before end")
)

type Scheduler struct {
	repo   Repository
	locker redisclient.Locker
	cfg    config.Config
	now    func() time.Time
}

func NewScheduler(repo Repository, locker redisclient.Locker, cfg config.Config) *Scheduler {
	return &Scheduler{
		repo:   repo,
		locker: locker,
		cfg:    cfg,
		now:    time.Now,
	}
}

// AvailableSlots computes the bookable slots for a service on one calendar
// day. day must be midnight of the requested date in the business timezone.
// A weekday without active windows yields an empty slice, not an error.
func (s *Scheduler) AvailableSlots(ctx context.Context, serviceID uuid.UUID, day time.Time) (*Service, []availability.Slot, error) {
	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	if !svc.Active {
		return nil, nil, ErrServiceInactive
	}
	if svc.DurationMinutes <= 0 {
		return nil, nil, ErrInvalidDuration
	}

	windows, err := s.repo.ListWindowsForWeekday(ctx, day.Weekday(), true)
	if err != nil {
		return nil, nil, fmt.Errorf("load windows: %w", err)
	}

	spans := make([]availability.Window, 0, len(windows))
	for _, w := range windows {
		start, end := w.Span(day)
		spans = append(spans, availability.Window{Start: start, End: end})
	}

	// Over-fetch a full day on either side; the resolver re-validates
	// overlap against each candidate span, so spillover across midnight
	// is handled.
	from, to := day.Add(-24*time.Hour), day.Add(48*time.Hour)

	blocked, err := s.repo.ListBlockedIntervalsOverlapping(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load blocked intervals: %w", err)
	}
	appts, err := s.repo.ListOccupyingAppointments(ctx, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("load appointments: %w", err)
	}

	blockedBusy := make([]availability.Busy, 0, len(blocked))
	for _, b := range blocked {
		blockedBusy = append(blockedBusy, availability.Busy{Start: b.StartTime, End: b.EndTime})
	}
	bookedBusy := make([]availability.Busy, 0, len(appts))
	for _, a := range appts {
		bookedBusy = append(bookedBusy, availability.Busy{Start: a.StartTime, End: a.EndTime()})
	}

	slots := availability.ComputeSlots(spans, svc.Duration(), blockedBusy, bookedBusy, s.now())
	return svc, slots, nil
}

// BookAppointment reserves a time for a client. The availability answer a
// client saw earlier is advisory only: the conflict check is redone here
// inside a per-day Redis lock so two clients racing for the same time
// cannot both win.
//
// With usePackage the booking consumes one prepaid session and is confirmed
// immediately; otherwise it is created pending with a payment deadline and
// must be paid through checkout before the expiry worker reaps it.
func (s *Scheduler) BookAppointment(ctx context.Context, clientID, serviceID uuid.UUID, start time.Time, usePackage bool) (*Appointment, error) {
	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		return nil, err
	}

	svc, err := s.repo.GetServiceByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.Active {
		return nil, ErrServiceInactive
	}
	if svc.DurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	now := s.now()
	if !start.After(now) {
		return nil, ErrStartInPast
	}
	end := start.Add(svc.Duration())

	var created *Appointment

	err = s.locker.WithDayLock(ctx, start, func(lockCtx context.Context) error {
		// Re-check conflicts inside the critical section using the same
		// overlap predicate the resolver uses.
		blocked, err := s.repo.ListBlockedIntervalsOverlapping(lockCtx, start, end)
		if err != nil {
			return fmt.Errorf("check blocked intervals: %w", err)
		}
		for _, b := range blocked {
			if availability.Overlaps(start, end, b.StartTime, b.EndTime) {
				return ErrTimeBlocked
			}
		}

		occupying, err := s.repo.ListOccupyingAppointments(lockCtx, start, end)
		if err != nil {
			return fmt.Errorf("check occupying appointments: %w", err)
		}
		for _, a := range occupying {
			if availability.Overlaps(start, end, a.StartTime, a.EndTime()) {
				return ErrTimeSlotTaken
			}
		}

		appt := Appointment{
			ClientID:        clientID,
			ServiceID:       serviceID,
			StartTime:       start,
			DurationMinutes: svc.DurationMinutes,
		}

		if usePackage {
			cp, err := s.repo.FindUsableClientPackage(lockCtx, clientID)
			if err != nil {
				return err
			}
			if _, err := s.repo.ConsumePackageSession(lockCtx, cp.ID); err != nil {
				return fmt.Errorf("consume package session: %w", err)
			}
			appt.Status = StatusConfirmed
			appt.ClientPackageID = &cp.ID
		} else {
			expiresAt := now.Add(s.cfg.PaymentTTL)
			appt.Status = StatusPending
			appt.ExpiresAt = &expiresAt
		}

		created, err = s.repo.CreateAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		payload := map[string]any{
			"client_id":  clientID.String(),
			"service_id": serviceID.String(),
			"start_time": start,
			"status":     string(created.Status),
		}
		s.logEvent(lockCtx, created.ID, EventAppointmentBooked, payload)
		if usePackage {
			s.logEvent(lockCtx, created.ID, EventPackageRedeemed, map[string]any{
				"client_package_id": created.ClientPackageID.String(),
			})
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDayBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// ConfirmAppointment moves a pending appointment to confirmed, normally on
// payment. A pending appointment whose payment deadline passed is cancelled
// instead.
func (s *Scheduler) ConfirmAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	now := s.now()

	if appt.Status == StatusPending && appt.ExpiresAt != nil && appt.ExpiresAt.Before(now) {
		_, updErr := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if updErr != nil && !errors.Is(updErr, ErrAppointmentNotFound) {
			log.Printf("failed to cancel expired appointment %s during confirm: %v", appt.ID, updErr)
		}
		s.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "confirm_after_expiry",
		})
		return nil, ErrAppointmentExpiredState
	}

	if appt.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentConfirmed, map[string]any{})

	return updated, nil
}

// CompleteAppointment marks a confirmed appointment done after the session.
func (s *Scheduler) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusConfirmed, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Either no such appointment or it is not confirmed.
			if _, getErr := s.repo.GetAppointmentByID(ctx, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCompleted, map[string]any{})
	return updated, nil
}

// CancelAppointment cancels a pending or confirmed appointment, releasing
// its time for new bookings.
func (s *Scheduler) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if !appt.Occupies() {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"previous_status": string(appt.Status),
	})
	return updated, nil
}

// ExpirePendingAppointments is called by the worker periodically. Pending
// appointments whose payment deadline passed are cancelled so their time
// opens up again.
func (s *Scheduler) ExpirePendingAppointments(ctx context.Context) error {
	now := s.now()
	expiredCandidates, err := s.repo.FindExpiredPending(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired pending appointments: %w", err)
	}

	for _, appt := range expiredCandidates {
		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusPending, StatusCancelled)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			log.Printf("failed to expire appointment %s: %v", appt.ID, err)
			continue
		}
		s.logEvent(ctx, appt.ID, EventAppointmentExpired, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// CreateWindow validates and stores a weekly availability window. Overlap
// with an existing active window on the same weekday is rejected at write
// time; the resolver assumes windows for one day never overlap.
func (s *Scheduler) CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return nil, ErrInvalidWindow
	}
	if w.StartMinute < 0 || w.EndMinute > 24*60 || w.StartMinute >= w.EndMinute {
		return nil, ErrInvalidWindow
	}

	existing, err := s.repo.ListWindowsForWeekday(ctx, w.Weekday, true)
	if err != nil {
		return nil, fmt.Errorf("load windows: %w", err)
	}
	for _, e := range existing {
		if w.StartMinute < e.EndMinute && w.EndMinute > e.StartMinute {
			return nil, ErrWindowOverlap
		}
	}

	w.Active = true
	return s.repo.CreateWindow(ctx, w)
}

// CreateBlockedInterval stores an absolute blackout range.
func (s *Scheduler) CreateBlockedInterval(ctx context.Context, b BlockedInterval) (*BlockedInterval, error) {
	if !b.StartTime.Before(b.EndTime) {
		return nil, ErrInvalidInterval
	}
	return s.repo.CreateBlockedInterval(ctx, b)
}

// GetAppointment retrieves a fully hydrated appointment by ID
func (s *Scheduler) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return detail, nil
}

// ListAppointmentsByClient retrieves appointments for a specific client
func (s *Scheduler) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	limit, offset = clampPage(limit, offset)

	appointments, err := s.repo.ListAppointmentsByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by client: %w", err)
	}
	return appointments, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Scheduler) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal event payload for %s: %v", eventType, err)
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s for appointment %s: %v", eventType, appointmentID, err)
	}
}
