package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/movewell/booking-server/internal/config"
	redisclient "github.com/movewell/booking-server/internal/redis"
)

// fakeRepo is an in-memory Repository for exercising the scheduler without
// Postgres. Only the methods the scheduler touches are fully implemented.
type fakeRepo struct {
	clients      map[uuid.UUID]Client
	services     map[uuid.UUID]Service
	windows      []AvailabilityWindow
	blocked      []BlockedInterval
	appointments map[uuid.UUID]*Appointment
	clientPkgs   map[uuid.UUID]*ClientPackage
	events       []EventLog
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		clients:      make(map[uuid.UUID]Client),
		services:     make(map[uuid.UUID]Service),
		appointments: make(map[uuid.UUID]*Appointment),
		clientPkgs:   make(map[uuid.UUID]*ClientPackage),
	}
}

func (f *fakeRepo) CreateClient(ctx context.Context, name, email string, phone *string) (*Client, error) {
	c := Client{ID: uuid.New(), Name: name, Email: email, Phone: phone}
	f.clients[c.ID] = c
	return &c, nil
}

func (f *fakeRepo) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	c, ok := f.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return &c, nil
}

func (f *fakeRepo) ListClients(ctx context.Context, limit, offset int) ([]Client, error) {
	return nil, nil
}

func (f *fakeRepo) CreateService(ctx context.Context, svc Service) (*Service, error) {
	svc.ID = uuid.New()
	f.services[svc.ID] = svc
	return &svc, nil
}

func (f *fakeRepo) UpdateService(ctx context.Context, svc Service) (*Service, error) {
	f.services[svc.ID] = svc
	return &svc, nil
}

func (f *fakeRepo) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return &s, nil
}

func (f *fakeRepo) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	return nil, nil
}

func (f *fakeRepo) CreatePackage(ctx context.Context, pkg Package) (*Package, error) {
	return &pkg, nil
}

func (f *fakeRepo) UpdatePackage(ctx context.Context, pkg Package) (*Package, error) {
	return &pkg, nil
}

func (f *fakeRepo) GetPackageByID(ctx context.Context, id uuid.UUID) (*Package, error) {
	return nil, ErrPackageNotFound
}

func (f *fakeRepo) ListPackages(ctx context.Context, activeOnly bool) ([]Package, error) {
	return nil, nil
}

func (f *fakeRepo) GrantClientPackage(ctx context.Context, clientID, packageID uuid.UUID, sessions int) (*ClientPackage, error) {
	cp := &ClientPackage{ID: uuid.New(), ClientID: clientID, PackageID: packageID, SessionsRemaining: sessions}
	f.clientPkgs[cp.ID] = cp
	return cp, nil
}

func (f *fakeRepo) FindUsableClientPackage(ctx context.Context, clientID uuid.UUID) (*ClientPackage, error) {
	for _, cp := range f.clientPkgs {
		if cp.ClientID == clientID && cp.SessionsRemaining > 0 {
			out := *cp
			return &out, nil
		}
	}
	return nil, ErrNoUsablePackage
}

func (f *fakeRepo) ConsumePackageSession(ctx context.Context, id uuid.UUID) (*ClientPackage, error) {
	cp, ok := f.clientPkgs[id]
	if !ok || cp.SessionsRemaining <= 0 {
		return nil, ErrNoUsablePackage
	}
	cp.SessionsRemaining--
	out := *cp
	return &out, nil
}

func (f *fakeRepo) ListClientPackages(ctx context.Context, clientID uuid.UUID) ([]ClientPackage, error) {
	return nil, nil
}

func (f *fakeRepo) CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	w.ID = uuid.New()
	f.windows = append(f.windows, w)
	return &w, nil
}

func (f *fakeRepo) DeactivateWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	return nil, ErrWindowNotFound
}

func (f *fakeRepo) ListWindowsForWeekday(ctx context.Context, weekday time.Weekday, activeOnly bool) ([]AvailabilityWindow, error) {
	var out []AvailabilityWindow
	for _, w := range f.windows {
		if w.Weekday != weekday {
			continue
		}
		if activeOnly && !w.Active {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeRepo) ListWindows(ctx context.Context) ([]AvailabilityWindow, error) {
	return f.windows, nil
}

func (f *fakeRepo) CreateBlockedInterval(ctx context.Context, b BlockedInterval) (*BlockedInterval, error) {
	b.ID = uuid.New()
	f.blocked = append(f.blocked, b)
	return &b, nil
}

func (f *fakeRepo) DeleteBlockedInterval(ctx context.Context, id uuid.UUID) error {
	return ErrBlockedIntervalNotFound
}

func (f *fakeRepo) ListBlockedIntervalsOverlapping(ctx context.Context, from, to time.Time) ([]BlockedInterval, error) {
	var out []BlockedInterval
	for _, b := range f.blocked {
		if b.StartTime.Before(to) && b.EndTime.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.appointments[a.ID] = &a
	out := a
	return &out, nil
}

func (f *fakeRepo) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeRepo) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	client := f.clients[a.ClientID]
	svc := f.services[a.ServiceID]
	return &AppointmentDetail{Appointment: *a, Client: &client, Service: &svc}, nil
}

func (f *fakeRepo) ListOccupyingAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Occupies() && a.StartTime.Before(to) && a.EndTime().After(from) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for _, a := range f.appointments {
		if a.ClientID == clientID {
			out = append(out, AppointmentDetail{Appointment: *a})
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	a, ok := f.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	out := *a
	return &out, nil
}

func (f *fakeRepo) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	var out []Appointment
	for _, a := range f.appointments {
		if a.Status == StatusPending && a.ExpiresAt != nil && a.ExpiresAt.Before(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	return &p, nil
}

func (f *fakeRepo) GetPaymentByCheckoutSession(ctx context.Context, sessionID string) (*Payment, error) {
	return nil, ErrPaymentNotFound
}

func (f *fakeRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, paidAt *time.Time) (*Payment, error) {
	return nil, ErrPaymentNotFound
}

func (f *fakeRepo) ListPaymentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Payment, error) {
	return nil, nil
}

func (f *fakeRepo) ListPayments(ctx context.Context, limit, offset int) ([]Payment, error) {
	return nil, nil
}

func (f *fakeRepo) InsertProviderEvent(ctx context.Context, ev ProviderEvent) error {
	return nil
}

func (f *fakeRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	f.events = append(f.events, ev)
	return nil
}

// fakeLocker runs the critical section inline, or refuses outright when
// contended is set.
type fakeLocker struct {
	contended bool
	calls     int
}

func (l *fakeLocker) WithDayLock(ctx context.Context, at time.Time, fn func(context.Context) error) error {
	l.calls++
	if l.contended {
		return redisclient.ErrLockNotAcquired
	}
	return fn(ctx)
}

var fixedNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func newTestScheduler(repo Repository, locker *fakeLocker) *Scheduler {
	s := NewScheduler(repo, locker, config.Config{PaymentTTL: 30 * time.Minute})
	s.now = func() time.Time { return fixedNow }
	return s
}

type fixture struct {
	repo    *fakeRepo
	locker  *fakeLocker
	sched   *Scheduler
	client  *Client
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeRepo()
	locker := &fakeLocker{}
	sched := newTestScheduler(repo, locker)

	client, err := repo.CreateClient(context.Background(), "Dana Reeves", "dana@example.com", nil)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	service, err := repo.CreateService(context.Background(), Service{
		Name:            "Sports Massage",
		DurationMinutes: 60,
		PriceCents:      11000,
		Active:          true,
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}

	return &fixture{repo: repo, locker: locker, sched: sched, client: client, service: service}
}

func (f *fixture) eventTypes() []string {
	var out []string
	for _, ev := range f.repo.events {
		out = append(out, ev.EventType)
	}
	return out
}

func TestBookAppointment_CreatesPendingWithDeadline(t *testing.T) {
	f := newFixture(t)
	start := fixedNow.Add(24 * time.Hour)

	appt, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false)
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	if appt.Status != StatusPending {
		t.Errorf("status = %s, want pending", appt.Status)
	}
	if appt.ExpiresAt == nil {
		t.Fatal("ExpiresAt not set on pending appointment")
	}
	if want := fixedNow.Add(30 * time.Minute); !appt.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %s, want %s", appt.ExpiresAt, want)
	}
	if appt.DurationMinutes != 60 {
		t.Errorf("DurationMinutes = %d, want 60", appt.DurationMinutes)
	}
	if f.locker.calls != 1 {
		t.Errorf("locker calls = %d, want 1", f.locker.calls)
	}
	if got := f.eventTypes(); len(got) != 1 || got[0] != EventAppointmentBooked {
		t.Errorf("events = %v, want [%s]", got, EventAppointmentBooked)
	}
}

func TestBookAppointment_OverlapRejected(t *testing.T) {
	f := newFixture(t)
	start := fixedNow.Add(24 * time.Hour)

	if _, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Second booking starting halfway through the first.
	_, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start.Add(30*time.Minute), false)
	if !errors.Is(err, ErrTimeSlotTaken) {
		t.Fatalf("overlapping booking err = %v, want ErrTimeSlotTaken", err)
	}
}

func TestBookAppointment_BackToBackAllowed(t *testing.T) {
	f := newFixture(t)
	start := fixedNow.Add(24 * time.Hour)

	if _, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	// Starts exactly when the first ends.
	if _, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start.Add(60*time.Minute), false); err != nil {
		t.Fatalf("back-to-back booking rejected: %v", err)
	}
}

func TestBookAppointment_CancelledAppointmentFreesSlot(t *testing.T) {
	f := newFixture(t)
	start := fixedNow.Add(24 * time.Hour)

	first, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false)
	if err != nil {
		t.Fatalf("first booking: %v", err)
	}
	if _, err := f.sched.CancelAppointment(context.Background(), first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false); err != nil {
		t.Fatalf("rebooking cancelled slot rejected: %v", err)
	}
}

func TestBookAppointment_BlockedTimeRejected(t *testing.T) {
	f := newFixture(t)
	start := fixedNow.Add(24 * time.Hour)

	_, err := f.repo.CreateBlockedInterval(context.Background(), BlockedInterval{
		StartTime: start.Add(30 * time.Minute),
		EndTime:   start.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("create blocked interval: %v", err)
	}

	_, err = f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false)
	if !errors.Is(err, ErrTimeBlocked) {
		t.Fatalf("err = %v, want ErrTimeBlocked", err)
	}
}

func TestBookAppointment_StartNotInFuture(t *testing.T) {
	f := newFixture(t)

	for _, start := range []time.Time{fixedNow, fixedNow.Add(-time.Hour)} {
		_, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, start, false)
		if !errors.Is(err, ErrStartInPast) {
			t.Errorf("start=%s err = %v, want ErrStartInPast", start, err)
		}
	}
	if f.locker.calls != 0 {
		t.Errorf("locker called %d times for rejected bookings", f.locker.calls)
	}
}

func TestBookAppointment_InactiveService(t *testing.T) {
	f := newFixture(t)
	f.service.Active = false
	if _, err := f.repo.UpdateService(context.Background(), *f.service); err != nil {
		t.Fatalf("update service: %v", err)
	}

	_, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(time.Hour), false)
	if !errors.Is(err, ErrServiceInactive) {
		t.Fatalf("err = %v, want ErrServiceInactive", err)
	}
}

func TestBookAppointment_UnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.sched.BookAppointment(context.Background(), uuid.New(), f.service.ID, fixedNow.Add(time.Hour), false)
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("err = %v, want ErrClientNotFound", err)
	}
}

func TestBookAppointment_WithPackage(t *testing.T) {
	f := newFixture(t)
	cp, err := f.repo.GrantClientPackage(context.Background(), f.client.ID, uuid.New(), 5)
	if err != nil {
		t.Fatalf("grant package: %v", err)
	}

	appt, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), true)
	if err != nil {
		t.Fatalf("BookAppointment: %v", err)
	}

	if appt.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", appt.Status)
	}
	if appt.ExpiresAt != nil {
		t.Error("package booking should have no payment deadline")
	}
	if appt.ClientPackageID == nil || *appt.ClientPackageID != cp.ID {
		t.Errorf("ClientPackageID = %v, want %s", appt.ClientPackageID, cp.ID)
	}
	if f.repo.clientPkgs[cp.ID].SessionsRemaining != 4 {
		t.Errorf("sessions remaining = %d, want 4", f.repo.clientPkgs[cp.ID].SessionsRemaining)
	}
	if got := f.eventTypes(); len(got) != 2 || got[1] != EventPackageRedeemed {
		t.Errorf("events = %v, want booked + redeemed", got)
	}
}

func TestBookAppointment_WithPackageNoCredits(t *testing.T) {
	f := newFixture(t)

	_, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), true)
	if !errors.Is(err, ErrNoUsablePackage) {
		t.Fatalf("err = %v, want ErrNoUsablePackage", err)
	}
	if len(f.repo.appointments) != 0 {
		t.Errorf("appointment created despite missing package credits")
	}
}

func TestBookAppointment_LockContention(t *testing.T) {
	f := newFixture(t)
	f.locker.contended = true

	_, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), false)
	if !errors.Is(err, ErrDayBeingBooked) {
		t.Fatalf("err = %v, want ErrDayBeingBooked", err)
	}
}

func TestConfirmAppointment(t *testing.T) {
	f := newFixture(t)
	appt, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	updated, err := f.sched.ConfirmAppointment(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if updated.Status != StatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}

	// Confirming twice is not a valid transition.
	if _, err := f.sched.ConfirmAppointment(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("second confirm err = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestConfirmAppointment_ExpiredCancelsInstead(t *testing.T) {
	f := newFixture(t)
	appt, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Move the clock past the payment deadline.
	f.sched.now = func() time.Time { return fixedNow.Add(time.Hour) }

	_, err = f.sched.ConfirmAppointment(context.Background(), appt.ID)
	if !errors.Is(err, ErrAppointmentExpiredState) {
		t.Fatalf("err = %v, want ErrAppointmentExpiredState", err)
	}

	got, err := f.repo.GetAppointmentByID(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
}

func TestCompleteAppointment(t *testing.T) {
	f := newFixture(t)
	appt, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Pending appointments cannot be completed.
	if _, err := f.sched.CompleteAppointment(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("complete pending err = %v, want ErrInvalidStatusTransition", err)
	}

	if _, err := f.sched.ConfirmAppointment(context.Background(), appt.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	updated, err := f.sched.CompleteAppointment(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", updated.Status)
	}

	if _, err := f.sched.CompleteAppointment(context.Background(), uuid.New()); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("complete unknown err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestCancelAppointment_TerminalStatesRejected(t *testing.T) {
	f := newFixture(t)
	appt, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	if _, err := f.sched.CancelAppointment(context.Background(), appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.sched.CancelAppointment(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("cancel cancelled err = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestExpirePendingAppointments(t *testing.T) {
	f := newFixture(t)

	expired1, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(24*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	expired2, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(26*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Booked later, so its deadline is still in the future at run time.
	f.sched.now = func() time.Time { return fixedNow.Add(40 * time.Minute) }
	fresh, err := f.sched.BookAppointment(context.Background(), f.client.ID, f.service.ID, fixedNow.Add(28*time.Hour), false)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Run the reaper 45 minutes after the first two bookings.
	f.sched.now = func() time.Time { return fixedNow.Add(45 * time.Minute) }
	if err := f.sched.ExpirePendingAppointments(context.Background()); err != nil {
		t.Fatalf("expire: %v", err)
	}

	for _, id := range []uuid.UUID{expired1.ID, expired2.ID} {
		got, _ := f.repo.GetAppointmentByID(context.Background(), id)
		if got.Status != StatusCancelled {
			t.Errorf("appointment %s status = %s, want cancelled", id, got.Status)
		}
	}
	got, _ := f.repo.GetAppointmentByID(context.Background(), fresh.ID)
	if got.Status != StatusPending {
		t.Errorf("fresh appointment status = %s, want pending", got.Status)
	}
}

func TestCreateWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.sched.CreateWindow(ctx, AvailabilityWindow{Weekday: time.Monday, StartMinute: 9 * 60, EndMinute: 12 * 60}); err != nil {
		t.Fatalf("create window: %v", err)
	}

	cases := []struct {
		name    string
		w       AvailabilityWindow
		wantErr error
	}{
		{"overlap same weekday", AvailabilityWindow{Weekday: time.Monday, StartMinute: 11 * 60, EndMinute: 14 * 60}, ErrWindowOverlap},
		{"touching allowed", AvailabilityWindow{Weekday: time.Monday, StartMinute: 12 * 60, EndMinute: 14 * 60}, nil},
		{"other weekday allowed", AvailabilityWindow{Weekday: time.Tuesday, StartMinute: 11 * 60, EndMinute: 14 * 60}, nil},
		{"start after end", AvailabilityWindow{Weekday: time.Monday, StartMinute: 15 * 60, EndMinute: 14 * 60}, ErrInvalidWindow},
		{"end past midnight", AvailabilityWindow{Weekday: time.Monday, StartMinute: 23 * 60, EndMinute: 25 * 60}, ErrInvalidWindow},
		{"bad weekday", AvailabilityWindow{Weekday: 7, StartMinute: 9 * 60, EndMinute: 10 * 60}, ErrInvalidWindow},
	}

	for _, tc := range cases {
		_, err := f.sched.CreateWindow(ctx, tc.w)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestCreateBlockedInterval_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.sched.CreateBlockedInterval(context.Background(), BlockedInterval{
		StartTime: fixedNow.Add(2 * time.Hour),
		EndTime:   fixedNow.Add(time.Hour),
	})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err = %v, want ErrInvalidInterval", err)
	}
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// fixedNow is Monday 2026-03-02 12:00 UTC; query Tuesday.
	day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

	if _, err := f.sched.CreateWindow(ctx, AvailabilityWindow{Weekday: time.Tuesday, StartMinute: 9 * 60, EndMinute: 12 * 60}); err != nil {
		t.Fatalf("create window: %v", err)
	}

	// Book 10:00 to 11:00 so those candidates disappear.
	if _, err := f.sched.BookAppointment(ctx, f.client.ID, f.service.ID, day.Add(10*time.Hour), false); err != nil {
		t.Fatalf("book: %v", err)
	}

	svc, slots, err := f.sched.AvailableSlots(ctx, f.service.ID, day)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if svc.ID != f.service.ID {
		t.Errorf("service = %s, want %s", svc.ID, f.service.ID)
	}

	// 60 minute service in 09:00 to 12:00 steps every 30 minutes; the 09:30,
	// 10:00, and 10:30 starts collide with the 10:00 booking.
	want := []time.Time{
		day.Add(9 * time.Hour),
		day.Add(11 * time.Hour),
	}
	if len(slots) != len(want) {
		t.Fatalf("got %d slots, want %d: %+v", len(slots), len(want), slots)
	}
	for i, s := range slots {
		if !s.Start.Equal(want[i]) {
			t.Errorf("slot[%d].Start = %s, want %s", i, s.Start, want[i])
		}
	}
}

func TestAvailableSlots_NoWindows(t *testing.T) {
	f := newFixture(t)

	_, slots, err := f.sched.AvailableSlots(context.Background(), f.service.ID, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("got %d slots on a closed day, want 0", len(slots))
	}
	if slots == nil {
		t.Error("slots should be empty, not nil")
	}
}

func TestAvailableSlots_InactiveService(t *testing.T) {
	f := newFixture(t)
	f.service.Active = false
	if _, err := f.repo.UpdateService(context.Background(), *f.service); err != nil {
		t.Fatalf("update service: %v", err)
	}

	_, _, err := f.sched.AvailableSlots(context.Background(), f.service.ID, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrServiceInactive) {
		t.Fatalf("err = %v, want ErrServiceInactive", err)
	}
}
