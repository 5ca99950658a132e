package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	var phone *string

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	c.Phone = phone
	return &c, nil
}

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	var description *string

	err := row.Scan(
		&s.ID,
		&s.Name,
		&description,
		&s.DurationMinutes,
		&s.PriceCents,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	s.Description = description
	return &s, nil
}

func scanPackage(row pgx.Row) (*Package, error) {
	var p Package
	var description *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&description,
		&p.SessionCount,
		&p.PriceCents,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	p.Description = description
	return &p, nil
}

func scanClientPackage(row pgx.Row) (*ClientPackage, error) {
	var cp ClientPackage

	err := row.Scan(
		&cp.ID,
		&cp.ClientID,
		&cp.PackageID,
		&cp.SessionsRemaining,
		&cp.CreatedAt,
		&cp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoUsablePackage
		}
		return nil, err
	}

	return &cp, nil
}

func scanWindow(row pgx.Row) (*AvailabilityWindow, error) {
	var w AvailabilityWindow
	var weekday int

	err := row.Scan(
		&w.ID,
		&weekday,
		&w.StartMinute,
		&w.EndMinute,
		&w.Active,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.Weekday = time.Weekday(weekday)
	return &w, nil
}

func scanBlockedInterval(row pgx.Row) (*BlockedInterval, error) {
	var b BlockedInterval
	var reason *string

	err := row.Scan(
		&b.ID,
		&b.StartTime,
		&b.EndTime,
		&reason,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockedIntervalNotFound
		}
		return nil, err
	}

	b.Reason = reason
	return &b, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var clientPackageID *uuid.UUID
	var expiresAt *time.Time

	err := row.Scan(
		&a.ID,
		&a.ClientID,
		&a.ServiceID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Status,
		&clientPackageID,
		&a.CreatedAt,
		&a.UpdatedAt,
		&expiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.ClientPackageID = clientPackageID
	a.ExpiresAt = expiresAt
	return &a, nil
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var appointmentID, packageID *uuid.UUID
	var sessionID *string
	var paidAt *time.Time

	err := row.Scan(
		&p.ID,
		&p.ClientID,
		&appointmentID,
		&packageID,
		&p.AmountCents,
		&p.Currency,
		&p.Status,
		&sessionID,
		&paidAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	p.AppointmentID = appointmentID
	p.PackageID = packageID
	p.CheckoutSessionID = sessionID
	p.PaidAt = paidAt
	return &p, nil
}

// Clients

func (r *PgRepository) CreateClient(ctx context.Context, name, email string, phone *string) (*Client, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, name, email, phone, created_at, updated_at
	`, id, name, email, phone)
	return scanClient(row)
}

func (r *PgRepository) GetClientByID(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM clients
		WHERE id = $1
	`, id)
	return scanClient(row)
}

func (r *PgRepository) ListClients(ctx context.Context, limit, offset int) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM clients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// Services

func (r *PgRepository) CreateService(ctx context.Context, svc Service) (*Service, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, name, description, duration_minutes, price_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, description, duration_minutes, price_cents, active, created_at, updated_at
	`, id, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.Active)
	return scanService(row)
}

func (r *PgRepository) UpdateService(ctx context.Context, svc Service) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE services
		SET name = $2,
		    description = $3,
		    duration_minutes = $4,
		    price_cents = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, duration_minutes, price_cents, active, created_at, updated_at
	`, svc.ID, svc.Name, svc.Description, svc.DurationMinutes, svc.PriceCents, svc.Active)
	return scanService(row)
}

func (r *PgRepository) GetServiceByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, duration_minutes, price_cents, active, created_at, updated_at
		FROM services
		WHERE id = $1
	`, id)
	return scanService(row)
}

func (r *PgRepository) ListServices(ctx context.Context, activeOnly bool) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, duration_minutes, price_cents, active, created_at, updated_at
		FROM services
		WHERE (NOT $1) OR active
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// Packages

func (r *PgRepository) CreatePackage(ctx context.Context, pkg Package) (*Package, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO packages (id, name, description, session_count, price_cents, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, name, description, session_count, price_cents, active, created_at, updated_at
	`, id, pkg.Name, pkg.Description, pkg.SessionCount, pkg.PriceCents, pkg.Active)
	return scanPackage(row)
}

func (r *PgRepository) UpdatePackage(ctx context.Context, pkg Package) (*Package, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE packages
		SET name = $2,
		    description = $3,
		    session_count = $4,
		    price_cents = $5,
		    active = $6,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, name, description, session_count, price_cents, active, created_at, updated_at
	`, pkg.ID, pkg.Name, pkg.Description, pkg.SessionCount, pkg.PriceCents, pkg.Active)
	return scanPackage(row)
}

func (r *PgRepository) GetPackageByID(ctx context.Context, id uuid.UUID) (*Package, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, session_count, price_cents, active, created_at, updated_at
		FROM packages
		WHERE id = $1
	`, id)
	return scanPackage(row)
}

func (r *PgRepository) ListPackages(ctx context.Context, activeOnly bool) ([]Package, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, session_count, price_cents, active, created_at, updated_at
		FROM packages
		WHERE (NOT $1) OR active
		ORDER BY name
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Purchased packages

func (r *PgRepository) GrantClientPackage(ctx context.Context, clientID, packageID uuid.UUID, sessions int) (*ClientPackage, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO client_packages (id, client_id, package_id, sessions_remaining, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, client_id, package_id, sessions_remaining, created_at, updated_at
	`, id, clientID, packageID, sessions)
	return scanClientPackage(row)
}

func (r *PgRepository) FindUsableClientPackage(ctx context.Context, clientID uuid.UUID) (*ClientPackage, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_id, package_id, sessions_remaining, created_at, updated_at
		FROM client_packages
		WHERE client_id = $1
		  AND sessions_remaining > 0
		ORDER BY created_at
		LIMIT 1
	`, clientID)
	return scanClientPackage(row)
}

func (r *PgRepository) ConsumePackageSession(ctx context.Context, id uuid.UUID) (*ClientPackage, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE client_packages
		SET sessions_remaining = sessions_remaining - 1,
		    updated_at = now()
		WHERE id = $1
		  AND sessions_remaining > 0
		RETURNING id, client_id, package_id, sessions_remaining, created_at, updated_at
	`, id)
	return scanClientPackage(row)
}

func (r *PgRepository) ListClientPackages(ctx context.Context, clientID uuid.UUID) ([]ClientPackage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, package_id, sessions_remaining, created_at, updated_at
		FROM client_packages
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ClientPackage
	for rows.Next() {
		cp, err := scanClientPackage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *cp)
	}
	return result, rows.Err()
}

// Availability windows

func (r *PgRepository) CreateWindow(ctx context.Context, w AvailabilityWindow) (*AvailabilityWindow, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_windows (id, weekday, start_minute, end_minute, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, weekday, start_minute, end_minute, active, created_at, updated_at
	`, id, int(w.Weekday), w.StartMinute, w.EndMinute, w.Active)
	return scanWindow(row)
}

func (r *PgRepository) DeactivateWindow(ctx context.Context, id uuid.UUID) (*AvailabilityWindow, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE availability_windows
		SET active = false,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, weekday, start_minute, end_minute, active, created_at, updated_at
	`, id)
	return scanWindow(row)
}

func (r *PgRepository) ListWindowsForWeekday(ctx context.Context, weekday time.Weekday, activeOnly bool) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, weekday, start_minute, end_minute, active, created_at, updated_at
		FROM availability_windows
		WHERE weekday = $1
		  AND ((NOT $2) OR active)
		ORDER BY start_minute
	`, int(weekday), activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListWindows(ctx context.Context) ([]AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, weekday, start_minute, end_minute, active, created_at, updated_at
		FROM availability_windows
		ORDER BY weekday, start_minute
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	return result, rows.Err()
}

// Blocked intervals

func (r *PgRepository) CreateBlockedInterval(ctx context.Context, b BlockedInterval) (*BlockedInterval, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO blocked_intervals (id, start_time, end_time, reason, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, start_time, end_time, reason, created_at
	`, id, b.StartTime, b.EndTime, b.Reason)
	return scanBlockedInterval(row)
}

func (r *PgRepository) DeleteBlockedInterval(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM blocked_intervals
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockedIntervalNotFound
	}
	return nil
}

func (r *PgRepository) ListBlockedIntervalsOverlapping(ctx context.Context, from, to time.Time) ([]BlockedInterval, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, start_time, end_time, reason, created_at
		FROM blocked_intervals
		WHERE start_time < $2
		  AND end_time > $1
		ORDER BY start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedInterval
	for rows.Next() {
		b, err := scanBlockedInterval(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

// Appointments

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, client_id, service_id, start_time, duration_minutes, status, client_package_id, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now(), $8)
		RETURNING id, client_id, service_id, start_time, duration_minutes, status, client_package_id, created_at, updated_at, expires_at
	`, id, a.ClientID, a.ServiceID, a.StartTime, a.DurationMinutes, a.Status, a.ClientPackageID, a.ExpiresAt)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_id, service_id, start_time, duration_minutes, status, client_package_id, created_at, updated_at, expires_at
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := r.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	client, err := r.GetClientByID(ctx, appt.ClientID)
	if err != nil {
		return nil, err
	}
	svc, err := r.GetServiceByID(ctx, appt.ServiceID)
	if err != nil {
		return nil, err
	}

	return &AppointmentDetail{
		Appointment: *appt,
		Client:      client,
		Service:     svc,
	}, nil
}

func (r *PgRepository) ListOccupyingAppointments(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, service_id, start_time, duration_minutes, status, client_package_id, created_at, updated_at, expires_at
		FROM appointments
		WHERE status IN ('pending', 'confirmed')
		  AND start_time < $2
		  AND start_time + make_interval(mins => duration_minutes) > $1
		ORDER BY start_time
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListAppointmentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.client_id, a.service_id, a.start_time, a.duration_minutes, a.status, a.client_package_id, a.created_at, a.updated_at, a.expires_at,
		       c.id, c.name, c.email, c.phone, c.created_at, c.updated_at,
		       s.id, s.name, s.description, s.duration_minutes, s.price_cents, s.active, s.created_at, s.updated_at
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		WHERE a.client_id = $1
		ORDER BY a.start_time DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		var d AppointmentDetail
		var c Client
		var s Service

		err := rows.Scan(
			&d.ID, &d.ClientID, &d.ServiceID, &d.StartTime, &d.DurationMinutes, &d.Status, &d.ClientPackageID, &d.CreatedAt, &d.UpdatedAt, &d.ExpiresAt,
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt,
			&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.PriceCents, &s.Active, &s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		d.Client = &c
		d.Service = &s
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, client_id, service_id, start_time, duration_minutes, status, client_package_id, created_at, updated_at, expires_at
	`, id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, service_id, start_time, duration_minutes, status, client_package_id, created_at, updated_at, expires_at
		FROM appointments
		WHERE status = 'pending'
		  AND expires_at IS NOT NULL
		  AND expires_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// Payments

func (r *PgRepository) CreatePayment(ctx context.Context, p Payment) (*Payment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, client_id, appointment_id, package_id, amount_cents, currency, status, checkout_session_id, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, client_id, appointment_id, package_id, amount_cents, currency, status, checkout_session_id, paid_at, created_at, updated_at
	`, id, p.ClientID, p.AppointmentID, p.PackageID, p.AmountCents, p.Currency, p.Status, p.CheckoutSessionID, p.PaidAt)
	return scanPayment(row)
}

func (r *PgRepository) GetPaymentByCheckoutSession(ctx context.Context, sessionID string) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_id, appointment_id, package_id, amount_cents, currency, status, checkout_session_id, paid_at, created_at, updated_at
		FROM payments
		WHERE checkout_session_id = $1
	`, sessionID)
	return scanPayment(row)
}

func (r *PgRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status PaymentStatus, paidAt *time.Time) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments
		SET status = $2,
		    paid_at = COALESCE($3, paid_at),
		    updated_at = now()
		WHERE id = $1
		RETURNING id, client_id, appointment_id, package_id, amount_cents, currency, status, checkout_session_id, paid_at, created_at, updated_at
	`, id, status, paidAt)
	return scanPayment(row)
}

func (r *PgRepository) ListPaymentsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, appointment_id, package_id, amount_cents, currency, status, checkout_session_id, paid_at, created_at, updated_at
		FROM payments
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (r *PgRepository) ListPayments(ctx context.Context, limit, offset int) ([]Payment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, appointment_id, package_id, amount_cents, currency, status, checkout_session_id, paid_at, created_at, updated_at
		FROM payments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]Payment, error) {
	var result []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// Webhook idempotency

func (r *PgRepository) InsertProviderEvent(ctx context.Context, ev ProviderEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO provider_events (provider, provider_event_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, now())
	`, ev.Provider, ev.ProviderEventID, ev.EventType, ev.Payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateProviderEvent
		}
		return fmt.Errorf("insert provider event: %w", err)
	}
	return nil
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	var apptID *uuid.UUID
	if ev.AppointmentID != nil {
		apptID = ev.AppointmentID
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, apptID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
