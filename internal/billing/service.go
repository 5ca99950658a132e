// Package billing integrates Stripe hosted checkout: clients pay for a
// pending appointment or a session package through a Stripe-hosted page,
// and the webhook applies the outcome. Payment rows double as the
// client-visible invoices.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/movewell/booking-server/internal/booking"
	"github.com/movewell/booking-server/internal/config"
)

const (
	EventPaymentReceived = "PAYMENT_RECEIVED"
	EventPaymentExpired  = "PAYMENT_EXPIRED"
)

var (
	ErrNotConfigured         = errors.New("stripe is not configured")
	ErrAppointmentNotPending = errors.New("appointment is not awaiting payment")
	ErrPackageInactive       = errors.New("package is not active")
)

type Service struct {
	repo  booking.Repository
	sched *booking.Scheduler
	cfg   config.Config
}

func NewService(repo booking.Repository, sched *booking.Scheduler, cfg config.Config) *Service {
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
	}
	return &Service{
		repo:  repo,
		sched: sched,
		cfg:   cfg,
	}
}

// CreateAppointmentCheckout opens a Stripe checkout session for a pending
// appointment and records the payment in created state. The returned URL is
// the hosted payment page.
func (s *Service) CreateAppointmentCheckout(ctx context.Context, appointmentID uuid.UUID) (*booking.Payment, string, error) {
	if s.cfg.StripeSecretKey == "" {
		return nil, "", ErrNotConfigured
	}

	detail, err := s.repo.GetAppointmentDetail(ctx, appointmentID)
	if err != nil {
		return nil, "", err
	}
	if detail.Status != booking.StatusPending {
		return nil, "", ErrAppointmentNotPending
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(s.cfg.CheckoutCancelURL),
		ClientReferenceID: stripe.String(detail.ClientID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.cfg.Currency),
					UnitAmount: stripe.Int64(detail.Service.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(detail.Service.Name),
					},
				},
			},
		},
		Metadata: map[string]string{
			"kind":           "appointment",
			"appointment_id": detail.ID.String(),
		},
	}
	if detail.ExpiresAt != nil {
		params.ExpiresAt = stripe.Int64(detail.ExpiresAt.Unix())
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, "", fmt.Errorf("create checkout session: %w", err)
	}

	apptID := detail.ID
	payment, err := s.repo.CreatePayment(ctx, booking.Payment{
		ClientID:          detail.ClientID,
		AppointmentID:     &apptID,
		AmountCents:       detail.Service.PriceCents,
		Currency:          s.cfg.Currency,
		Status:            booking.PaymentCreated,
		CheckoutSessionID: &sess.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("persist payment: %w", err)
	}

	return payment, sess.URL, nil
}

// CreatePackageCheckout opens a Stripe checkout session for a session
// package purchase. Credits are granted when the webhook reports the
// session completed.
func (s *Service) CreatePackageCheckout(ctx context.Context, clientID, packageID uuid.UUID) (*booking.Payment, string, error) {
	if s.cfg.StripeSecretKey == "" {
		return nil, "", ErrNotConfigured
	}

	if _, err := s.repo.GetClientByID(ctx, clientID); err != nil {
		return nil, "", err
	}
	pkg, err := s.repo.GetPackageByID(ctx, packageID)
	if err != nil {
		return nil, "", err
	}
	if !pkg.Active {
		return nil, "", ErrPackageInactive
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(s.cfg.CheckoutSuccessURL),
		CancelURL:         stripe.String(s.cfg.CheckoutCancelURL),
		ClientReferenceID: stripe.String(clientID.String()),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.cfg.Currency),
					UnitAmount: stripe.Int64(pkg.PriceCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(pkg.Name),
					},
				},
			},
		},
		Metadata: map[string]string{
			"kind":       "package",
			"client_id":  clientID.String(),
			"package_id": pkg.ID.String(),
		},
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		return nil, "", fmt.Errorf("create checkout session: %w", err)
	}

	payment, err := s.repo.CreatePayment(ctx, booking.Payment{
		ClientID:          clientID,
		PackageID:         &pkg.ID,
		AmountCents:       pkg.PriceCents,
		Currency:          s.cfg.Currency,
		Status:            booking.PaymentCreated,
		CheckoutSessionID: &sess.ID,
	})
	if err != nil {
		return nil, "", fmt.Errorf("persist payment: %w", err)
	}

	return payment, sess.URL, nil
}

// ApplyCheckoutCompleted is called by the webhook handler once the event
// signature has been verified and the event recorded for idempotency.
func (s *Service) ApplyCheckoutCompleted(ctx context.Context, sessionID string, occurredAt time.Time) error {
	payment, err := s.repo.GetPaymentByCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, booking.ErrPaymentNotFound) {
			// Session created outside this system; nothing to apply.
			log.Printf("stripe: no payment for checkout session %s", sessionID)
			return nil
		}
		return fmt.Errorf("load payment: %w", err)
	}

	if payment.Status == booking.PaymentPaid {
		return nil
	}

	paidAt := occurredAt
	if _, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, booking.PaymentPaid, &paidAt); err != nil {
		return fmt.Errorf("mark payment paid: %w", err)
	}

	switch {
	case payment.AppointmentID != nil:
		if _, err := s.sched.ConfirmAppointment(ctx, *payment.AppointmentID); err != nil {
			// The appointment may have expired between payment and
			// delivery; the payment stays recorded for manual follow-up.
			log.Printf("stripe: payment %s received but appointment %s not confirmable: %v",
				payment.ID, *payment.AppointmentID, err)
		}
	case payment.PackageID != nil:
		pkg, err := s.repo.GetPackageByID(ctx, *payment.PackageID)
		if err != nil {
			return fmt.Errorf("load package: %w", err)
		}
		if _, err := s.repo.GrantClientPackage(ctx, payment.ClientID, pkg.ID, pkg.SessionCount); err != nil {
			return fmt.Errorf("grant package sessions: %w", err)
		}
	}

	s.logEvent(ctx, payment.AppointmentID, EventPaymentReceived, sessionID)
	return nil
}

// ApplyCheckoutExpired marks the payment for an abandoned checkout session.
// The appointment itself is reaped by the expiry worker once its payment
// deadline passes.
func (s *Service) ApplyCheckoutExpired(ctx context.Context, sessionID string) error {
	payment, err := s.repo.GetPaymentByCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, booking.ErrPaymentNotFound) {
			return nil
		}
		return fmt.Errorf("load payment: %w", err)
	}
	if payment.Status != booking.PaymentCreated {
		return nil
	}

	if _, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, booking.PaymentExpired, nil); err != nil {
		return fmt.Errorf("mark payment expired: %w", err)
	}

	s.logEvent(ctx, payment.AppointmentID, EventPaymentExpired, sessionID)
	return nil
}

// RecordProviderEvent stores the raw webhook event; a duplicate provider
// event ID means a replayed delivery.
func (s *Service) RecordProviderEvent(ctx context.Context, ev booking.ProviderEvent) error {
	return s.repo.InsertProviderEvent(ctx, ev)
}

func (s *Service) logEvent(ctx context.Context, appointmentID *uuid.UUID, eventType, sessionID string) {
	ev := booking.EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       []byte(fmt.Sprintf(`{"checkout_session_id":%q}`, sessionID)),
		CreatedAt:     time.Now(),
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Printf("failed to insert event log %s: %v", eventType, err)
	}
}
