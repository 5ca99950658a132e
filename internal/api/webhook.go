package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/movewell/booking-server/internal/billing"
	"github.com/movewell/booking-server/internal/booking"
)

// stripeWebhookHandler receives Stripe events. There is no session auth on
// this route; the signature verification is the authentication.
func stripeWebhookHandler(bill *billing.Service, secret string, tolerance time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret == "" {
			writeError(w, http.StatusServiceUnavailable, "webhook_not_configured", "stripe webhook secret is not set")
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			writeError(w, http.StatusBadRequest, "missing_signature", "Stripe-Signature header is required")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MiB hard cap
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable_body", "could not read request body")
			return
		}

		evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, secret, tolerance)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
			return
		}

		// Replayed deliveries are acknowledged without reapplying.
		err = bill.RecordProviderEvent(r.Context(), booking.ProviderEvent{
			Provider:        "stripe",
			ProviderEventID: evt.ID,
			EventType:       string(evt.Type),
			Payload:         body,
		})
		if err != nil {
			if errors.Is(err, booking.ErrDuplicateProviderEvent) {
				writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to record provider event")
			return
		}

		occurredAt := time.Unix(evt.Created, 0).UTC()
		log.Printf("stripe event received id=%s type=%s occurred_at=%s", evt.ID, evt.Type, occurredAt.Format(time.RFC3339))

		switch evt.Type {
		case "checkout.session.completed":
			var session stripe.CheckoutSession
			if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
				log.Printf("stripe: invalid checkout session payload: %v", err)
				break
			}
			if err := bill.ApplyCheckoutCompleted(r.Context(), session.ID, occurredAt); err != nil {
				log.Printf("stripe: apply checkout completed: %v", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "failed to apply payment")
				return
			}

		case "checkout.session.expired":
			var session stripe.CheckoutSession
			if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
				log.Printf("stripe: invalid checkout session payload: %v", err)
				break
			}
			if err := bill.ApplyCheckoutExpired(r.Context(), session.ID); err != nil {
				log.Printf("stripe: apply checkout expired: %v", err)
				writeError(w, http.StatusInternalServerError, "internal_error", "failed to apply expiry")
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}
