package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/movewell/booking-server/internal/billing"
	"github.com/movewell/booking-server/internal/booking"
	redisclient "github.com/movewell/booking-server/internal/redis"
)

func availabilityHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceID, err := uuid.Parse(r.URL.Query().Get("service_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		dateStr := r.URL.Query().Get("date")
		day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		svc, slots, err := sched.AvailableSlots(r.Context(), serviceID, day)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		resp := AvailabilityResponse{
			ServiceID:       svc.ID,
			ServiceName:     svc.Name,
			DurationMinutes: svc.DurationMinutes,
			Date:            dateStr,
			Slots:           make([]SlotResponse, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, SlotResponse{Start: s.Start, End: s.End})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be an RFC3339 timestamp")
			return
		}

		appt, err := sched.BookAppointment(r.Context(), clientID, serviceID, start, req.UsePackage)
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		detail, err := sched.GetAppointment(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrAppointmentNotFound) {
				writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func listClientAppointmentsHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "id must be a valid UUID")
			return
		}

		limit, offset := pageParams(r)
		details, err := sched.ListAppointmentsByClient(r.Context(), clientID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]AppointmentDetailResponse, 0, len(details))
		for i := range details {
			resp = append(resp, toDetailResponse(&details[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func confirmAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return appointmentTransitionHandler(sched.ConfirmAppointment)
}

func completeAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return appointmentTransitionHandler(sched.CompleteAppointment)
}

func cancelAppointmentHandler(sched *booking.Scheduler) http.HandlerFunc {
	return appointmentTransitionHandler(sched.CancelAppointment)
}

func appointmentTransitionHandler(transition func(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := transition(r.Context(), id)
		if err != nil {
			handleTransitionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func appointmentCheckoutHandler(bill *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		payment, url, err := bill.CreateAppointmentCheckout(r.Context(), id)
		if err != nil {
			handleCheckoutError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CheckoutResponse{PaymentID: payment.ID, URL: url})
	}
}

func packageCheckoutHandler(bill *billing.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packageID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_package_id", "id must be a valid UUID")
			return
		}

		var req PackageCheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		payment, url, err := bill.CreatePackageCheckout(r.Context(), clientID, packageID)
		if err != nil {
			handleCheckoutError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, CheckoutResponse{PaymentID: payment.ID, URL: url})
	}
}

func listServicesHandler(repo booking.Repository, activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services, err := repo.ListServices(r.Context(), activeOnly)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ServiceResponse, 0, len(services))
		for i := range services {
			resp = append(resp, toServiceResponse(&services[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listPackagesHandler(repo booking.Repository, activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		packages, err := repo.ListPackages(r.Context(), activeOnly)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]PackageResponse, 0, len(packages))
		for i := range packages {
			resp = append(resp, toPackageResponse(&packages[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listClientPackagesHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "id must be a valid UUID")
			return
		}

		credits, err := repo.ListClientPackages(r.Context(), clientID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		type clientPackageResponse struct {
			ID                uuid.UUID `json:"id"`
			PackageID         uuid.UUID `json:"package_id"`
			SessionsRemaining int       `json:"sessions_remaining"`
		}
		resp := make([]clientPackageResponse, 0, len(credits))
		for _, cp := range credits {
			resp = append(resp, clientPackageResponse{
				ID:                cp.ID,
				PackageID:         cp.PackageID,
				SessionsRemaining: cp.SessionsRemaining,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listClientInvoicesHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "id must be a valid UUID")
			return
		}

		limit, offset := pageParams(r)
		payments, err := repo.ListPaymentsByClient(r.Context(), clientID, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for i := range payments {
			resp = append(resp, toPaymentResponse(&payments[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func toDetailResponse(d *booking.AppointmentDetail) AppointmentDetailResponse {
	return AppointmentDetailResponse{
		AppointmentResponse: toAppointmentResponse(&d.Appointment),
		ClientName:          d.Client.Name,
		ServiceName:         d.Service.Name,
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrServiceInactive):
		writeError(w, http.StatusConflict, "service_inactive", err.Error())
	case errors.Is(err, booking.ErrInvalidDuration):
		writeError(w, http.StatusUnprocessableEntity, "invalid_service_duration", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, booking.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, booking.ErrServiceInactive):
		writeError(w, http.StatusConflict, "service_inactive", err.Error())
	case errors.Is(err, booking.ErrInvalidDuration):
		writeError(w, http.StatusUnprocessableEntity, "invalid_service_duration", err.Error())
	case errors.Is(err, booking.ErrStartInPast):
		writeError(w, http.StatusUnprocessableEntity, "start_in_past", err.Error())
	case errors.Is(err, booking.ErrTimeSlotTaken):
		writeError(w, http.StatusConflict, "time_slot_taken", err.Error())
	case errors.Is(err, booking.ErrTimeBlocked):
		writeError(w, http.StatusConflict, "time_blocked", err.Error())
	case errors.Is(err, booking.ErrNoUsablePackage):
		writeError(w, http.StatusConflict, "no_usable_package", err.Error())
	case errors.Is(err, booking.ErrDayBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "day_being_booked", "another booking is in progress, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleTransitionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrAppointmentExpiredState):
		writeError(w, http.StatusConflict, "appointment_expired", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, booking.ErrPackageNotFound):
		writeError(w, http.StatusNotFound, "package_not_found", err.Error())
	case errors.Is(err, billing.ErrAppointmentNotPending):
		writeError(w, http.StatusConflict, "appointment_not_pending", err.Error())
	case errors.Is(err, billing.ErrPackageInactive):
		writeError(w, http.StatusConflict, "package_inactive", err.Error())
	case errors.Is(err, billing.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "checkout_unavailable", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "checkout_failed", err.Error())
	}
}
