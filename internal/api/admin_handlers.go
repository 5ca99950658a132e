package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/movewell/booking-server/internal/booking"
)

// Admin configuration surface: services, packages, availability windows,
// blocked intervals, clients, payments.

func createServiceHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpsertServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_name", "name is required")
			return
		}
		if req.DurationMinutes <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_duration", "duration_minutes must be positive")
			return
		}
		if req.PriceCents < 0 {
			writeError(w, http.StatusBadRequest, "invalid_price", "price_cents must not be negative")
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		svc, err := repo.CreateService(r.Context(), booking.Service{
			Name:            req.Name,
			Description:     req.Description,
			DurationMinutes: req.DurationMinutes,
			PriceCents:      req.PriceCents,
			Active:          active,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toServiceResponse(svc))
	}
}

func updateServiceHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "id must be a valid UUID")
			return
		}

		existing, err := repo.GetServiceByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrServiceNotFound) {
				writeError(w, http.StatusNotFound, "service_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		var req UpsertServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.Name != "" {
			existing.Name = req.Name
		}
		if req.Description != nil {
			existing.Description = req.Description
		}
		if req.DurationMinutes != 0 {
			if req.DurationMinutes < 0 {
				writeError(w, http.StatusBadRequest, "invalid_duration", "duration_minutes must be positive")
				return
			}
			existing.DurationMinutes = req.DurationMinutes
		}
		if req.PriceCents != 0 {
			if req.PriceCents < 0 {
				writeError(w, http.StatusBadRequest, "invalid_price", "price_cents must not be negative")
				return
			}
			existing.PriceCents = req.PriceCents
		}
		if req.Active != nil {
			existing.Active = *req.Active
		}

		updated, err := repo.UpdateService(r.Context(), *existing)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toServiceResponse(updated))
	}
}

func createPackageHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpsertPackageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "invalid_name", "name is required")
			return
		}
		if req.SessionCount <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_session_count", "session_count must be positive")
			return
		}
		if req.PriceCents < 0 {
			writeError(w, http.StatusBadRequest, "invalid_price", "price_cents must not be negative")
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		pkg, err := repo.CreatePackage(r.Context(), booking.Package{
			Name:         req.Name,
			Description:  req.Description,
			SessionCount: req.SessionCount,
			PriceCents:   req.PriceCents,
			Active:       active,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toPackageResponse(pkg))
	}
}

func updatePackageHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_package_id", "id must be a valid UUID")
			return
		}

		existing, err := repo.GetPackageByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrPackageNotFound) {
				writeError(w, http.StatusNotFound, "package_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		var req UpsertPackageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.Name != "" {
			existing.Name = req.Name
		}
		if req.Description != nil {
			existing.Description = req.Description
		}
		if req.SessionCount != 0 {
			if req.SessionCount < 0 {
				writeError(w, http.StatusBadRequest, "invalid_session_count", "session_count must be positive")
				return
			}
			existing.SessionCount = req.SessionCount
		}
		if req.PriceCents != 0 {
			if req.PriceCents < 0 {
				writeError(w, http.StatusBadRequest, "invalid_price", "price_cents must not be negative")
				return
			}
			existing.PriceCents = req.PriceCents
		}
		if req.Active != nil {
			existing.Active = *req.Active
		}

		updated, err := repo.UpdatePackage(r.Context(), *existing)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toPackageResponse(updated))
	}
}

func createWindowHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWindowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		startMin, err := parseClock(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be HH:MM")
			return
		}
		endMin, err := parseClock(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be HH:MM")
			return
		}

		window, err := sched.CreateWindow(r.Context(), booking.AvailabilityWindow{
			Weekday:     time.Weekday(req.Weekday),
			StartMinute: startMin,
			EndMinute:   endMin,
		})
		if err != nil {
			switch {
			case errors.Is(err, booking.ErrInvalidWindow):
				writeError(w, http.StatusBadRequest, "invalid_window", err.Error())
			case errors.Is(err, booking.ErrWindowOverlap):
				writeError(w, http.StatusConflict, "window_overlap", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, toWindowResponse(window))
	}
}

func deactivateWindowHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_window_id", "id must be a valid UUID")
			return
		}

		window, err := repo.DeactivateWindow(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrWindowNotFound) {
				writeError(w, http.StatusNotFound, "window_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toWindowResponse(window))
	}
}

func listWindowsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windows, err := repo.ListWindows(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]WindowResponse, 0, len(windows))
		for i := range windows {
			resp = append(resp, toWindowResponse(&windows[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createBlockedIntervalHandler(sched *booking.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBlockedIntervalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be an RFC3339 timestamp")
			return
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be an RFC3339 timestamp")
			return
		}

		blocked, err := sched.CreateBlockedInterval(r.Context(), booking.BlockedInterval{
			StartTime: start,
			EndTime:   end,
			Reason:    req.Reason,
		})
		if err != nil {
			if errors.Is(err, booking.ErrInvalidInterval) {
				writeError(w, http.StatusBadRequest, "invalid_interval", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toBlockedIntervalResponse(blocked))
	}
}

func deleteBlockedIntervalHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_interval_id", "id must be a valid UUID")
			return
		}

		if err := repo.DeleteBlockedInterval(r.Context(), id); err != nil {
			if errors.Is(err, booking.ErrBlockedIntervalNotFound) {
				writeError(w, http.StatusNotFound, "interval_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listBlockedIntervalsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to, err := rangeParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_range", "from and to must be YYYY-MM-DD")
			return
		}

		intervals, err := repo.ListBlockedIntervalsOverlapping(r.Context(), from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]BlockedIntervalResponse, 0, len(intervals))
		for i := range intervals {
			resp = append(resp, toBlockedIntervalResponse(&intervals[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func createClientHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" || req.Email == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "name and email are required")
			return
		}

		client, err := repo.CreateClient(r.Context(), req.Name, req.Email, req.Phone)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toClientResponse(client))
	}
}

func getClientHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "id must be a valid UUID")
			return
		}

		client, err := repo.GetClientByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, booking.ErrClientNotFound) {
				writeError(w, http.StatusNotFound, "client_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toClientResponse(client))
	}
}

func listClientsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)
		clients, err := repo.ListClients(r.Context(), limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]ClientResponse, 0, len(clients))
		for i := range clients {
			resp = append(resp, toClientResponse(&clients[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listPaymentsHandler(repo booking.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pageParams(r)
		payments, err := repo.ListPayments(r.Context(), limit, offset)
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

// rangeParams parses from/to calendar-day query params, defaulting to the
// next 30 days.
func rangeParams(r *http.Request) (from, to time.Time, err error) {
	now := time.Now().UTC()
	from = now.Truncate(24 * time.Hour)
	to = from.Add(30 * 24 * time.Hour)

	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return from, to, err
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return from, to, err
		}
		to = to.Add(24 * time.Hour)
	}
	return from, to, nil
}
