package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/booking"
	redisclient "github.com/careport/clinic-booking/internal/redis"
)

func listAvailableSlotsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListAvailable(r.Context(), time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]SlotResponse, 0, len(slots))
		for i := range slots {
			resp = append(resp, slotResponse(&slots[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func bookSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		var req BookSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slotID, err := uuid.Parse(req.SlotID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slotId must be a valid UUID")
			return
		}

		slot, err := svc.Claim(r.Context(), actor, slotID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotResponse(slot))
	}
}

func createSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		var req CreateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		slot, err := svc.CreateSlot(r.Context(), actor, req.DateTime)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, slotResponse(slot))
	}
}

func deleteSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slotID must be a valid UUID")
			return
		}

		if err := svc.DeleteSlot(r.Context(), actor, slotID); err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "slot deleted"})
	}
}

func pendingApprovalHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		pending, err := svc.ListPendingApproval(r.Context(), actor)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]PendingSlotResponse, 0, len(pending))
		for _, p := range pending {
			resp = append(resp, pendingSlotResponse(p))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func approveSlotHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		slotID, err := uuid.Parse(chi.URLParam(r, "slotID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_slot_id", "slotID must be a valid UUID")
			return
		}

		slot, err := svc.Approve(r.Context(), actor, slotID)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, slotResponse(slot))
	}
}

// handleBookingError maps booking sentinel errors onto the HTTP taxonomy.
// Conflicts stay distinguishable from not-found: "already taken" and "pick
// another slot" call for different remediation.
func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrStaffOnly):
		writeError(w, http.StatusForbidden, "staff_only", err.Error())
	case errors.Is(err, booking.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, "slot_not_found", err.Error())
	case errors.Is(err, booking.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "already_booked", err.Error())
	case errors.Is(err, booking.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "slot_unavailable", err.Error())
	case errors.Is(err, booking.ErrSlotReserved):
		writeError(w, http.StatusConflict, "slot_reserved", err.Error())
	case errors.Is(err, booking.ErrNotApprovable):
		writeError(w, http.StatusConflict, "not_approvable", err.Error())
	case errors.Is(err, booking.ErrBookingContended),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "booking_contended", "a booking for this patient is in progress, please retry shortly")
	case errors.Is(err, booking.ErrInvalidDateTime):
		writeError(w, http.StatusBadRequest, "invalid_date_time", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
