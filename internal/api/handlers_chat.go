package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/booking"
	"github.com/careport/clinic-booking/internal/chat"
)

func chatHistoryHandler(svc *chat.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requester, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		target, err := uuid.Parse(chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientID must be a valid UUID")
			return
		}

		msgs, err := svc.History(r.Context(), requester, target)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]MessageResponse, 0, len(msgs))
		for _, m := range msgs {
			resp = append(resp, messageResponse(m))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// chatPatientsHandler serves the staff console roster: every patient with
// their latest booking, so staff know whose channel to open.
func chatPatientsHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		roster, err := svc.PatientRoster(r.Context(), actor)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		resp := make([]RosterEntryResponse, 0, len(roster))
		for _, b := range roster {
			resp = append(resp, rosterEntryResponse(b))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
