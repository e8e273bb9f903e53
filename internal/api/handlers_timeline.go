package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/timeline"
)

func listTimelineHandler(svc *timeline.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientID must be a valid UUID")
			return
		}

		events, err := svc.ListForPatient(r.Context(), actor, patientID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]EventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, eventResponse(e))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createTimelineEventHandler(svc *timeline.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		patientID, err := uuid.Parse(chi.URLParam(r, "patientID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientID must be a valid UUID")
			return
		}

		var req CreateEventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		ev, err := svc.Create(r.Context(), actor, patientID, req.Title, req.Description, req.Kind, req.EventDate)
		if err != nil {
			switch {
			case errors.Is(err, timeline.ErrStaffOnly):
				writeError(w, http.StatusForbidden, "staff_only", err.Error())
			case errors.Is(err, timeline.ErrInvalidEvent):
				writeError(w, http.StatusBadRequest, "invalid_event", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, eventResponse(*ev))
	}
}
