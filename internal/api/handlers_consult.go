package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/careport/clinic-booking/internal/consult"
)

func createConsultationHandler(svc *consult.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		c, err := svc.Create(r.Context(), actor)
		if err != nil {
			handleConsultError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, consultationResponse(*c))
	}
}

func uploadURLsHandler(svc *consult.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		var req UploadURLsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		consultationID, err := uuid.Parse(req.ConsultationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "consultationId must be a valid UUID")
			return
		}

		files := make([]consult.FileSpec, 0, len(req.Files))
		for _, f := range req.Files {
			files = append(files, consult.FileSpec{
				Filename:    f.Filename,
				ContentType: f.ContentType,
				AngleTag:    f.AngleTag,
			})
		}

		tasks, err := svc.RequestUploadURLs(r.Context(), actor, consultationID, files)
		if err != nil {
			handleConsultError(w, err)
			return
		}

		resp := make([]UploadTaskResponse, 0, len(tasks))
		for _, t := range tasks {
			resp = append(resp, UploadTaskResponse{
				AngleTag:     t.AngleTag,
				PresignedURL: t.PresignedURL,
				FinalURL:     t.FinalURL,
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{"uploadTasks": resp})
	}
}

func confirmUploadHandler(svc *consult.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		var req ConfirmUploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		consultationID, err := uuid.Parse(req.ConsultationID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_consultation_id", "consultationId must be a valid UUID")
			return
		}

		photos := make([]consult.PhotoSpec, 0, len(req.Photos))
		for _, p := range req.Photos {
			photos = append(photos, consult.PhotoSpec{
				FileURL:  p.FileURL,
				AngleTag: p.AngleTag,
			})
		}

		c, err := svc.ConfirmUpload(r.Context(), actor, consultationID, photos)
		if err != nil {
			handleConsultError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, consultationResponse(*c))
	}
}

func listConsultationsHandler(svc *consult.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing_identity", "no verified identity on request")
			return
		}

		consultations, err := svc.ListForPatient(r.Context(), actor)
		if err != nil {
			handleConsultError(w, err)
			return
		}

		resp := make([]ConsultationResponse, 0, len(consultations))
		for _, c := range consultations {
			resp = append(resp, consultationResponse(c))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleConsultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, consult.ErrConsultationNotFound):
		writeError(w, http.StatusNotFound, "consultation_not_found", err.Error())
	case errors.Is(err, consult.ErrNotOwner):
		writeError(w, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, consult.ErrNoFiles):
		writeError(w, http.StatusBadRequest, "no_files", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
