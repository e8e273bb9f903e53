package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/careport/clinic-booking/internal/identity"
)

func registerHandler(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		user, err := svc.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrEmailTaken):
				writeError(w, http.StatusConflict, "email_taken", "this email address is already registered")
			case errors.Is(err, identity.ErrInvalidCredentials):
				writeError(w, http.StatusBadRequest, "invalid_credentials", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusCreated, UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  string(user.Role),
		})
	}
}

func loginHandler(svc *identity.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, user, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			AccessToken: token,
			UserID:      user.ID,
			Role:        string(user.Role),
		})
	}
}
