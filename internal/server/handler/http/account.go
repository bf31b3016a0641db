// Package http provides the HTTP handlers and routing of the diary API.
package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/middleware"
	"github.com/surya9901/diary-manager-backend/internal/models"
	"github.com/surya9901/diary-manager-backend/internal/service"
)

// AccountService defines the account operations required by the HTTP handlers.
type AccountService interface {
	// Register creates an account and returns its ID, or models.ErrDuplicate.
	Register(ctx context.Context, email, password string) (string, error)
	// Login returns a session token, or service.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (string, error)
	// Profile returns the public view of an account.
	Profile(ctx context.Context, accountID string) (*models.Profile, error)
}

// AccountHandler handles HTTP requests for registration, login and profile lookup.
type AccountHandler struct {
	// AccountService performs the underlying account operations.
	AccountService AccountService
	// Log receives internal faults.
	Log *zap.Logger
}

// CredentialsRequest represents the JSON payload for registration and login.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req CredentialsRequest) valid() bool {
	return req.Email != "" && req.Password != ""
}

// Register handles POST /register.
// It answers 200 with the new account ID, 204 if the email is already
// registered, 400 for a malformed body and 500 on internal failure.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil || !req.valid() {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	id, err := h.AccountService.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, models.ErrDuplicate) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		h.Log.Error("register failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User Created",
		"id":      id,
	})
}

// Login handles POST /login.
// Unknown emails and wrong passwords get the same 400 response.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil || !req.valid() {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, err := h.AccountService.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeMessage(w, http.StatusBadRequest, "Username/Password incorrect")
		return
	}
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Logged in!",
		"token":   token,
	})
}

// UserName handles GET /userName and returns the caller's profile.
func (h *AccountHandler) UserName(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	profile, err := h.AccountService.Profile(r.Context(), userID)
	if errors.Is(err, models.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		h.Log.Error("profile lookup failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
