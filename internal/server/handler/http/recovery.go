package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/models"
	"github.com/surya9901/diary-manager-backend/internal/service"
)

// RecoveryService defines the password-recovery operations required by the HTTP handlers.
type RecoveryService interface {
	RequestReset(ctx context.Context, email string) error
	VerifyPin(ctx context.Context, email, pin string) error
	ResetPassword(ctx context.Context, email, password string) error
}

// RecoveryHandler handles the three steps of the forgotten-password flow.
type RecoveryHandler struct {
	RecoveryService RecoveryService
	Log             *zap.Logger
}

// VerifyPinRequest is the JSON payload of POST /verify-otp.
type VerifyPinRequest struct {
	Email string `json:"email"`
	Pin   string `json:"pin"`
}

// ForgotPassword handles POST /forgot-password-email?q=<email>.
// A delivery failure is reported as 500.
func (h *RecoveryHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("q")
	if email == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.RecoveryService.RequestReset(r.Context(), email)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Message Sent")
	case errors.Is(err, models.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrDeliveryFailed):
		writeMessage(w, http.StatusInternalServerError, "Failed to send message")
	default:
		h.Log.Error("reset request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// VerifyOTP handles POST /verify-otp.
// Unknown emails get the generic 500 response rather than 404.
func (h *RecoveryHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyPinRequest
	if err := decodeJSON(r, &req); err != nil || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.RecoveryService.VerifyPin(r.Context(), req.Email, req.Pin)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Success")
	case errors.Is(err, service.ErrInvalidOTP):
		writeMessage(w, http.StatusPaymentRequired, "Invalid OTP")
	case errors.Is(err, service.ErrRecoveryFailed):
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	default:
		h.Log.Error("pin verification failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}

// NewPassword handles POST /new-pass-word.
// Unknown emails and internal failures both answer 500.
func (h *RecoveryHandler) NewPassword(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil || !req.valid() {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.RecoveryService.ResetPassword(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		writeMessage(w, http.StatusOK, "Password Updated")
	case errors.Is(err, service.ErrResetNotVerified):
		writeMessage(w, http.StatusForbidden, "PIN verification required")
	case errors.Is(err, models.ErrNotFound):
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	default:
		h.Log.Error("password reset failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
