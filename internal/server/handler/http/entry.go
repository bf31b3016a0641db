package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/surya9901/diary-manager-backend/internal/middleware"
	"github.com/surya9901/diary-manager-backend/internal/models"
)

// EntryService defines the journal entry operations required by the EntryHandler.
type EntryService interface {
	Create(ctx context.Context, userID string, e models.Entry) (string, error)
	List(ctx context.Context, userID string) ([]models.Entry, error)
	Search(ctx context.Context, userID, q string) ([]models.Entry, error)
	Get(ctx context.Context, userID, id string) (*models.Entry, error)
	Update(ctx context.Context, userID string, e models.Entry) error
	Delete(ctx context.Context, userID, id string) error
}

// EntryHandler handles the journal entry endpoints. All of them require an
// authenticated account in the request context.
type EntryHandler struct {
	EntryService EntryService
	Log          *zap.Logger
}

// EntryRequest is the JSON payload for creating and editing entries.
type EntryRequest struct {
	Title  string `json:"title"`
	Date   string `json:"date"`
	Memory string `json:"memory"`
}

func (req EntryRequest) entry() models.Entry {
	return models.Entry{Title: req.Title, Date: req.Date, Memory: req.Memory}
}

// Create handles POST /create-memory.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	userID := middleware.GetUserIDFromContext(r.Context())
	id, err := h.EntryService.Create(r.Context(), userID, req.entry())
	if err != nil {
		h.fail(w, "create entry", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Memory added successfully",
		"id":      id,
	})
}

// List handles GET /view-memory.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.EntryService.List(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, "list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Search handles GET /filtered-data?q=<title or date>.
func (h *EntryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	entries, err := h.EntryService.Search(r.Context(), middleware.GetUserIDFromContext(r.Context()), q)
	if err != nil {
		h.fail(w, "search entries", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Get handles GET /view-memory-toEdit/{id}.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	e, err := h.EntryService.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get entry", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// Update handles PUT /edited-data/{id}.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request")
		return
	}

	e := req.entry()
	e.ID = chi.URLParam(r, "id")
	if err := h.EntryService.Update(r.Context(), middleware.GetUserIDFromContext(r.Context()), e); err != nil {
		h.fail(w, "update entry", err)
		return
	}
	writeMessage(w, http.StatusOK, "Edited Successfully")
}

// Delete handles DELETE /delete-data/{id}.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	if err := h.EntryService.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete entry", err)
		return
	}
	writeMessage(w, http.StatusOK, "Deleted Successfully")
}

func (h *EntryHandler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, models.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Memory not found")
		return
	}
	h.Log.Error(op+" failed", zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, msgInternal)
}
