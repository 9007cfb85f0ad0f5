package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/api/middleware"
	"github.com/haven-app/haven-api/internal/api/response"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/service"
)

// JournalHandler handles journal endpoints
type JournalHandler struct {
	journalService *service.JournalService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journalService *service.JournalService) *JournalHandler {
	return &JournalHandler{journalService: journalService}
}

// Create records a new journal entry
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.JournalCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	journal, err := h.journalService.Create(r.Context(), userID, input)
	if err != nil {
		response.InternalError(w, "failed to create journal entry")
		return
	}

	response.Created(w, journal)
}

// List returns the user's journal entries, newest first
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	journals, err := h.journalService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list journal entries")
		return
	}

	response.OK(w, journals)
}

// Delete removes one of the user's journal entries
func (h *JournalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	journalID, err := uuid.Parse(chi.URLParam(r, "journalID"))
	if err != nil {
		response.BadRequest(w, "invalid journal ID")
		return
	}

	if err := h.journalService.Delete(r.Context(), journalID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "journal entry not found")
			return
		}
		response.InternalError(w, "failed to delete journal entry")
		return
	}

	response.NoContent(w)
}
