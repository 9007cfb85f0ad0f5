package handler

import (
	"encoding/json"
	"net/http"

	"github.com/haven-app/haven-api/internal/api/middleware"
	"github.com/haven-app/haven-api/internal/api/response"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/service"
)

// ConversationHandler handles saved conversation endpoints
type ConversationHandler struct {
	conversationService *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// Save stores a conversation snapshot
func (h *ConversationHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.ConversationCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	conv, err := h.conversationService.Save(r.Context(), userID, input)
	if err != nil {
		response.InternalError(w, "failed to save conversation")
		return
	}

	response.Created(w, conv)
}

// List returns the user's saved conversations, newest first
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conversations, err := h.conversationService.List(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list conversations")
		return
	}

	response.OK(w, conversations)
}
