package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/haven-app/haven-api/internal/api/middleware"
	"github.com/haven-app/haven-api/internal/api/response"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/service"
)

// ChatHandler handles chat endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Send handles a chat message
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.ChatSend
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	reply, err := h.chatService.Send(r.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrQuotaExhausted):
			response.PaymentRequired(w, "you have used all your free messages, please subscribe to continue")
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "user not found")
		case errors.Is(err, domain.ErrProvider):
			response.BadGateway(w, "assistant is temporarily unavailable")
		default:
			response.InternalError(w, "failed to process message")
		}
		return
	}

	response.OK(w, reply)
}
