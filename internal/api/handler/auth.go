package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/haven-app/haven-api/internal/api/middleware"
	"github.com/haven-app/haven-api/internal/api/response"
	"github.com/haven-app/haven-api/internal/domain"
	"github.com/haven-app/haven-api/internal/service"
)

var validate = validator.New()

// validationErrors maps validator failures to per-field messages
func validationErrors(err error) any {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err.Error()
	}

	out := make(map[string]string)
	for _, e := range fieldErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out[field] = "field is required"
		case "email":
			out[field] = "invalid email format"
		case "min":
			out[field] = "must be at least " + e.Param() + " characters"
		case "max":
			out[field] = "must be at most " + e.Param() + " characters"
		default:
			out[field] = "validation failed on " + e.Tag()
		}
	}
	return out
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			response.Conflict(w, "email is already registered")
			return
		}
		response.InternalError(w, "failed to register")
		return
	}

	response.Created(w, map[string]any{
		"id":                   user.ID,
		"email":                user.Email,
		"name":                 user.Name,
		"free_message_credits": user.FreeMessageCredits,
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			response.Unauthorized(w, "invalid email or password")
			return
		}
		response.InternalError(w, "failed to log in")
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		response.Unauthorized(w, "invalid or expired refresh token")
		return
	}

	response.OK(w, tokens)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.Unauthorized(w, "user not found")
			return
		}
		response.InternalError(w, "failed to load user")
		return
	}

	response.OK(w, map[string]any{
		"id":                      user.ID,
		"email":                   user.Email,
		"name":                    user.Name,
		"free_message_credits":    user.FreeMessageCredits,
		"subscription_expires_at": user.SubscriptionExpiresAt,
		"profile":                 user.Profile,
	})
}
