package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haven-app/haven-api/internal/api/handler"
	"github.com/haven-app/haven-api/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, true, response["success"])

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestListLLMProviders(t *testing.T) {
	router := llm.NewRouter("groq")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/llm-providers", nil)
	rec := httptest.NewRecorder()

	handler.ListLLMProviders(router)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "groq", data["default_provider"])
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	h := handler.NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	h := handler.NewAuthHandler(nil)

	body := `{"email":"not-an-email","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Register(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	fields, ok := response["error"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "Email")
	assert.Contains(t, fields, "Password")
}

func TestChatHandler_Send_MissingMessage(t *testing.T) {
	// No user in context, rejected before the body is considered.
	h := handler.NewChatHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Send(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
