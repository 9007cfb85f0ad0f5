package security_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/haven-app/haven-api/internal/security"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 30*24*time.Hour)

	userID := uuid.New()
	email := "test@example.com"

	accessToken, err := manager.GenerateAccessToken(userID, email)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	if accessToken == "" {
		t.Error("access token is empty")
	}

	claims, err := manager.ValidateAccessToken(accessToken)
	if err != nil {
		t.Fatalf("failed to validate access token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID mismatch: got %v, want %v", claims.UserID, userID)
	}

	if claims.Email != email {
		t.Errorf("email mismatch: got %v, want %v", claims.Email, email)
	}
}

func TestJWTManager_GenerateTokenPair(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 30*24*time.Hour)

	userID := uuid.New()
	email := "test@example.com"

	accessToken, refreshToken, expiresIn, err := manager.GenerateTokenPair(userID, email)
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	if accessToken == "" {
		t.Error("access token is empty")
	}

	if refreshToken == "" {
		t.Error("refresh token is empty")
	}

	if expiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expires in mismatch: got %d, want %d", expiresIn, int64((15*time.Minute).Seconds()))
	}

	extractedUserID, err := manager.ValidateRefreshToken(refreshToken)
	if err != nil {
		t.Fatalf("failed to validate refresh token: %v", err)
	}

	if extractedUserID != userID {
		t.Errorf("user ID from refresh token mismatch: got %v, want %v", extractedUserID, userID)
	}
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 30*24*time.Hour)
	other := security.NewJWTManager("another-secret-key-32-chars!!!!", 15*time.Minute, 30*24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Error("expected validation to fail with wrong secret")
	}
}

func TestJWTManager_RejectsExpiredToken(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", -time.Minute, 30*24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}
