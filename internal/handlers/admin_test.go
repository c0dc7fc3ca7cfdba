package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func provisionRequest(t *testing.T, body map[string]interface{}, actorID string) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/credentials", bytes.NewReader(raw))
	if actorID != "" {
		claims := &models.SessionClaims{Role: models.RoleAdmin}
		claims.Subject = actorID
		req = req.WithContext(context.WithValue(req.Context(), auth.SessionContextKey, claims))
	}
	return req
}

func TestProvisionCredentials_Success(t *testing.T) {
	service := &MockProvisionService{
		ProvisionFunc: func(ctx context.Context, targetAccountID, explicitSecret, actorID string) (*services.ProvisionResult, error) {
			assert.Equal(t, "0b84a40c-06d6-4c59-a8d7-cb024b371e5c", targetAccountID)
			assert.Empty(t, explicitSecret)
			assert.Equal(t, "admin-1", actorID)
			return &services.ProvisionResult{
				Secret:            "Xk7mPq2wNb9Rst",
				AccountIdentifier: "CS/ITC/21/0001",
				RecipientEmail:    "kwame.mensah@students.example.edu",
			}, nil
		},
	}
	handler := NewAdminHandler(service)

	rec := httptest.NewRecorder()
	handler.ProvisionCredentials(rec, provisionRequest(t, map[string]interface{}{
		"account_id": "0b84a40c-06d6-4c59-a8d7-cb024b371e5c",
	}, "admin-1"))

	require.Equal(t, http.StatusCreated, rec.Code)

	var result services.ProvisionResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "Xk7mPq2wNb9Rst", result.Secret)
	assert.Equal(t, "CS/ITC/21/0001", result.AccountIdentifier)
}

func TestProvisionCredentials_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"already provisioned", models.ErrAlreadyProvisioned, http.StatusConflict},
		{"weak secret", models.ErrWeakSecret, http.StatusBadRequest},
		{"unavailable", models.ErrUnavailable, http.StatusServiceUnavailable},
		{"unexpected", models.ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &MockProvisionService{
				ProvisionFunc: func(ctx context.Context, targetAccountID, explicitSecret, actorID string) (*services.ProvisionResult, error) {
					return nil, tt.serviceErr
				},
			}
			handler := NewAdminHandler(service)

			rec := httptest.NewRecorder()
			handler.ProvisionCredentials(rec, provisionRequest(t, map[string]interface{}{
				"account_id": "0b84a40c-06d6-4c59-a8d7-cb024b371e5c",
			}, "admin-1"))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestProvisionCredentials_InvalidAccountID(t *testing.T) {
	handler := NewAdminHandler(&MockProvisionService{})

	rec := httptest.NewRecorder()
	handler.ProvisionCredentials(rec, provisionRequest(t, map[string]interface{}{
		"account_id": "not-a-uuid",
	}, "admin-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProvisionCredentials_NoSession(t *testing.T) {
	handler := NewAdminHandler(&MockProvisionService{})

	rec := httptest.NewRecorder()
	handler.ProvisionCredentials(rec, provisionRequest(t, map[string]interface{}{
		"account_id": "0b84a40c-06d6-4c59-a8d7-cb024b371e5c",
	}, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
