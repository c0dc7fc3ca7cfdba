package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginRequest(t *testing.T, body map[string]interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLogin_Success(t *testing.T) {
	service := &MockAuthService{
		AuthenticateFunc: func(ctx context.Context, identifier, secret, ipAddress, userAgent string) (*services.LoginResponse, error) {
			assert.Equal(t, "CS/ITC/21/0001", identifier)
			assert.Equal(t, "Correct-Horse-42", secret)
			return &services.LoginResponse{
				Token: "signed-token",
				Account: &services.AccountResponse{
					ID:          "acc-1",
					Name:        "Kwame Mensah",
					Role:        models.RoleStudent,
					IndexNumber: "CS/ITC/21/0001",
				},
			}, nil
		},
	}
	handler := NewAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]interface{}{
		"identifier": "CS/ITC/21/0001",
		"password":   "Correct-Horse-42",
	}))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, "CS/ITC/21/0001", resp.Account.IndexNumber)
}

func TestLogin_InvalidAndLockedShareOneMessage(t *testing.T) {
	outcomes := []error{
		models.ErrInvalidCredentials,
		&models.LockedError{RetryAfter: 3 * time.Minute},
	}

	var bodies []string
	for _, outcome := range outcomes {
		service := &MockAuthService{
			AuthenticateFunc: func(ctx context.Context, identifier, secret, ipAddress, userAgent string) (*services.LoginResponse, error) {
				return nil, outcome
			},
		}
		handler := NewAuthHandler(service)

		rec := httptest.NewRecorder()
		handler.Login(rec, loginRequest(t, map[string]interface{}{
			"identifier": "CS/ITC/21/0001",
			"password":   "whatever",
		}))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}

	// Identical body either way, so the response cannot distinguish a bad
	// password from an active lockout.
	assert.Equal(t, bodies[0], bodies[1])
}

func TestLogin_Unavailable(t *testing.T) {
	service := &MockAuthService{
		AuthenticateFunc: func(ctx context.Context, identifier, secret, ipAddress, userAgent string) (*services.LoginResponse, error) {
			return nil, models.ErrUnavailable
		},
	}
	handler := NewAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]interface{}{
		"identifier": "CS/ITC/21/0001",
		"password":   "whatever",
	}))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogin_MissingFields(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	rec := httptest.NewRecorder()
	handler.Login(rec, loginRequest(t, map[string]interface{}{
		"identifier": "CS/ITC/21/0001",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_MalformedBody(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handler.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func sessionRequest(t *testing.T, body map[string]interface{}, claims *models.SessionClaims) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/auth/session/refresh", bytes.NewReader(raw))
	if claims != nil {
		ctx := context.WithValue(req.Context(), auth.SessionContextKey, claims)
		req = req.WithContext(ctx)
	}
	return req
}

func TestRefresh_Success(t *testing.T) {
	claims := &models.SessionClaims{Role: models.RoleStudent}
	claims.Subject = "acc-1"

	service := &MockAuthService{
		RefreshClaimsFunc: func(ctx context.Context, got *models.SessionClaims, patch auth.ProfilePatch) (*services.LoginResponse, error) {
			assert.Equal(t, "acc-1", got.Subject)
			require.NotNil(t, patch.Name)
			assert.Equal(t, "Kwame A. Mensah", *patch.Name)
			return &services.LoginResponse{Token: "refreshed-token"}, nil
		},
	}
	handler := NewAuthHandler(service)

	rec := httptest.NewRecorder()
	handler.Refresh(rec, sessionRequest(t, map[string]interface{}{
		"name": "  Kwame A. Mensah  ",
	}, claims))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_NoSession(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{})

	rec := httptest.NewRecorder()
	handler.Refresh(rec, sessionRequest(t, map[string]interface{}{}, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
