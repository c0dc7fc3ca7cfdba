package handlers

import (
	"context"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	AuthenticateFunc  func(ctx context.Context, identifier, secret, ipAddress, userAgent string) (*services.LoginResponse, error)
	RefreshClaimsFunc func(ctx context.Context, claims *models.SessionClaims, patch auth.ProfilePatch) (*services.LoginResponse, error)
}

func (m *MockAuthService) Authenticate(ctx context.Context, identifier, secret, ipAddress, userAgent string) (*services.LoginResponse, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, identifier, secret, ipAddress, userAgent)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockAuthService) RefreshClaims(ctx context.Context, claims *models.SessionClaims, patch auth.ProfilePatch) (*services.LoginResponse, error) {
	if m.RefreshClaimsFunc != nil {
		return m.RefreshClaimsFunc(ctx, claims, patch)
	}
	return nil, models.ErrUnauthorized
}

// MockProvisionService implements ProvisionServiceInterface for testing
type MockProvisionService struct {
	ProvisionFunc func(ctx context.Context, targetAccountID, explicitSecret, actorID string) (*services.ProvisionResult, error)
}

func (m *MockProvisionService) Provision(ctx context.Context, targetAccountID, explicitSecret, actorID string) (*services.ProvisionResult, error) {
	if m.ProvisionFunc != nil {
		return m.ProvisionFunc(ctx, targetAccountID, explicitSecret, actorID)
	}
	return nil, models.ErrNotFound
}
