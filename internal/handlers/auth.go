package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/services"
	pkghttp "github.com/eyramk/campusgate/pkg/http"
)

// AuthServiceInterface defines the interface for authentication logic
type AuthServiceInterface interface {
	Authenticate(ctx context.Context, identifier, secret, ipAddress, userAgent string) (*services.LoginResponse, error)
	RefreshClaims(ctx context.Context, claims *models.SessionClaims, patch auth.ProfilePatch) (*services.LoginResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

// LoginRequest represents the request body for login. Identifier is either a
// staff email or a student index number; which one is decided server-side.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=254"`
	Password   string `json:"password" validate:"required,max=128"`
}

// RefreshRequest represents the request body for a session claim refresh.
type RefreshRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	AvatarRef *string `json:"avatar_ref,omitempty" validate:"omitempty,max=500"`
}

// Login handles sign-in for both identifier namespaces.
// @Summary Portal login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)

	ipAddress := pkghttp.ExtractClientIP(r)
	userAgent := r.Header.Get("User-Agent")

	resp, err := h.service.Authenticate(r.Context(), req.Identifier, req.Password, ipAddress, userAgent)
	if err != nil {
		_, locked := models.IsLocked(err)
		switch {
		case errors.Is(err, models.ErrInvalidCredentials), locked:
			// One message for bad credentials and active lockouts, so the
			// response cannot be used to probe which accounts exist or
			// which are under attack. The audit log keeps the real reason.
			pkghttp.WriteUnauthorized(w, "Invalid credentials or account temporarily locked")
		case errors.Is(err, models.ErrUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Authentication temporarily unavailable. Please try again.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// Refresh re-issues the caller's session with updated display claims.
// @Summary Refresh session claims
// @Accept json
// @Param request body RefreshRequest true "Refresh request"
// @Produce json
// @Success 200 {object} services.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /auth/session/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	resp, err := h.service.RefreshClaims(r.Context(), claims, auth.ProfilePatch{
		Name:      req.Name,
		AvatarRef: req.AvatarRef,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Invalid or expired session")
		case errors.Is(err, models.ErrUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Service temporarily unavailable. Please try again.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
