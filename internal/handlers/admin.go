package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eyramk/campusgate/internal/auth"
	"github.com/eyramk/campusgate/internal/models"
	"github.com/eyramk/campusgate/internal/services"
	pkghttp "github.com/eyramk/campusgate/pkg/http"
)

// ProvisionServiceInterface defines the interface for credential provisioning
type ProvisionServiceInterface interface {
	Provision(ctx context.Context, targetAccountID, explicitSecret, actorID string) (*services.ProvisionResult, error)
}

// AdminHandler handles administrative HTTP requests
type AdminHandler struct {
	provisioner ProvisionServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(provisioner ProvisionServiceInterface) *AdminHandler {
	return &AdminHandler{
		provisioner: provisioner,
	}
}

// ProvisionRequest represents the request body for credential provisioning.
// Secret is optional; when omitted a random one is generated.
type ProvisionRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
	Secret    string `json:"secret,omitempty" validate:"omitempty,max=128"`
}

// ProvisionCredentials issues first-time login credentials for an account.
// The response body is the only place the plaintext secret ever appears.
// @Summary Provision account credentials
// @Accept json
// @Param request body ProvisionRequest true "Provision request"
// @Produce json
// @Success 201 {object} services.ProvisionResult
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /admin/credentials [post]
func (h *AdminHandler) ProvisionCredentials(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.provisioner.Provision(r.Context(), req.AccountID, req.Secret, claims.Subject)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrAlreadyProvisioned):
			pkghttp.WriteConflict(w, "Account already has credentials")
		case errors.Is(err, models.ErrWeakSecret):
			pkghttp.WriteError(w, http.StatusBadRequest, "weak_secret", "Secret does not meet the strength policy")
		case errors.Is(err, models.ErrUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Service temporarily unavailable. Please try again.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}
