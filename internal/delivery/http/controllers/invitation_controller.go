package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"ideahub/internal/delivery/http/helpers"
	"ideahub/internal/delivery/http/middleware"
	"ideahub/internal/domain"
)

// SendInvitationsRequest is the request body for POST /invitations.
type SendInvitationsRequest struct {
	Emails []string `json:"emails"`
	Roles  []string `json:"roles"`
}

// Validate implements Validator.
func (s SendInvitationsRequest) Validate() []string {
	var errs []string
	if len(s.Emails) == 0 {
		errs = append(errs, "emails is required")
	}
	for _, email := range s.Emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email != "" && !emailRegexp.MatchString(email) {
			errs = append(errs, "invalid email format: "+email)
		}
	}
	if len(s.Roles) == 0 {
		errs = append(errs, "roles is required")
	}
	return errs
}

// SendInvitationsResponse is the response body for POST /invitations.
type SendInvitationsResponse struct {
	Enqueued int `json:"enqueued"`
}

// InvitationController handles sending and fetching invitations.
type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

// NewInvitationController creates an InvitationController with the given
// logger and service.
func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// Send godoc
// @Summary Send invitations
// @Description Enqueue invitation emails for a batch of addresses with a role set. Addresses that already have an account fail the whole batch; addresses with an unexpired invitation are skipped. Requires the ADMIN role.
// @Tags invitations
// @Accept json
// @Produce json
// @Param body body SendInvitationsRequest true "Addresses and roles"
// @Success 200 {object} helpers.APIResponse "data contains the enqueued count; 0 means everything was already invited"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (some addresses are registered)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations [post]
func (c *InvitationController) Send(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req SendInvitationsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	n, err := c.Service.SendInvitations(r.Context(), claims, req.Emails, req.Roles)
	if err != nil {
		if helpers.IsInternal(err) {
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, SendInvitationsResponse{Enqueued: n})
}

// Get godoc
// @Summary Get an invitation
// @Description Fetch an unexpired invitation by id, for the registration page. The fetch extends the invitation's expiry so the form stays usable.
// @Tags invitations
// @Produce json
// @Param invitationID path string true "Invitation ID"
// @Success 200 {object} helpers.APIResponse "data contains the invitation"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (unknown or expired)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /invitations/{invitationID} [get]
func (c *InvitationController) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := c.Service.Get(r.Context(), r.PathValue("invitationID"))
	if err != nil {
		if helpers.IsInternal(err) {
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		}
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, inv)
}
