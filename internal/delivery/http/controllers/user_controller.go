package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"ideahub/internal/delivery/http/helpers"
	"ideahub/internal/delivery/http/middleware"
	"ideahub/internal/domain"
)

// UpdateProfileRequest is the request body for PATCH /users/me.
type UpdateProfileRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	StudyGroup string `json:"study_group"`
	Telephone  string `json:"telephone"`
}

// Validate implements Validator.
func (u UpdateProfileRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(u.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	return errs
}

// PasswordResetRequest is the request body for POST /users/password-reset/request.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// Validate implements Validator.
func (p PasswordResetRequest) Validate() []string {
	email := strings.TrimSpace(strings.ToLower(p.Email))
	if email == "" {
		return []string{"email is required"}
	}
	if !emailRegexp.MatchString(email) {
		return []string{"invalid email format"}
	}
	return nil
}

// PasswordResetConfirmRequest is the request body for POST /users/password-reset/confirm.
type PasswordResetConfirmRequest struct {
	CodeID      string `json:"code_id"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// Validate implements Validator.
func (p PasswordResetConfirmRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(p.CodeID) == "" {
		errs = append(errs, "code_id is required")
	}
	if strings.TrimSpace(p.Code) == "" {
		errs = append(errs, "code is required")
	}
	if p.NewPassword == "" {
		errs = append(errs, "new_password is required")
	}
	return errs
}

// EmailChangeRequest is the request body for POST /users/email-change/request.
type EmailChangeRequest struct {
	NewEmail string `json:"new_email"`
}

// Validate implements Validator.
func (e EmailChangeRequest) Validate() []string {
	email := strings.TrimSpace(strings.ToLower(e.NewEmail))
	if email == "" {
		return []string{"new_email is required"}
	}
	if !emailRegexp.MatchString(email) {
		return []string{"invalid email format"}
	}
	return nil
}

// EmailChangeConfirmRequest is the request body for POST /users/email-change/confirm.
type EmailChangeConfirmRequest struct {
	CodeID string `json:"code_id"`
	Code   string `json:"code"`
}

// Validate implements Validator.
func (e EmailChangeConfirmRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.CodeID) == "" {
		errs = append(errs, "code_id is required")
	}
	if strings.TrimSpace(e.Code) == "" {
		errs = append(errs, "code is required")
	}
	return errs
}

// CodeIssuedResponse is the response body for the verification-code request
// endpoints. It carries the id the confirm call must reference; the code
// itself goes out by email only.
type CodeIssuedResponse struct {
	CodeID string `json:"code_id"`
}

// UserListResponse is the response body for GET /users.
type UserListResponse struct {
	Users      []*domain.User         `json:"users"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// UserController handles user listing, profiles, soft deletion, and the
// verification-code flows.
type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

// NewUserController creates a UserController with the given logger and service.
func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List users
// @Description Paginated list of non-deleted users, newest first. Requires the ADMIN role.
// @Tags users
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains users and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [get]
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	p := helpers.ParsePagination(r)
	users, total, err := c.Service.List(r.Context(), p)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, UserListResponse{
		Users:      users,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// GetMe godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile.
// @Tags users
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [get]
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	user, err := c.Service.GetByID(r.Context(), claims.Subject)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update current user's profile
// @Description Update name, study group, and telephone. Email and roles cannot be changed here; email moves only through the email-change flow.
// @Tags users
// @Accept json
// @Produce json
// @Param body body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} helpers.APIResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req UpdateProfileRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.UpdateProfile(r.Context(), claims.Subject, domain.ProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		StudyGroup: req.StudyGroup,
		Telephone:  req.Telephone,
	}); err != nil {
		c.fail(w, r, err)
		return
	}
	user, err := c.Service.GetByID(r.Context(), claims.Subject)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Delete godoc
// @Summary Soft-delete a user
// @Description Mark a user deleted; the account stops authenticating but the row stays. Requires the ADMIN role.
// @Tags users
// @Param userID path string true "User ID"
// @Success 204 "user marked deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID} [delete]
func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Delete(r.Context(), r.PathValue("userID")); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore godoc
// @Summary Restore a soft-deleted user
// @Description Clear the deleted flag. Requires the ADMIN role.
// @Tags users
// @Param userID path string true "User ID"
// @Success 204 "user restored"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID}/restore [post]
func (c *UserController) Restore(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Restore(r.Context(), r.PathValue("userID")); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset godoc
// @Summary Request a password reset code
// @Description Email a one-time 6-digit code to an existing account. A new request invalidates any previous active code for the address.
// @Tags users
// @Accept json
// @Produce json
// @Param body body PasswordResetRequest true "Account email"
// @Success 200 {object} helpers.APIResponse "data contains the code_id for the confirm call"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/password-reset/request [post]
func (c *UserController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	codeID, err := c.Service.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CodeIssuedResponse{CodeID: codeID})
}

// ConfirmPasswordReset godoc
// @Summary Confirm a password reset
// @Description Submit the emailed code with a new password. Three wrong codes burn the code permanently; a correct code after that is still rejected.
// @Tags users
// @Accept json
// @Produce json
// @Param body body PasswordResetConfirmRequest true "Code and new password"
// @Success 204 "password updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or wrong_code"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: code_expired"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_attempts"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/password-reset/confirm [post]
func (c *UserController) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ConfirmPasswordReset(r.Context(), req.CodeID, req.Code, req.NewPassword); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestEmailChange godoc
// @Summary Request an email change code
// @Description Email a one-time 6-digit code to the address the caller wants to move to, proving its ownership. The target address must be free.
// @Tags users
// @Accept json
// @Produce json
// @Param body body EmailChangeRequest true "New address"
// @Success 200 {object} helpers.APIResponse "data contains the code_id for the confirm call"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (address taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/email-change/request [post]
func (c *UserController) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req EmailChangeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	codeID, err := c.Service.RequestEmailChange(r.Context(), claims, req.NewEmail)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CodeIssuedResponse{CodeID: codeID})
}

// ConfirmEmailChange godoc
// @Summary Confirm an email change
// @Description Submit the code sent to the new address; on success the caller's account moves to it. Already-issued tokens keep the old email until the next login.
// @Tags users
// @Accept json
// @Produce json
// @Param body body EmailChangeConfirmRequest true "Code"
// @Success 204 "email updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or wrong_code"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 410 {object} helpers.APIResponse "error.code: code_expired"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_attempts"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/email-change/confirm [post]
func (c *UserController) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
		return
	}
	var req EmailChangeConfirmRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	if err := c.Service.ConfirmEmailChange(r.Context(), claims, req.CodeID, req.Code); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *UserController) fail(w http.ResponseWriter, r *http.Request, err error) {
	if helpers.IsInternal(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}
