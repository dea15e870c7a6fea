package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"ideahub/internal/delivery/http/helpers"
	"ideahub/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(l.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// RegisterRequest is the request body for POST /auth/register. Email and roles
// are fixed by the invitation and are not accepted here.
type RegisterRequest struct {
	InvitationID string `json:"invitation_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Password     string `json:"password"`
	StudyGroup   string `json:"study_group"`
	Telephone    string `json:"telephone"`
}

// Validate implements Validator.
func (r RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(r.InvitationID) == "" {
		errs = append(errs, "invitation_id is required")
	}
	if strings.TrimSpace(r.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if r.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// SessionResponse describes the authenticated identity; tokens themselves
// travel only in cookies.
type SessionResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
}

// AuthController handles login, token refresh, logout, and invitation-based
// registration.
type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
	// Secure marks auth cookies Secure; set from the production flag.
	Secure bool
}

// NewAuthController creates an AuthController with the given logger and service.
func NewAuthController(logger *slog.Logger, svc domain.AuthService, secure bool) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
		Secure:  secure,
	}
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password. Sets HTTP-only access and refresh token cookies. The failure response never reveals whether the email exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} helpers.APIResponse "data contains the user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, pair, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.SetAuthCookies(w, pair, c.Secure)
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Refresh godoc
// @Summary Refresh the session
// @Description Exchange the refresh-token cookie for a fresh access and refresh pair. An access token in the refresh cookie is rejected.
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse "data contains the session identity"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/refresh [post]
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(helpers.RefreshCookie)
	if err != nil || cookie.Value == "" {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "missing refresh token")
		return
	}
	claims, pair, err := c.Service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.SetAuthCookies(w, pair, c.Secure)
	helpers.WriteJSONSuccess(w, http.StatusOK, SessionResponse{
		ID:        claims.Subject,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Roles:     claims.Roles,
	})
}

// Logout godoc
// @Summary Log out
// @Description Clear both auth cookies. Stateless on the server; always succeeds.
// @Tags auth
// @Success 204 "cookies cleared"
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	helpers.ClearAuthCookies(w, c.Secure)
	w.WriteHeader(http.StatusNoContent)
}

// Register godoc
// @Summary Register via invitation
// @Description Redeem an unexpired invitation. The account takes the invitation's email and roles; the invitation is expired afterwards and cannot be redeemed twice.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} helpers.APIResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (invitation unknown or expired)"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.Register(r.Context(), strings.TrimSpace(req.InvitationID), domain.Registration{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Password:   req.Password,
		StudyGroup: req.StudyGroup,
		Telephone:  req.Telephone,
	})
	if err != nil {
		c.fail(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, user)
}

func (c *AuthController) fail(w http.ResponseWriter, r *http.Request, err error) {
	if helpers.IsInternal(err) {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteDomainError(w, err)
}
