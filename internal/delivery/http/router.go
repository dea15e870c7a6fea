package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"ideahub/internal/delivery/http/controllers"
	"ideahub/internal/delivery/http/middleware"
	"ideahub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	codec domain.TokenCodec,
	authController *controllers.AuthController,
	invitationController *controllers.InvitationController,
	userController *controllers.UserController,
) *http.ServeMux {
	auth := middleware.RequireAuth(codec)
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireRole(domain.RoleAdmin)(h))
	}

	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("POST /auth/refresh", authController.Refresh)
	mux.HandleFunc("POST /auth/logout", authController.Logout)
	mux.HandleFunc("POST /auth/register", authController.Register)

	// Invitations
	mux.HandleFunc("POST /invitations", admin(invitationController.Send))
	mux.HandleFunc("GET /invitations/{invitationID}", invitationController.Get)

	// Users
	mux.HandleFunc("GET /users", admin(userController.List))
	mux.HandleFunc("GET /users/me", auth(userController.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(userController.UpdateMe))
	mux.HandleFunc("DELETE /users/{userID}", admin(userController.Delete))
	mux.HandleFunc("POST /users/{userID}/restore", admin(userController.Restore))

	// Verification-code flows. The password reset ones are anonymous by
	// design; the email change ones need a session.
	mux.HandleFunc("POST /users/password-reset/request", userController.RequestPasswordReset)
	mux.HandleFunc("POST /users/password-reset/confirm", userController.ConfirmPasswordReset)
	mux.HandleFunc("POST /users/email-change/request", auth(userController.RequestEmailChange))
	mux.HandleFunc("POST /users/email-change/confirm", auth(userController.ConfirmEmailChange))

	// Liveness
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
