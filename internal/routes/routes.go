package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/proresume/server/internal/auth"
	"github.com/proresume/server/internal/handlers"
	"github.com/proresume/server/internal/middleware"
)

// RegisterRoutes registers all application routes under /api.
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	oauthHandler *handlers.OAuthHandler,
	userHandler *handlers.UserHandler,
	tokenManager *auth.TokenManager,
) {
	authLimit := middleware.DefaultAuthRateLimit()
	emailLimit := middleware.DefaultEmailRateLimit()

	router.Route("/api", func(r chi.Router) {
		// Public auth endpoints
		r.With(middleware.RateLimitByIP(authLimit)).Post("/auth/signup", authHandler.Signup)
		r.With(middleware.RateLimitByIP(authLimit)).Post("/auth/login", authHandler.Login)
		r.With(middleware.RateLimitByIP(authLimit)).Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/auth/verify-email/{token}", authHandler.VerifyEmail)
		r.With(middleware.RateLimitByIP(emailLimit)).Post("/auth/resend-verification", authHandler.ResendVerification)
		r.With(middleware.RateLimitByIP(emailLimit)).Post("/auth/forgot-password", authHandler.ForgotPassword)
		r.Put("/auth/reset-password/{token}", authHandler.ResetPassword)

		// OAuth browser flow
		r.Get("/auth/{provider}", oauthHandler.Start)
		r.Get("/auth/{provider}/callback", oauthHandler.Callback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokenManager))

			r.Post("/auth/logout-all", authHandler.LogoutAll)

			r.Get("/user/profile", userHandler.GetProfile)
			r.Put("/user/profile", userHandler.UpdateProfile)
			r.Put("/user/change-password", userHandler.ChangePassword)
			r.Get("/user/preferences", userHandler.GetPreferences)
			r.Put("/user/preferences", userHandler.UpdatePreferences)
			r.Delete("/user/account", userHandler.DeleteAccount)
		})
	})
}
