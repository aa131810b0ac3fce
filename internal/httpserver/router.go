package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"accauth/internal/auth"
	"accauth/internal/config"
	"accauth/internal/httpserver/handlers"
	"accauth/internal/service"
)

func NewRouter(svc *service.Auth, tm *auth.TokenManager, cfg config.Config, lg *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Post("/v1/auth/register", handlers.Register(svc, lg))
	r.Post("/v1/auth/login", handlers.Login(svc, cfg.BaseURL, lg))
	r.Post("/v1/auth/oauth", handlers.OAuthSignIn(svc, cfg.BaseURL, lg))
	r.Post("/v1/auth/forgot-password", handlers.ForgotPassword(svc, lg))
	r.Post("/v1/auth/reset-password", handlers.ResetPassword(svc, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.JWTAuth(tm))
		protected.Get("/v1/me", handlers.Me(svc, lg))
		protected.Post("/v1/auth/refresh", handlers.RefreshClaims(svc, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(svc, lg))
		protected.Get("/v1/sessions", handlers.ListSessions(svc, lg))
		protected.Post("/v1/sessions/{id}/touch", handlers.TouchSession(svc, lg))
		protected.Post("/v1/sessions/{id}/deactivate", handlers.DeactivateSession(svc, lg))
		protected.Get("/v1/logs", handlers.MyLogs(svc, lg))
		protected.Group(func(admin chi.Router) {
			admin.Use(auth.RequirePermission("users:*"))
			admin.Get("/v1/admin/users", handlers.ListUsers(svc, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
