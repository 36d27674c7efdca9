package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bloggers-platform/internal/health"
	"bloggers-platform/internal/http/handler"
	"bloggers-platform/internal/http/middleware"
	"bloggers-platform/internal/http/response"
	"bloggers-platform/internal/security"
	"bloggers-platform/internal/service"
)

type Dependencies struct {
	AuthHandler     *handler.AuthHandler
	SecurityHandler *handler.SecurityHandler
	UserHandler     *handler.UserHandler

	JWTManager *security.JWTManager
	Tokens     service.TokenIssuer

	// BasicAuthToken gates the /users admin surface.
	BasicAuthToken string

	// AuthRateLimiter guards credential-facing endpoints. A nil value falls
	// back to a local 5-per-10s window per client and path.
	AuthRateLimiter func(http.Handler) http.Handler

	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(1 << 20))

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(
			middleware.NewLocalWindowLimiter(5, 10*time.Second),
			middleware.FailOpen, "auth", nil,
		).Middleware()
	}
	refreshGate := middleware.RefreshCookieMiddleware(dep.Tokens)
	accessGate := middleware.AuthMiddleware(dep.JWTManager)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "unready"
		}
		response.JSON(w, status, map[string]any{"status": state, "checks": results})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
		r.With(authLimiter).Post("/registration", dep.AuthHandler.Registration)
		r.With(authLimiter).Post("/registration-confirmation", dep.AuthHandler.RegistrationConfirmation)
		r.With(authLimiter).Post("/registration-email-resending", dep.AuthHandler.RegistrationEmailResending)
		r.With(authLimiter, refreshGate).Post("/refresh-token", dep.AuthHandler.Refresh)
		r.With(refreshGate).Post("/logout", dep.AuthHandler.Logout)
		r.With(accessGate).Get("/me", dep.AuthHandler.Me)
	})

	r.Route("/security", func(r chi.Router) {
		r.Use(refreshGate)
		r.Get("/devices", dep.SecurityHandler.ListDevices)
		r.Delete("/devices", dep.SecurityHandler.RevokeOtherDevices)
		r.Delete("/devices/{deviceId}", dep.SecurityHandler.RevokeDevice)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.BasicAuthMiddleware(dep.BasicAuthToken))
		r.Get("/", dep.UserHandler.List)
		r.Post("/", dep.UserHandler.Create)
		r.Delete("/{id}", dep.UserHandler.Delete)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
