package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/epten08/go-rest-api/internal/auth"
	apperrors "github.com/epten08/go-rest-api/pkg/errors"
	"github.com/epten08/go-rest-api/pkg/health"
	"github.com/epten08/go-rest-api/pkg/middleware"
)

const serviceName = "rest-api"

// RouterConfig carries the dependencies the HTTP router needs.
type RouterConfig struct {
	AuthHandler *AuthHandler
	UserHandler *UserHandler
	PostHandler *PostHandler
	JWTManager  *auth.JWTManager
	Health      *health.Handler
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	Logger      *slog.Logger
}

// NewRouter builds the chi router with the full middleware chain and all
// API routes mounted under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.PrometheusMetrics(serviceName))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware())
	}

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	authenticate := middleware.Auth(AccessTokenValidator(cfg.JWTManager))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Post("/register", cfg.AuthHandler.Register)
				r.Post("/login", cfg.AuthHandler.Login)
				r.Post("/refresh", cfg.AuthHandler.Refresh)
				r.Get("/verify-email", cfg.AuthHandler.VerifyEmail)
				r.Post("/resend-verification", cfg.AuthHandler.ResendVerification)
				r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
				r.Post("/reset-password", cfg.AuthHandler.ResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequestLogger(cfg.Logger))
				r.Post("/logout", cfg.AuthHandler.Logout)
				r.Get("/me", cfg.AuthHandler.Me)
				r.Post("/send-verification", cfg.AuthHandler.SendVerification)
				r.Put("/change-password", cfg.AuthHandler.ChangePassword)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequestLogger(cfg.Logger))

			// Self-service routes are registered before the {id} wildcard.
			r.Get("/me/profile", cfg.UserHandler.GetProfile)
			r.Patch("/me/profile", cfg.UserHandler.UpdateProfile)
			r.Delete("/me", cfg.UserHandler.DeleteAccount)

			r.Get("/", cfg.UserHandler.List)
			r.Post("/", cfg.UserHandler.Create)
			r.Get("/{id}", cfg.UserHandler.Get)
			r.Patch("/{id}", cfg.UserHandler.Update)
			r.Delete("/{id}", cfg.UserHandler.Delete)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Get("/", cfg.PostHandler.List)
				r.Get("/{id}", cfg.PostHandler.Get)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Use(middleware.RequestLogger(cfg.Logger))
				r.Post("/", cfg.PostHandler.Create)
				r.Patch("/{id}", cfg.PostHandler.Update)
				r.Delete("/{id}", cfg.PostHandler.Delete)
			})
		})
	})

	return r
}

// AccessTokenValidator bridges the JWT manager into the auth middleware,
// translating token verification failures into user-facing errors.
func AccessTokenValidator(m *auth.JWTManager) middleware.TokenValidator {
	return func(ctx context.Context, token string) (*middleware.Claims, error) {
		claims, err := m.Verify(token, auth.TokenKindAccess)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				return nil, apperrors.Unauthorized("Access token has expired")
			}
			return nil, apperrors.Unauthorized("Invalid access token")
		}
		return &middleware.Claims{UserID: claims.UserID, Email: claims.Email}, nil
	}
}
