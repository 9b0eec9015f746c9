package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/localtourx-api/internal/application/auth"
	"github.com/localtourx-api/internal/application/media"
	"github.com/localtourx-api/internal/application/post"
	"github.com/localtourx-api/internal/application/user"
	"github.com/localtourx-api/internal/config"
	"github.com/localtourx-api/internal/domain"
	"github.com/localtourx-api/internal/transport/http/handler"
	appmiddleware "github.com/localtourx-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     UserRepository
	PostRepo     PostRepository
	PendingStore PendingStore
	ObjectStore  ObjectStore
	Mailer       Mailer
	SMSSender    SMSSender
	JWTProvider  TokenProvider
	TokenTTL     time.Duration
	Now          func() time.Time
}

// NewRouter builds and returns the application router. ctx bounds the
// background work the router starts.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)
	authMw := appmiddleware.Auth(deps.JWTProvider, deps.UserRepo, cfg.CookieName)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:     deps.UserRepo,
		PendingStore: deps.PendingStore,
		Mailer:       deps.Mailer,
		SMSSender:    deps.SMSSender,
		JWTProvider:  deps.JWTProvider,
		AppName:      cfg.AppName,
		Now:          deps.Now,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		Mailer:      deps.Mailer,
		JWTProvider: deps.JWTProvider,
		AppName:     cfg.AppName,
		Now:         deps.Now,
	})
	mediaSvc := media.NewService(deps.ObjectStore)
	postSvc := post.NewService(post.ServiceDeps{
		PostRepo: deps.PostRepo,
		UserRepo: deps.UserRepo,
		Media:    mediaSvc,
		PageSize: cfg.PostsPageSize,
		Now:      deps.Now,
	})

	healthH := handler.NewHealthHandler()
	userH := handler.NewUserHandler(authSvc, userSvc, handler.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.IsProduction(),
		TTL:    deps.TokenTTL,
	}, cfg.AppBaseURL)
	postH := handler.NewPostHandler(postSvc, mediaSvc)

	r.Route("/api/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/users/register", userH.Register)
		r.With(sensitiveRL.Limit).Post("/users/verify-otp", userH.VerifyOTP)
		r.With(sensitiveRL.Limit).Post("/users/resend-otp", userH.ResendOTP)
		r.With(sensitiveRL.Limit).Post("/users/login", userH.Login)
		r.With(sensitiveRL.Limit).Post("/users/password/forgot", userH.ForgotPassword)
		r.Put("/users/password/reset/{token}", userH.ResetPassword)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/users/logout", userH.Logout)
			r.Put("/users/password/update", userH.UpdatePassword)
			r.Get("/users/me", userH.Me)
			r.Put("/users/me/update", userH.UpdateProfile)

			r.Post("/posts/create", postH.Create)
			r.Get("/posts/all", postH.List)
			r.Get("/posts/me", postH.ListMine)
			r.Get("/posts/{id}", postH.Get)
			r.Put("/posts/like/{id}", postH.Like)
			r.Put("/posts/unlike/{id}", postH.Unlike)
			r.Put("/posts/comment/{id}", postH.Comment)
			r.Put("/posts/update/{id}", postH.Update)
			r.Delete("/posts/delete/{id}", postH.Delete)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users/admin/all", userH.List)
			})
		})
	})

	return r
}
