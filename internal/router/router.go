package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/inkpress/go-blog-api/config"
	"github.com/inkpress/go-blog-api/internal/api/auth"
	"github.com/inkpress/go-blog-api/internal/api/post"
	"github.com/inkpress/go-blog-api/internal/api/user"
	"github.com/inkpress/go-blog-api/internal/types"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	Logger      *slog.Logger
	JWT         config.JWTConfig
	RateLimit   config.RateLimitConfig
	UserStore   auth.UserStore
	AuthHandler *auth.AuthHandler
	UserHandler user.Handler
	PostHandler post.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (requestID, logger, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	authenticate := auth.Authenticate(cfg.Logger, cfg.JWT, cfg.UserStore)
	optionalAuth := auth.OptionalAuthenticate(cfg.Logger, cfg.JWT, cfg.UserStore)

	// Each limiter owns its counters, so the strict auth budget does not eat
	// into the general API budget.
	apiLimiter := auth.RateLimit(cfg.Logger, auth.NewMemoryCounterStore(),
		cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	authLimiter := auth.RateLimit(cfg.Logger, auth.NewMemoryCounterStore(),
		cfg.RateLimit.AuthMaxRequests, cfg.RateLimit.AuthWindow)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiLimiter)

		// --- Public auth routes, behind the stricter credential limiter ---
		r.Group(func(r chi.Router) {
			r.Use(authLimiter)
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/refresh", cfg.AuthHandler.RefreshSession)
		})

		// --- Public post reads; an attached bearer token is honored but
		// never required ---
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/posts", cfg.PostHandler.ListPosts)
			r.Get("/posts/{postID}", cfg.PostHandler.GetPost)
		})

		// --- Protected routes ---
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/auth/logout", cfg.AuthHandler.Logout)
			r.Get("/auth/me", cfg.AuthHandler.Me)

			r.Post("/posts", cfg.PostHandler.CreatePost)
			r.Put("/posts/{postID}", cfg.PostHandler.UpdatePost)
			r.Delete("/posts/{postID}", cfg.PostHandler.DeletePost)

			r.With(auth.Authorize(cfg.Logger, types.RoleAdmin)).
				Get("/users", cfg.UserHandler.ListUsers)
			r.Get("/users/{userID}", cfg.UserHandler.GetUser)
			r.Put("/users/{userID}", cfg.UserHandler.UpdateUser)
			r.Delete("/users/{userID}", cfg.UserHandler.DeleteUser)
		})
	})

	return r
}
