package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"minitweet/internal/handler"
	"minitweet/internal/httputil"
	"minitweet/internal/metrics"
	authmw "minitweet/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler   *handler.AuthHandler
	UserHandler   *handler.UserHandler
	FollowHandler *handler.FollowHandler
	TweetHandler  *handler.TweetHandler

	Verifier authmw.TokenVerifier
	Users    authmw.UserLookup

	ClientURL      string
	RequestTimeout time.Duration
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(cors.Handler(corsOptions(cfg.ClientURL)))
	if cfg.RequestTimeout > 0 {
		r.Use(authmw.Timeout(cfg.RequestTimeout))
	}

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Public routes - no authentication required
	r.Post("/auth/register", cfg.AuthHandler.Register)
	r.Post("/auth/login", cfg.AuthHandler.Login)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Verifier, cfg.Users))

		r.Get("/auth/me", cfg.AuthHandler.Me)

		r.Route("/tweets", func(r chi.Router) {
			r.Post("/", cfg.TweetHandler.Create)
			r.Get("/", cfg.TweetHandler.Feed)
			r.Get("/user/{userId}", cfg.TweetHandler.UserTweets)
			r.Get("/{id}", cfg.TweetHandler.GetByID)
			r.Delete("/{id}", cfg.TweetHandler.Delete)
			r.Post("/{id}/like", cfg.TweetHandler.Like)
			r.Post("/{id}/unlike", cfg.TweetHandler.Unlike)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/search", cfg.UserHandler.Search)
			r.Put("/profile", cfg.UserHandler.UpdateProfile)
			r.Post("/profile/picture", cfg.UserHandler.UploadProfilePicture)

			r.Get("/{id}", cfg.UserHandler.GetProfile)
			r.Post("/{id}/follow", cfg.FollowHandler.Follow)
			r.Post("/{id}/unfollow", cfg.FollowHandler.Unfollow)
			r.Get("/{id}/followers", cfg.FollowHandler.GetFollowers)
			r.Get("/{id}/following", cfg.FollowHandler.GetFollowing)
		})
	})

	return r
}

func corsOptions(clientURL string) cors.Options {
	origins := []string{"*"}
	if clientURL != "" {
		origins = []string{clientURL}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: clientURL != "",
		MaxAge:           300,
	}
}
