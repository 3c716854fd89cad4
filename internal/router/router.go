package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appLogger "github.com/FACorreiaa/go-trip-planner-chat/app/logger"
	appMiddleware "github.com/FACorreiaa/go-trip-planner-chat/app/middleware"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/chat"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/locale"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/api/usage"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ChatHandler            *chat.HandlerImpl
	UsageHandler           *usage.HandlerImpl
	Translator             *locale.Translator
	AuthenticateMiddleware func(http.Handler) http.Handler
	RateLimiter            *appMiddleware.IPRateLimiter
	AllowedOrigins         []string
	Logger                 *slog.Logger
}

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:3000"}

// SetupRouter builds the HTTP router. No timeout or compression middleware is
// installed because chat replies are long-lived event streams.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "Content-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Use(cfg.Translator.Middleware)
		r.Use(cfg.AuthenticateMiddleware)

		r.Get("/chat/usage", cfg.UsageHandler.GetUsage)
		r.Route("/projects/{projectID}/chat", func(r chi.Router) {
			r.Post("/messages", cfg.ChatHandler.SendMessage)
			r.Get("/messages", cfg.ChatHandler.GetHistory)
		})
	})

	return r
}
