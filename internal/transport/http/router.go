package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rolegate/internal/application/verify"
	"github.com/rolegate/internal/config"
	"github.com/rolegate/internal/transport/http/handler"
	appmiddleware "github.com/rolegate/internal/transport/http/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Deps holds what the router needs from the rest of the process.
type Deps struct {
	Verify verify.Service
	Logger zerolog.Logger
}

// NewRouter builds the public HTTP surface: the OAuth2 callback and a
// health probe.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10. The callback is the only
	// unauthenticated endpoint exposed to the internet.
	callbackRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	cb := handler.NewCallbackHandler(deps.Verify, deps.Logger)

	r.Get("/healthz", handler.Health)
	r.With(callbackRL.Limit).Get("/callback", cb.Callback)

	return r
}
