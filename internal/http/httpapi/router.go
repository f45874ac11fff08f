package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"carpics/internal/http/handlers"
	appmw "carpics/internal/middleware"
)

// NewRouter assembles the API routes with the shared middleware chain.
func NewRouter(app *handlers.App, logger zerolog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(appmw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS(allowedOrigins))
	r.Use(appmw.Logger(logger))

	r.Post("/generate", app.Generate)
	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/styles", app.ListStyles)

	return r
}
