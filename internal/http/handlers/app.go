package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"carpics/internal/providers/gemini"
	"carpics/internal/styles"
)

// App bundles the dependencies the HTTP handlers need.
type App struct {
	Logger     zerolog.Logger
	Catalog    *styles.Catalog
	Generators gemini.Factory
}

// NewApp constructs the handler container.
func NewApp(logger zerolog.Logger, catalog *styles.Catalog, generators gemini.Factory) *App {
	return &App{Logger: logger, Catalog: catalog, Generators: generators}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// detail writes the error body shape the client expects: {"detail": "..."}.
func (a *App) detail(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"detail": msg})
}
