package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"carpics/internal/http/handlers"
	"carpics/internal/providers/gemini"
	"carpics/internal/styles"
)

type noopFactory struct{}

func (noopFactory) New(ctx context.Context, apiKey string) (gemini.Generator, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	catalog, err := styles.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	app := handlers.NewApp(zerolog.New(io.Discard), catalog, noopFactory{})
	return NewRouter(app, zerolog.New(io.Discard), []string{"http://localhost:5173"})
}

func TestRouterServesHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status mismatch: %d", rec.Code)
	}
}

func TestRouterAnswersCORSPreflight(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status mismatch: %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin mismatch: %q", got)
	}
}

func TestRouterRejectsWrongMethod(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generate", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status mismatch: %d", rec.Code)
	}
}
