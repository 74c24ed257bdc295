package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/app"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/config"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/usecase"
)

type emptyKB struct{}

func (emptyKB) Load(context.Context, string) (domain.Bundle, error) { return domain.Bundle{}, nil }

type noBroker struct{}

func (noBroker) CreateSession(context.Context, string, string) (string, error) { return "", nil }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		AppEnv:          "test",
		CORSAllowOrigins: "*",
		RateLimitPerMin: 100,
		TopicMap:        map[string]string{"PCB Designer": "pcb"},
	}
	eval := usecase.NewEvaluateService(emptyKB{}, nil, cfg.TopicMap, cfg.Engine)
	ctxSvc := usecase.NewContextService(emptyKB{}, cfg.TopicMap, cfg.Engine)
	srv := httpserver.NewServer(cfg, eval, ctxSvc, noBroker{}, nil, nil, nil)
	return app.BuildRouter(cfg, srv)
}

func TestRouter_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SecurityAndRequestIDHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_RequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestRouter_RoutesMounted(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/session", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "route exists; empty body fails validation")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/context/PCB%20Designer", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Readyz(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	// no checks wired at all still reports ready
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, app.ParseOrigins(" , ,"))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		app.ParseOrigins(" https://a.example , https://b.example "))
}
