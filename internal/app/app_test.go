package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/inventa/inventory-api/internal/domain"
	"github.com/inventa/inventory-api/internal/gql"
	"github.com/inventa/inventory-api/internal/pkg/httputil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

type anonymousResolver struct{}

func (anonymousResolver) ResolveUser(context.Context, string) (*domain.User, error) {
	return nil, errors.New("no users")
}

func newTestRouter(t *testing.T, db Pinger, rateLimit httputil.RateLimitConfig) http.Handler {
	t.Helper()

	schema, err := gql.NewSchema(gql.NewResolver(nil, nil))
	require.NoError(t, err)

	return newRouter(routerDeps{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		db:             db,
		schema:         gql.NewHandler(schema),
		users:          anonymousResolver{},
		allowedOrigins: []string{"http://localhost:5173"},
		rateLimit:      rateLimit,
	})
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "UP"}, body)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("database reachable", func(t *testing.T) {
		router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database down", func(t *testing.T) {
		router := newTestRouter(t, stubPinger{err: errors.New("connection refused")}, httputil.RateLimitConfig{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestVersion(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "commit")
}

func TestOpenAPIDocument(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/openapi.yaml", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/graphql:")
}

func TestGraphQLHello(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{})

	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"hello":"Hello World"}}`, rec.Body.String())
}

func TestGraphQLRateLimited(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query":"{ hello }"}`))
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
}

func TestHealthNotRateLimited(t *testing.T) {
	router := newTestRouter(t, stubPinger{}, httputil.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
