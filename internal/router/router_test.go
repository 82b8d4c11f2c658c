package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/auth"
	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/config"
)

const testSecret = "router-test-secret"

func newTestRouter(t *testing.T, env string) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Defaults()
	cfg.Env = env
	cfg.Auth.JWTSecret = testSecret
	return RegisterRoutes(zap.NewNop().Sugar(), &cfg, sqlx.NewDb(db, "postgres")), mock
}

func bearer(t *testing.T, p auth.Principal) string {
	t.Helper()
	tok, err := auth.NewVerifier(testSecret).Issue(p, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSimpleHealth_Middleware(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/health/simple", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestRequestID_Propagated(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	r := httptest.NewRequest(http.MethodGet, "/api", nil)
	r.Header.Set(HeaderRequestID, "req-123")
	w := serve(h, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}

func TestReads_RequireAuth(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/aircraft", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), auth.CodeMissingToken)
}

func TestReads_WithToken(t *testing.T) {
	h, mock := newTestRouter(t, config.EnvDevelopment)
	mock.ExpectQuery(`FROM aircrafts ORDER BY registration`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "registration", "aircraft_type", "engine_type", "engine_qty", "active", "created_at", "updated_at"}))

	r := httptest.NewRequest(http.MethodGet, "/api/aircraft", nil)
	r.Header.Set("Authorization", bearer(t, auth.Principal{ID: "u1", Username: "pilot"}))
	w := serve(h, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWrites_RequireTwoFactor(t *testing.T) {
	h, mock := newTestRouter(t, config.EnvDevelopment)
	r := httptest.NewRequest(http.MethodPost, "/api/aircraft", strings.NewReader(`{}`))
	r.Header.Set("Authorization", bearer(t, auth.Principal{ID: "u1", Username: "pilot", Requires2FA: true}))
	w := serve(h, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), auth.CodeDuoRequired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedPathID(t *testing.T) {
	h, mock := newTestRouter(t, config.EnvDevelopment)
	r := httptest.NewRequest(http.MethodGet, "/api/engine/not-a-uuid", nil)
	r.Header.Set("Authorization", bearer(t, auth.Principal{ID: "u1", Username: "pilot"}))
	w := serve(h, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthRoutesMounted(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Auth system health check")
}

func TestDebugCookies(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	r := httptest.NewRequest(http.MethodGet, "/api/debug/cookies", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "abc"})
	w := serve(h, r)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"abc"`)

	h, _ = newTestRouter(t, config.EnvProduction)
	w = serve(h, httptest.NewRequest(http.MethodGet, "/api/debug/cookies", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	r := httptest.NewRequest(http.MethodOptions, "/api/aircraft", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := serve(h, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodOptions, "/api/aircraft", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = serve(h, r)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Route not found")
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	serve(h, httptest.NewRequest(http.MethodGet, "/api/health/simple", nil))
	w := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `engine_oil_requests_total{method="GET",route="GET /api/health/simple",status="2xx"}`)
}

func TestUnknownAuthRoute(t *testing.T) {
	h, _ := newTestRouter(t, config.EnvDevelopment)
	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/auth/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, w.Body.String())
}
