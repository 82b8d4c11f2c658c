package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testHandler(production bool) http.Handler {
	return NewHandler(zap.NewNop().Sugar(), testGate(), Cookies{Production: production}).Routes()
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSetCookies(t *testing.T) {
	tok := issue(t, Principal{ID: "u-1"}, time.Hour)

	t.Run("development", func(t *testing.T) {
		body := `{"accessToken":"` + tok + `","refreshToken":"` + tok + `"}`
		rec := httptest.NewRecorder()
		testHandler(false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cookies", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		access := cookieByName(rec, CookieAccessToken)
		require.NotNil(t, access)
		assert.Equal(t, tok, access.Value)
		assert.True(t, access.HttpOnly)
		assert.False(t, access.Secure)
		assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
		assert.Equal(t, "/", access.Path)
		assert.Equal(t, int(AccessTokenTTL.Seconds()), access.MaxAge)

		refresh := cookieByName(rec, CookieRefreshToken)
		require.NotNil(t, refresh)
		assert.Equal(t, int(RefreshTokenTTL.Seconds()), refresh.MaxAge)
	})

	t.Run("production", func(t *testing.T) {
		body := `{"accessToken":"` + tok + `"}`
		rec := httptest.NewRecorder()
		testHandler(true).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cookies", strings.NewReader(body)))

		require.Equal(t, http.StatusOK, rec.Code)
		access := cookieByName(rec, CookieAccessToken)
		require.NotNil(t, access)
		assert.True(t, access.Secure)
		assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
		assert.Nil(t, cookieByName(rec, CookieRefreshToken))
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct{ body, code string }{
			{`{}`, CodeMissingAccessToken},
			{`{"accessToken":"plain"}`, CodeInvalidTokenFormat},
			{`{"accessToken":"` + tok + `","refreshToken":"x"}`, CodeInvalidTokenFormat},
		}
		for _, c := range cases {
			body, code := c.body, c.code
			rec := httptest.NewRecorder()
			testHandler(false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cookies", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, code, errorCode(t, rec), body)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"accessToken":"` + strings.Repeat("a", 200<<10) + `"}`
		rec := httptest.NewRecorder()
		testHandler(false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cookies", strings.NewReader(body)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "PAYLOAD_TOO_LARGE", errorCode(t, rec))
		assert.Nil(t, cookieByName(rec, CookieAccessToken))
	})
}

func TestStatus_RequiresCookieSession(t *testing.T) {
	tok := issue(t, Principal{ID: "u-1", Username: "pilot"}, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/verify", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	testHandler(false).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNoAuthCookies, errorCode(t, rec))

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.AddCookie(&http.Cookie{Name: CookieAccessToken, Value: tok})
	rec = httptest.NewRecorder()
	testHandler(false).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Authenticated bool     `json:"authenticated"`
		User          userView `json:"user"`
		TokenSource   string   `json:"tokenSource"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	assert.Equal(t, "pilot", body.User.Username)
	assert.Equal(t, "cookie", body.TokenSource)
}

func TestProfile_HeaderAllowed(t *testing.T) {
	tok := issue(t, Principal{ID: "u-9", Email: "m@example.com"}, time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	testHandler(false).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"tokenSource":"header"`)
	assert.Contains(t, rec.Body.String(), `"email":"m@example.com"`)
}

func TestLogout_ClearsCookies(t *testing.T) {
	tok := issue(t, Principal{ID: "u-1"}, time.Hour)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: CookieAccessToken, Value: tok})
	rec := httptest.NewRecorder()
	testHandler(false).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		c := cookieByName(rec, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestHealth_Anonymous(t *testing.T) {
	rec := httptest.NewRecorder()
	testHandler(false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status         string         `json:"status"`
		CurrentRequest map[string]any `json:"currentRequest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, false, body.CurrentRequest["isAuthenticated"])
	assert.Nil(t, body.CurrentRequest["user"])
}

func TestRoutes_UnknownPathOrMethodIsJSON(t *testing.T) {
	h := testHandler(false)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/nope"},
		{http.MethodDelete, "/status"},
		{http.MethodGet, "/logout"},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Route not found", body["message"])
	}
}
