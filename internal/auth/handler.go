package auth

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// Handler exposes the cookie session endpoints under /api/auth.
type Handler struct {
	gate    *Gate
	cookies Cookies
	logger  *zap.SugaredLogger
}

func NewHandler(logger *zap.SugaredLogger, gate *Gate, cookies Cookies) *Handler {
	return &Handler{gate: gate, cookies: cookies, logger: logger}
}

// Routes returns a mux with the auth endpoints, each behind its gate.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /cookies", h.SetCookies)
	mux.Handle("GET /verify", h.gate.Require(http.HandlerFunc(h.Status)))
	mux.Handle("GET /status", h.gate.Require(http.HandlerFunc(h.Status)))
	mux.Handle("GET /profile", h.gate.Require(http.HandlerFunc(h.Profile)))
	mux.Handle("POST /logout", h.gate.RequireCookie(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /health", h.gate.OptionalAuth(http.HandlerFunc(h.Health)))
	// unknown paths and methods get the JSON error body too
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteError(w, http.StatusNotFound, "Route not found", "")
	})
	return mux
}

// SetCookiesRequest carries tokens obtained from the identity service.
type SetCookiesRequest struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type userView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	RequiredDuo bool   `json:"requiredDuo"`
	DuoVerified bool   `json:"duoVerified"`
}

func viewOf(p *Principal) userView {
	return userView{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		RequiredDuo: p.Requires2FA,
		DuoVerified: p.TwoFactorVerified,
	}
}

func (h *Handler) SetCookies(w http.ResponseWriter, r *http.Request) {
	var req SetCookiesRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil {
		h.logger.Debugw("invalid set-cookies payload", "err", err)
		err = apperr.Payload(err)
		status, code := apperr.Status(err)
		utilities.WriteError(w, status, apperr.Message(err, "invalid payload"), code)
		return
	}
	if req.AccessToken == "" {
		utilities.WriteError(w, http.StatusBadRequest, "Access token is required", CodeMissingAccessToken)
		return
	}
	if !LooksLikeJWT(req.AccessToken) {
		utilities.WriteError(w, http.StatusBadRequest, "Access token must be a valid JWT", CodeInvalidTokenFormat)
		return
	}
	if req.RefreshToken != "" && !LooksLikeJWT(req.RefreshToken) {
		utilities.WriteError(w, http.StatusBadRequest, "Refresh token must be a valid JWT if provided", CodeInvalidTokenFormat)
		return
	}

	h.cookies.SetAccessToken(w, req.AccessToken)
	if req.RefreshToken != "" {
		h.cookies.SetRefreshToken(w, req.RefreshToken)
	}
	h.logger.Infow("authentication cookies set", "refresh", req.RefreshToken != "")
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Authentication cookies set successfully",
		"cookiesSet": map[string]bool{
			"accessToken":  true,
			"refreshToken": req.RefreshToken != "",
		},
	})
}

// Status backs /verify and /status: the session must be cookie based.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	if !HasAuthCookies(r) {
		utilities.WriteJSON(w, http.StatusUnauthorized, map[string]any{
			"success":       false,
			"message":       "No authentication cookies found",
			"authenticated": false,
			"error":         CodeNoAuthCookies,
		})
		return
	}
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "Not authenticated", CodeNotAuthenticated)
		return
	}
	h.logger.Infow("auth status verified", "user", p.Username)
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Authentication verified successfully",
		"authenticated": true,
		"user":          viewOf(p),
		"tokenSource":   SourceFromContext(r.Context()),
	})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		utilities.WriteError(w, http.StatusUnauthorized, "User not authenticated", CodeNotAuthenticated)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "User profile retrieved successfully",
		"user":        viewOf(p),
		"tokenSource": SourceFromContext(r.Context()),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	username := "unknown"
	if p, ok := PrincipalFromContext(r.Context()); ok {
		username = p.Username
	}
	h.cookies.Clear(w)
	h.logger.Infow("user logged out", "user", username)
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Logged out successfully",
		"authenticated": false,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	p, authenticated := PrincipalFromContext(r.Context())
	current := map[string]any{
		"hasAuthCookies":  HasAuthCookies(r),
		"isAuthenticated": authenticated,
		"tokenSource":     nil,
		"user":            nil,
	}
	if authenticated {
		current["tokenSource"] = SourceFromContext(r.Context())
		current["user"] = p.Username
	}
	utilities.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Auth system health check",
		"status":  "healthy",
		"features": map[string]bool{
			"httpOnlyCookies":    true,
			"fallbackHeaderAuth": true,
			"duoSupport":         true,
		},
		"currentRequest": current,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// HasAuthCookies reports whether any auth cookie is present, verified or not.
func HasAuthCookies(r *http.Request) bool {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken, CookieAuthToken, CookieToken} {
		if ck, err := r.Cookie(name); err == nil && ck.Value != "" {
			return true
		}
	}
	return false
}
