package auth

import (
	"errors"
	"net/http"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrNotAuthenticated  = errors.New("not authenticated")
	ErrTwoFactorRequired = errors.New("two-factor verification required")
)

// Error codes sent in the "error" field of rejection bodies.
const (
	CodeMissingToken        = "MISSING_TOKEN"
	CodeCookieAuthRequired  = "COOKIE_AUTH_REQUIRED"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeNotAuthenticated    = "NOT_AUTHENTICATED"
	CodeDuoRequired         = "DUO_VERIFICATION_REQUIRED"
	CodeNoAuthCookies       = "NO_AUTH_COOKIES"
	CodeInvalidTokenFormat  = "INVALID_TOKEN_FORMAT"
	CodeMissingAccessToken  = "MISSING_ACCESS_TOKEN"
	CodeAuthenticationError = "AUTHENTICATION_ERROR"
)

// rejection is the HTTP shape of an auth failure.
type rejection struct {
	status  int
	message string
	code    string
}

// rejectionFor maps a gate error onto its response. cookieOnly switches the
// missing-credential message to the cookie wording.
func rejectionFor(err error, cookieOnly bool) rejection {
	switch {
	case errors.Is(err, ErrMissingCredential) && cookieOnly:
		return rejection{http.StatusUnauthorized, "Authentication cookie required", CodeCookieAuthRequired}
	case errors.Is(err, ErrMissingCredential):
		return rejection{http.StatusUnauthorized, "Access token required", CodeMissingToken}
	case errors.Is(err, ErrTokenExpired):
		return rejection{http.StatusUnauthorized, "Token expired", CodeTokenExpired}
	case errors.Is(err, ErrInvalidToken):
		return rejection{http.StatusUnauthorized, "Invalid token", CodeInvalidToken}
	case errors.Is(err, ErrNotAuthenticated):
		return rejection{http.StatusUnauthorized, "Not authenticated", CodeNotAuthenticated}
	case errors.Is(err, ErrTwoFactorRequired):
		return rejection{http.StatusForbidden, "Duo verification required", CodeDuoRequired}
	default:
		return rejection{http.StatusInternalServerError, "Authentication error", CodeAuthenticationError}
	}
}
