package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Cookie names checked for an access token, highest priority first:
// the upstream identity service's cookie, this API's own cookie, and a
// generic fallback.
const (
	CookieAuthToken    = "auth_token"
	CookieAccessToken  = "access_token"
	CookieToken        = "token"
	CookieRefreshToken = "refresh_token"
)

// DefaultCookieNames is the lookup order used by NewExtractor.
var DefaultCookieNames = []string{CookieAuthToken, CookieAccessToken, CookieToken}

// Credential is a raw bearer token and where it came from. A zero Token means
// nothing was found and Source is SourceNone.
type Credential struct {
	Token  string
	Source Source
}

// Found reports whether a token was extracted.
func (c Credential) Found() bool { return c.Token != "" }

// Extractor pulls bearer credentials out of requests.
type Extractor struct {
	cookieNames []string
	logger      *zap.SugaredLogger
}

// NewExtractor builds an Extractor probing names in order; nil names means
// DefaultCookieNames.
func NewExtractor(logger *zap.SugaredLogger, names []string) *Extractor {
	if len(names) == 0 {
		names = DefaultCookieNames
	}
	return &Extractor{cookieNames: names, logger: logger}
}

// Extract returns the first non-empty cookie credential, falling back to the
// Authorization header only when no cookie matched.
func (e *Extractor) Extract(r *http.Request) Credential {
	if c := e.FromCookies(r); c.Found() {
		return c
	}
	if c := e.FromHeader(r); c.Found() {
		return c
	}
	e.logger.Debugw("no credential in cookies or authorization header",
		"expected_cookies", e.cookieNames,
		"path", r.URL.Path,
	)
	return Credential{Source: SourceNone}
}

// FromCookies checks only the cookie slots.
func (e *Extractor) FromCookies(r *http.Request) Credential {
	for _, name := range e.cookieNames {
		ck, err := r.Cookie(name)
		if err != nil || ck.Value == "" {
			continue
		}
		e.logger.Debugw("credential extracted from cookie", "cookie", name, "length", len(ck.Value))
		return Credential{Token: ck.Value, Source: SourceCookie}
	}
	return Credential{Source: SourceNone}
}

// FromHeader reads an "Authorization: Bearer <token>" header. The scheme is
// matched case-insensitively.
func (e *Extractor) FromHeader(r *http.Request) Credential {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return Credential{Source: SourceNone}
	}
	tok := strings.TrimSpace(h[len(prefix):])
	if tok == "" {
		return Credential{Source: SourceNone}
	}
	e.logger.Debugw("credential extracted from authorization header", "length", len(tok))
	return Credential{Token: tok, Source: SourceHeader}
}
