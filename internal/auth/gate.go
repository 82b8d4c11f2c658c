package auth

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// Gate applies the access-control policies to HTTP handlers.
type Gate struct {
	extractor *Extractor
	verifier  *Verifier
	logger    *zap.SugaredLogger
}

func NewGate(logger *zap.SugaredLogger, extractor *Extractor, verifier *Verifier) *Gate {
	return &Gate{extractor: extractor, verifier: verifier, logger: logger}
}

// Authenticate extracts a credential from any source and verifies it.
func (g *Gate) Authenticate(r *http.Request) (*Principal, Source, error) {
	cred := g.extractor.Extract(r)
	if !cred.Found() {
		return nil, SourceNone, ErrMissingCredential
	}
	p, err := g.verifier.Verify(cred.Token)
	if err != nil {
		return nil, cred.Source, err
	}
	return p, cred.Source, nil
}

// AuthenticateCookie is Authenticate restricted to the cookie slots; an
// Authorization header alone yields ErrMissingCredential.
func (g *Gate) AuthenticateCookie(r *http.Request) (*Principal, error) {
	cred := g.extractor.FromCookies(r)
	if !cred.Found() {
		return nil, ErrMissingCredential
	}
	return g.verifier.Verify(cred.Token)
}

// Optional authenticates when it can. ok is false for anonymous requests and
// for any failure; failures are logged and never surfaced.
func (g *Gate) Optional(r *http.Request) (p *Principal, src Source, ok bool) {
	p, src, err := g.Authenticate(r)
	if errors.Is(err, ErrMissingCredential) {
		return nil, SourceNone, false
	}
	if err != nil {
		g.logger.Warnw("optional authentication failed, continuing anonymous",
			"path", r.URL.Path,
			"source", src,
			"err", err,
		)
		return nil, SourceNone, false
	}
	return p, src, true
}

// Require rejects requests without a valid credential from any source.
func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, src, err := g.Authenticate(r)
		if err != nil {
			g.reject(w, r, "required", err, false)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p, src)))
	})
}

// RequireCookie rejects requests without a valid credential in a cookie.
func (g *Gate) RequireCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.AuthenticateCookie(r)
		if err != nil {
			g.reject(w, r, "cookie", err, true)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p, SourceCookie)))
	})
}

// OptionalAuth attaches a principal when one verifies and always continues.
func (g *Gate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, src, ok := g.Optional(r); ok {
			r = r.WithContext(WithPrincipal(r.Context(), p, src))
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, gate string, err error, cookieOnly bool) {
	rej := rejectionFor(err, cookieOnly)
	metrics.AuthFailuresTotal.WithLabelValues(gate, rej.code).Inc()
	g.logger.Debugw("request rejected by auth gate",
		"gate", gate,
		"path", r.URL.Path,
		"code", rej.code,
		"err", err,
	)
	utilities.WriteError(w, rej.status, rej.message, rej.code)
}
