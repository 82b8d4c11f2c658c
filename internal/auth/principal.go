// Package auth extracts and verifies bearer credentials, gates HTTP routes on
// them, and manages the HttpOnly auth cookies.
package auth

import "context"

// Principal is the identity decoded from a verified token. It lives for one
// request and is never persisted.
type Principal struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Requires2FA       bool   `json:"requiredDuo"`
	TwoFactorVerified bool   `json:"duoVerified"`
}

// Source records where a bearer credential was found.
type Source string

const (
	SourceNone   Source = "none"
	SourceCookie Source = "cookie"
	SourceHeader Source = "header"
)

type principalKey struct{}

type authInfo struct {
	principal *Principal
	source    Source
}

// WithPrincipal returns a context carrying p and the credential source.
func WithPrincipal(ctx context.Context, p *Principal, src Source) context.Context {
	return context.WithValue(ctx, principalKey{}, authInfo{principal: p, source: src})
}

// PrincipalFromContext returns the principal attached by a gate, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	info, ok := ctx.Value(principalKey{}).(authInfo)
	if !ok || info.principal == nil {
		return nil, false
	}
	return info.principal, true
}

// SourceFromContext returns the credential source, SourceNone for anonymous
// requests.
func SourceFromContext(ctx context.Context) Source {
	info, ok := ctx.Value(principalKey{}).(authInfo)
	if !ok {
		return SourceNone
	}
	return info.source
}
