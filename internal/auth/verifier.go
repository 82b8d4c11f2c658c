package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload issued by the upstream identity service.
type Claims struct {
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	RequiredDuo bool   `json:"requiredDuo,omitempty"`
	DuoVerified bool   `json:"duoVerified,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed tokens against a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier returns a Verifier for secret using the wall clock.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the verifier's clock. Intended for tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Verify checks signature and expiry of raw and decodes its principal.
// Failures wrap ErrTokenExpired or ErrInvalidToken.
func (v *Verifier) Verify(raw string) (*Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	// Second whole-second check independent of the library's leeway handling.
	if claims.ExpiresAt != nil && claims.ExpiresAt.Unix() < v.now().Unix() {
		return nil, ErrTokenExpired
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Principal{
		ID:                claims.Subject,
		Username:          claims.Username,
		Email:             claims.Email,
		Requires2FA:       claims.RequiredDuo,
		TwoFactorVerified: claims.DuoVerified,
	}, nil
}

// Issue signs an HS256 token for p valid for ttl. Real logins are issued by
// the identity service; this serves local tooling and tests.
func (v *Verifier) Issue(p Principal, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Username:    p.Username,
		Email:       p.Email,
		RequiredDuo: p.Requires2FA,
		DuoVerified: p.TwoFactorVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// LooksLikeJWT reports whether raw has the three-segment JWT shape and a
// decodable header, without checking the signature.
func LooksLikeJWT(raw string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	return err == nil
}
