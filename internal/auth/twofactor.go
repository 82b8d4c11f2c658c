package auth

import (
	"net/http"

	"github.com/ovaphlow/pitchfork/service-engine-oil/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-engine-oil/pkg/utilities"
)

// CheckTwoFactor returns ErrNotAuthenticated for a nil principal and
// ErrTwoFactorRequired when the principal still owes a Duo verification.
func CheckTwoFactor(p *Principal) error {
	if p == nil {
		return ErrNotAuthenticated
	}
	if p.Requires2FA && !p.TwoFactorVerified {
		return ErrTwoFactorRequired
	}
	return nil
}

// RequireTwoFactor must sit behind one of the mandatory gates.
func RequireTwoFactor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		if err := CheckTwoFactor(p); err != nil {
			rej := rejectionFor(err, false)
			metrics.AuthFailuresTotal.WithLabelValues("two_factor", rej.code).Inc()
			utilities.WriteError(w, rej.status, rej.message, rej.code)
			return
		}
		next.ServeHTTP(w, r)
	})
}
