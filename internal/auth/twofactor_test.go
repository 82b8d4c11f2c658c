package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTwoFactor(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		want error
	}{
		{name: "no principal", want: ErrNotAuthenticated},
		{name: "not required", p: &Principal{ID: "u"}},
		{name: "required and verified", p: &Principal{ID: "u", Requires2FA: true, TwoFactorVerified: true}},
		{name: "verified without requirement", p: &Principal{ID: "u", TwoFactorVerified: true}},
		{name: "required not verified", p: &Principal{ID: "u", Requires2FA: true}, want: ErrTwoFactorRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckTwoFactor(tt.p)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequireTwoFactor(t *testing.T) {
	run := func(ctx context.Context) (*httptest.ResponseRecorder, bool) {
		called := false
		h := RequireTwoFactor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/aircrafts", nil).WithContext(ctx)
		h.ServeHTTP(rec, req)
		return rec, called
	}

	rec, called := run(context.Background())
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeNotAuthenticated, errorCode(t, rec))

	rec, called = run(WithPrincipal(context.Background(), &Principal{ID: "u", Requires2FA: true}, SourceCookie))
	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeDuoRequired, errorCode(t, rec))

	_, called = run(WithPrincipal(context.Background(), &Principal{ID: "u", Requires2FA: true, TwoFactorVerified: true}, SourceHeader))
	assert.True(t, called)
}
