package auth

import (
	"net/http"
	"time"
)

const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Cookies writes and clears the auth cookies. Production enables Secure and
// SameSite=Strict; otherwise cookies are SameSite=Lax over plain HTTP.
type Cookies struct {
	Production bool
}

func (c Cookies) base(name, value string) *http.Cookie {
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: http.SameSiteLaxMode,
	}
	if c.Production {
		ck.SameSite = http.SameSiteStrictMode
	}
	return ck
}

// SetAccessToken sets the access_token cookie for AccessTokenTTL.
func (c Cookies) SetAccessToken(w http.ResponseWriter, token string) {
	ck := c.base(CookieAccessToken, token)
	ck.MaxAge = int(AccessTokenTTL.Seconds())
	ck.Expires = time.Now().Add(AccessTokenTTL)
	http.SetCookie(w, ck)
}

// SetRefreshToken sets the refresh_token cookie for RefreshTokenTTL.
func (c Cookies) SetRefreshToken(w http.ResponseWriter, token string) {
	ck := c.base(CookieRefreshToken, token)
	ck.MaxAge = int(RefreshTokenTTL.Seconds())
	ck.Expires = time.Now().Add(RefreshTokenTTL)
	http.SetCookie(w, ck)
}

// Clear expires both cookies set by this service.
func (c Cookies) Clear(w http.ResponseWriter) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		ck := c.base(name, "")
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0)
		http.SetCookie(w, ck)
	}
}
