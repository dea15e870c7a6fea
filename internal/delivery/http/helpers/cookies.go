package helpers

import (
	"net/http"
	"time"

	"ideahub/internal/domain"
)

// Auth cookie names. Tokens travel only in HTTP-only cookies, never in the
// response body.
const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"
)

// Cookie lifetimes. Intentionally longer than the token TTLs: an expired
// token inside a live cookie yields a clean 401 instead of a silently
// vanished session.
const (
	accessCookieMaxAge  = 30 * time.Minute
	refreshCookieMaxAge = 30 * 24 * time.Hour
)

// SetAuthCookies installs both token cookies on the response. secure should
// be true in production so the cookies only travel over TLS.
func SetAuthCookies(w http.ResponseWriter, pair *domain.TokenPair, secure bool) {
	http.SetCookie(w, authCookie(AccessCookie, pair.Access, int(accessCookieMaxAge.Seconds()), secure))
	http.SetCookie(w, authCookie(RefreshCookie, pair.Refresh, int(refreshCookieMaxAge.Seconds()), secure))
}

// ClearAuthCookies expires both token cookies on the client.
func ClearAuthCookies(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, authCookie(AccessCookie, "", -1, secure))
	http.SetCookie(w, authCookie(RefreshCookie, "", -1, secure))
}

func authCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
