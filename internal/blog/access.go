package blog

import (
	"net/http"
	"time"
)

// AccessCookieName marks a visitor who engaged with the articles gate. It is
// a marketing device, not authentication: the cookie carries no identity and
// grants nothing beyond seeing the article list.
const AccessCookieName = "anempire_engaged"

// accessTTL keeps the gate open for a month per visit.
const accessTTL = 30 * 24 * time.Hour

// GrantAccess sets the engagement cookie.
func GrantAccess(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    "1",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(accessTTL / time.Second),
	})
}

// HasAccess reports whether the visitor already passed the gate.
func HasAccess(r *http.Request) bool {
	c, err := r.Cookie(AccessCookieName)
	return err == nil && c.Value != ""
}
