package shared

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"
)

const (
	// CSRFCookieName holds the per-visitor random id the token is bound to.
	CSRFCookieName = "anempire_csrf"
	// CSRFFormField is the form field name carrying the CSRF token.
	CSRFFormField = "csrf_token"
)

// CSRFManager issues and verifies double-submit CSRF tokens. Sessions are
// stateless signed cookies, so the token is an HMAC over a random visitor id
// stored in its own cookie rather than over server-side session state.
type CSRFManager struct {
	secret []byte
	secure bool
}

// NewCSRFManager returns a CSRFManager using the provided secret key.
func NewCSRFManager(secret string, secure bool) *CSRFManager {
	return &CSRFManager{secret: []byte(secret), secure: secure}
}

// EnsureToken retrieves or creates the visitor id cookie and returns the
// matching form token.
func (m *CSRFManager) EnsureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	id := ""
	if cookie, err := r.Cookie(CSRFCookieName); err == nil {
		id = cookie.Value
	}
	if id == "" {
		buf := make([]byte, 16)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		id = base64.RawURLEncoding.EncodeToString(buf)
		http.SetCookie(w, &http.Cookie{
			Name:     CSRFCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(12 * time.Hour),
		})
	}
	return m.tokenFor(id), nil
}

// VerifyRequest compares the submitted token against the visitor id cookie.
func (m *CSRFManager) VerifyRequest(r *http.Request, token string) error {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return ErrCSRFTokenMissing
	}
	if token == "" {
		return ErrCSRFTokenMissing
	}
	expected := m.tokenFor(cookie.Value)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

func (m *CSRFManager) tokenFor(id string) string {
	mac := hmac.New(sha256.New, m.secret)
	_, _ = mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
