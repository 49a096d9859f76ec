package shared

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "anempire_flash"

// FlashMessage represents a one-time notification carried across a redirect.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// SetFlash queues a flash message in a one-shot cookie.
func SetFlash(w http.ResponseWriter, secure bool, msg FlashMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60,
	})
}

// PopFlash reads and clears the flash cookie, returning nil when absent or
// unreadable.
func PopFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var msg FlashMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil
	}
	return &msg
}
