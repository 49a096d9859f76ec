package auth

import (
	"log/slog"
	"net/http"

	"github.com/anempire/anempire-web/internal/shared"
)

// SessionCookieName is the single cookie carrying the signed session token.
// No other client-side storage holds authentication state.
const SessionCookieName = "admin_session"

// Guard protects admin routes. It verifies the cookie token and re-fetches
// the user row so disablement wins over a still-valid signature.
type Guard struct {
	logger  *slog.Logger
	service *Service
	seeder  *Seeder
}

// NewGuard constructs a Guard. The seeder may be nil.
func NewGuard(logger *slog.Logger, service *Service, seeder *Seeder) *Guard {
	return &Guard{logger: logger, service: service, seeder: seeder}
}

// RequireUser allows any active account through, redirecting anonymous or
// stale sessions to the login page.
func (g *Guard) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// First privileged-route access per process triggers the bootstrap
		// seed check.
		g.seeder.EnsureInitialAdmin(r.Context())

		user, err := g.currentUser(r)
		if err != nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAdmin allows only active admins through. Mount after RequireUser.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if !IsAdmin(user) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) currentUser(r *http.Request) (*User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, shared.ErrUnauthorized
	}
	return g.service.CurrentUser(r.Context(), cookie.Value)
}
