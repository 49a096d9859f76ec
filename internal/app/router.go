package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/blog"
	"github.com/anempire/anempire-web/internal/mailer"
	"github.com/anempire/anempire-web/internal/platform/httpx"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/submissions"
	"github.com/anempire/anempire-web/internal/users"
	"github.com/anempire/anempire-web/internal/view"
	"github.com/anempire/anempire-web/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Templates          *view.Engine
	CSRFManager        *shared.CSRFManager
	Guard              *auth.Guard
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	SubmissionsHandler *submissions.Handler
	BlogHandler        *blog.Handler
	MailerHandler      *mailer.Handler
}

// NewRouter constructs the chi.Router for the site.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:      params.Logger,
		Config:      params.Config,
		CSRFManager: params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		csrfToken, _ := params.CSRFManager.EnsureToken(w, r)
		data := view.TemplateData{
			Title:       "anEmpire",
			CSRFToken:   csrfToken,
			CurrentPath: r.URL.Path,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	params.SubmissionsHandler.MountPublicRoutes(r)
	params.BlogHandler.MountPublicRoutes(r)

	r.Route("/admin", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.RequireUser)
			r.Get("/", params.SubmissionsHandler.Dashboard)
			r.Route("/submissions", params.SubmissionsHandler.MountAdminRoutes)
			r.Route("/blog", params.BlogHandler.MountAdminRoutes)

			r.Group(func(r chi.Router) {
				r.Use(params.Guard.RequireAdmin)
				r.Route("/users", params.UsersHandler.MountRoutes)
				r.Route("/emails", params.MailerHandler.MountRoutes)
			})
		})
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers so assets
// are cached for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
