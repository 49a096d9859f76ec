package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/view"
)

// ResetMailer delivers password-reset links out-of-band. The auth subsystem
// only produces the token and redemption URL; delivery is the mailer's
// problem.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, email, link string, newAccount bool) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	seeder    *Seeder
	templates *view.Engine
	csrf      *shared.CSRFManager
	mailer    ResetMailer
	validator *validator.Validate
	baseURL   string
	secure    bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, seeder *Seeder, templates *view.Engine, csrf *shared.CSRFManager, mailer ResetMailer, baseURL string, secure bool) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		seeder:    seeder,
		templates: templates,
		csrf:      csrf,
		mailer:    mailer,
		validator: validator.New(),
		baseURL:   baseURL,
		secure:    secure,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/forgot-password", h.showForgotPassword)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Get("/reset-password", h.showResetPassword)
	r.Post("/reset-password", h.handleResetPassword)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	// Login is the first admin page a fresh deployment sees.
	h.seeder.EnsureInitialAdmin(r.Context())
	h.render(w, r, "pages/admin/login.html", "Sign in", loginPageData{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		errs["general"] = "Email and password are required"
	}

	if len(errs) == 0 {
		_, token, err := h.service.Login(r.Context(), form.Email, form.Password)
		switch {
		case err == nil:
			h.setSessionCookie(w, token)
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		case errors.Is(err, shared.ErrAccessRestricted):
			errs["general"] = shared.UserSafeMessage(err)
		case errors.Is(err, shared.ErrInvalidCredentials):
			errs["general"] = shared.UserSafeMessage(err)
		default:
			h.logger.Error("login", slog.Any("error", err))
			errs["general"] = "Something went wrong"
		}
	}

	form.Password = ""
	h.render(w, r, "pages/admin/login.html", "Sign in", loginPageData{Form: form, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

type forgotForm struct {
	Email string `validate:"required,email"`
}

func (h *Handler) showForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin/forgot_password.html", "Forgot password", map[string]any{}, http.StatusOK)
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := forgotForm{Email: r.PostFormValue("email")}
	if err := h.validator.Struct(form); err != nil {
		h.render(w, r, "pages/admin/forgot_password.html", "Forgot password",
			map[string]any{"Errors": map[string]string{"general": "A valid email is required"}}, http.StatusBadRequest)
		return
	}

	token, err := h.service.RequestPasswordReset(r.Context(), form.Email)
	if err != nil {
		// Infrastructure failure. Logged, but the response is still the
		// generic success: the caller must not learn whether the email
		// matched.
		h.logger.Error("request password reset", slog.Any("error", err))
	}
	if token != "" {
		link := h.resetLink(token)
		if err := h.mailer.SendPasswordReset(r.Context(), form.Email, link, false); err != nil {
			h.logger.Error("send reset email", slog.Any("error", err))
		}
	}

	shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "success", Message: "If that email exists, a reset link has been sent"})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

type resetPageData struct {
	Token  string
	Errors map[string]string
}

func (h *Handler) showResetPassword(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin/reset_password.html", "Reset password",
		resetPageData{Token: r.URL.Query().Get("token")}, http.StatusOK)
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("token")
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	errs := make(map[string]string)
	if password != confirm {
		errs["general"] = "Passwords do not match"
	}
	if len(errs) == 0 {
		if err := h.service.ResetPassword(r.Context(), token, password); err != nil {
			switch {
			case errors.Is(err, shared.ErrWeakPassword), errors.Is(err, shared.ErrInvalidOrExpiredToken):
				errs["general"] = shared.UserSafeMessage(err)
			default:
				h.logger.Error("reset password", slog.Any("error", err))
				errs["general"] = "Something went wrong"
			}
		}
	}

	if len(errs) > 0 {
		h.render(w, r, "pages/admin/reset_password.html", "Reset password",
			resetPageData{Token: token, Errors: errs}, http.StatusBadRequest)
		return
	}

	shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "success", Message: "Password updated, you can sign in now"})
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *Handler) resetLink(token string) string {
	return h.baseURL + "/admin/reset-password?token=" + url.QueryEscape(token)
}

// ResetLinkFor builds the redemption URL for a minted token. Used by the
// invite flow in the users module.
func (h *Handler) ResetLinkFor(token string) string {
	return h.resetLink(token)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.service.tokens.TTL() / time.Second),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	csrfToken, _ := h.csrf.EnsureToken(w, r)
	flash := shared.PopFlash(w, r)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}
