// Package users provides the admin screens for managing backend accounts.
package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/view"
)

// Handler manages user management endpoints. All routes are admin-only; the
// guard middleware is applied by the router.
type Handler struct {
	logger    *slog.Logger
	service   *auth.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	mailer    auth.ResetMailer
	resetLink func(token string) string
	validator *validator.Validate
	secure    bool
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *auth.Service, templates *view.Engine, csrf *shared.CSRFManager, mailer auth.ResetMailer, resetLink func(string) string, secure bool) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		mailer:    mailer,
		resetLink: resetLink,
		validator: validator.New(),
		secure:    secure,
	}
}

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Post("/{id}/role", h.updateRole)
	r.Post("/{id}/status", h.toggleStatus)
}

type createUserForm struct {
	Email string `validate:"required,email"`
	Name  string
	Role  string `validate:"required,oneof=admin system_user"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, map[string]any{"Users": users}, http.StatusOK)
}

// createUser invites a new account: it gets a random temporary password and a
// 7-day set-password link by email.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := createUserForm{
		Email: r.PostFormValue("email"),
		Name:  r.PostFormValue("name"),
		Role:  r.PostFormValue("role"),
	}
	if err := h.validator.Struct(form); err != nil {
		h.redirectWithFlash(w, r, "error", "A valid email and role are required")
		return
	}

	_, token, err := h.service.InviteUser(r.Context(), form.Email, form.Name, auth.Role(form.Role))
	if err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			h.redirectWithFlash(w, r, "error", shared.UserSafeMessage(err))
			return
		}
		h.logger.Error("invite user", slog.Any("error", err))
		h.redirectWithFlash(w, r, "error", "Something went wrong")
		return
	}

	if err := h.mailer.SendPasswordReset(r.Context(), form.Email, h.resetLink(token), true); err != nil {
		h.logger.Error("send set-password email", slog.Any("error", err))
	}
	h.redirectWithFlash(w, r, "success", "User created, set-password email sent")
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	role := auth.Role(r.PostFormValue("role"))
	if role != auth.RoleAdmin && role != auth.RoleSystemUser {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	actor := auth.UserFromContext(r.Context())
	if err := h.service.SetRole(r.Context(), actor.ID, targetID, role); err != nil {
		h.flashMutationError(w, r, err, "update role")
		return
	}
	h.redirectWithFlash(w, r, "success", "Role updated")
}

func (h *Handler) toggleStatus(w http.ResponseWriter, r *http.Request) {
	targetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	actor := auth.UserFromContext(r.Context())
	if _, err := h.service.ToggleStatus(r.Context(), actor.ID, targetID); err != nil {
		h.flashMutationError(w, r, err, "toggle status")
		return
	}
	h.redirectWithFlash(w, r, "success", "Status updated")
}

func (h *Handler) flashMutationError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, shared.ErrSelfAction), errors.Is(err, shared.ErrNotFound):
		h.redirectWithFlash(w, r, "error", shared.UserSafeMessage(err))
	default:
		h.logger.Error(op, slog.Any("error", err))
		h.redirectWithFlash(w, r, "error", "Something went wrong")
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	csrfToken, _ := h.csrf.EnsureToken(w, r)
	flash := shared.PopFlash(w, r)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/admin/users.html", view.TemplateData{
		Title:       "Users",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        auth.UserFromContext(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: kind, Message: message})
	http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
}
