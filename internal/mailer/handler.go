package mailer

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/view"
)

// Enqueuer queues rendered email for background delivery.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, email Email) error
}

// Handler serves the admin email screen: recent log plus manual send.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	queue     Enqueuer
	templates *view.Engine
	csrf      *shared.CSRFManager
	secure    bool
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, queue Enqueuer, templates *view.Engine, csrf *shared.CSRFManager, secure bool) *Handler {
	return &Handler{logger: logger, service: service, queue: queue, templates: templates, csrf: csrf, secure: secure}
}

// MountRoutes registers email routes. Manual send is admin-only; the router
// applies the guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listLogs)
	r.Post("/send", h.sendManual)
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.service.RecentLogs(r.Context(), 50)
	if err != nil {
		h.logger.Error("list email logs", slog.Any("error", err))
		h.render(w, r, map[string]any{"Errors": map[string]string{"general": "Something went wrong"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, map[string]any{"Logs": logs}, http.StatusOK)
}

// sendManual queues an admin-composed message to one or more recipients.
func (h *Handler) sendManual(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	subject := strings.TrimSpace(r.PostFormValue("subject"))
	message := strings.TrimSpace(r.PostFormValue("body"))
	recipients := splitRecipients(r.PostFormValue("to"))

	if subject == "" || message == "" || len(recipients) == 0 {
		h.redirectWithFlash(w, r, "error", "Recipients, subject and body are required")
		return
	}

	actor := auth.UserFromContext(r.Context())
	renderedSubject, body := ManualEmail(subject, message)

	queued := 0
	for _, to := range recipients {
		email := Email{To: to, Subject: renderedSubject, HTML: body, Type: TypeManual}
		if actor != nil {
			id := actor.ID
			email.SentBy = &id
		}
		if err := h.queue.EnqueueEmail(r.Context(), email); err != nil {
			h.logger.Error("enqueue manual email", slog.String("to", to), slog.Any("error", err))
			continue
		}
		queued++
	}

	if queued == 0 {
		h.redirectWithFlash(w, r, "error", "No emails could be queued")
		return
	}
	h.redirectWithFlash(w, r, "success", "Queued "+strconv.Itoa(queued)+" of "+strconv.Itoa(len(recipients))+" emails")
}

func splitRecipients(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r' || r == ' '
	})
	var out []string
	for _, f := range fields {
		addr, err := mail.ParseAddress(f)
		if err != nil {
			continue
		}
		out = append(out, addr.Address)
	}
	return out
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	csrfToken, _ := h.csrf.EnsureToken(w, r)
	flash := shared.PopFlash(w, r)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/admin/emails.html", view.TemplateData{
		Title:       "Emails",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        auth.UserFromContext(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render emails", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: kind, Message: message})
	http.Redirect(w, r, "/admin/emails", http.StatusSeeOther)
}
