package submissions

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/view"
)

// Handler serves the public lead forms and the admin review screens.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
	secure    bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, secure bool) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		validator: validator.New(),
		secure:    secure,
	}
}

// MountPublicRoutes registers the visitor-facing form routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/ask", h.showAsk)
	r.Post("/ask", h.handleAsk)
	r.Get("/conversation", h.showConversation)
	r.Post("/conversation", h.handleConversation)
	r.Get("/save", h.showSave)
	r.Post("/save", h.handleSave)
	r.Get("/thank-you", h.showThankYou)
}

// MountAdminRoutes registers the review screens. The router applies the
// session guard.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.listSubmissions)
	r.Post("/{kind}/{id}/review", h.markReviewed)
}

func (h *Handler) showAsk(w http.ResponseWriter, r *http.Request) {
	h.renderPublic(w, r, "pages/ask.html", "Ask a question", map[string]any{}, http.StatusOK)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := QuestionInput{
		Question: strings.TrimSpace(r.PostFormValue("question")),
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
	}
	if err := h.validator.Struct(in); err != nil {
		h.renderPublic(w, r, "pages/ask.html", "Ask a question",
			map[string]any{"Form": in, "Errors": map[string]string{"general": "Please write your question"}}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.SubmitQuestion(r.Context(), in); err != nil {
		h.logger.Error("submit question", slog.Any("error", err))
		h.renderPublic(w, r, "pages/ask.html", "Ask a question",
			map[string]any{"Form": in, "Errors": map[string]string{"general": "Something went wrong"}}, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/thank-you", http.StatusSeeOther)
}

func (h *Handler) showConversation(w http.ResponseWriter, r *http.Request) {
	h.renderPublic(w, r, "pages/conversation.html", "Request a conversation", map[string]any{}, http.StatusOK)
}

func (h *Handler) handleConversation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := ConversationInput{
		BusinessName:      strings.TrimSpace(r.PostFormValue("business_name")),
		Role:              strings.TrimSpace(r.PostFormValue("role")),
		RevenueModel:      strings.TrimSpace(r.PostFormValue("revenue_model")),
		RevenueRange:      strings.TrimSpace(r.PostFormValue("revenue_range")),
		TeamSize:          strings.TrimSpace(r.PostFormValue("team_size")),
		Limitation:        strings.TrimSpace(r.PostFormValue("limitation")),
		Responsibility:    strings.TrimSpace(r.PostFormValue("responsibility")),
		Willingness:       strings.TrimSpace(r.PostFormValue("willingness")),
		AdditionalContext: strings.TrimSpace(r.PostFormValue("additional_context")),
	}
	if err := h.validator.Struct(in); err != nil {
		h.renderPublic(w, r, "pages/conversation.html", "Request a conversation",
			map[string]any{"Form": in, "Errors": map[string]string{"general": "All fields except additional context are required"}}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.SubmitConversation(r.Context(), in); err != nil {
		h.logger.Error("submit conversation", slog.Any("error", err))
		h.renderPublic(w, r, "pages/conversation.html", "Request a conversation",
			map[string]any{"Form": in, "Errors": map[string]string{"general": "Something went wrong"}}, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/thank-you", http.StatusSeeOther)
}

func (h *Handler) showSave(w http.ResponseWriter, r *http.Request) {
	h.renderPublic(w, r, "pages/save.html", "Save for later", map[string]any{}, http.StatusOK)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := SaveInput{Email: strings.TrimSpace(r.PostFormValue("email"))}
	if err := h.validator.Struct(in); err != nil {
		h.renderPublic(w, r, "pages/save.html", "Save for later",
			map[string]any{"Errors": map[string]string{"general": "A valid email is required"}}, http.StatusBadRequest)
		return
	}
	if _, err := h.service.SubmitSaveForLater(r.Context(), in); err != nil {
		h.logger.Error("submit save for later", slog.Any("error", err))
		h.renderPublic(w, r, "pages/save.html", "Save for later",
			map[string]any{"Errors": map[string]string{"general": "Something went wrong"}}, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/thank-you", http.StatusSeeOther)
}

func (h *Handler) showThankYou(w http.ResponseWriter, r *http.Request) {
	h.renderPublic(w, r, "pages/thank_you.html", "Thank you", map[string]any{}, http.StatusOK)
}

// Dashboard renders the admin landing page with submission counts.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.DashboardStats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats", slog.Any("error", err))
	}
	h.renderAdmin(w, r, "pages/admin/dashboard.html", "Dashboard", map[string]any{"Stats": stats}, http.StatusOK)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	kind := Kind(r.URL.Query().Get("type"))
	if _, ok := tableFor(kind); !ok {
		kind = KindQuestion
	}

	data := map[string]any{"Kind": string(kind)}
	var err error
	switch kind {
	case KindQuestion:
		data["Questions"], err = h.service.ListQuestions(r.Context())
	case KindConversation:
		data["Conversations"], err = h.service.ListConversations(r.Context())
	case KindSave:
		data["Saves"], err = h.service.ListSaveForLater(r.Context())
	}
	if err != nil {
		h.logger.Error("list submissions", slog.String("kind", string(kind)), slog.Any("error", err))
		data["Errors"] = map[string]string{"general": "Something went wrong"}
		h.renderAdmin(w, r, "pages/admin/submissions.html", "Submissions", data, http.StatusInternalServerError)
		return
	}
	h.renderAdmin(w, r, "pages/admin/submissions.html", "Submissions", data, http.StatusOK)
}

func (h *Handler) markReviewed(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	kind := Kind(chi.URLParam(r, "kind"))
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	actor := auth.UserFromContext(r.Context())
	if actor == nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	notes := strings.TrimSpace(r.PostFormValue("notes"))
	if err := h.service.MarkReviewed(r.Context(), kind, id, actor.ID, notes); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "error", Message: "Submission not found"})
		} else {
			h.logger.Error("mark reviewed", slog.Any("error", err))
			shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "error", Message: "Something went wrong"})
		}
	} else {
		shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "success", Message: "Marked as reviewed"})
	}
	http.Redirect(w, r, "/admin/submissions?type="+string(kind), http.StatusSeeOther)
}

func (h *Handler) renderPublic(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
	csrfToken, _ := h.csrf.EnsureToken(w, r)
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, template, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}

func (h *Handler) renderAdmin(w http.ResponseWriter, r *http.Request, template, title string, data any, status int) {
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
		User:        auth.UserFromContext(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}
