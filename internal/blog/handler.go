package blog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/anempire/anempire-web/internal/auth"
	"github.com/anempire/anempire-web/internal/platform/httpx"
	"github.com/anempire/anempire-web/internal/shared"
	"github.com/anempire/anempire-web/internal/view"
)

// Handler serves public articles and the admin post editor.
type Handler struct {
	logger    *slog.Logger
	store     *Store
	templates *view.Engine
	csrf      *shared.CSRFManager
	secure    bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, store *Store, templates *view.Engine, csrf *shared.CSRFManager, secure bool) *Handler {
	return &Handler{logger: logger, store: store, templates: templates, csrf: csrf, secure: secure}
}

// MountPublicRoutes registers article routes and the gate endpoint.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/articles", h.listArticles)
	r.Get("/articles/{slug}", h.showArticle)
	r.Post("/api/blog-access", h.grantAccess)
}

// MountAdminRoutes registers the post editor. The router applies the guard.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.adminList)
	r.Post("/{slug}", h.adminUpdate)
}

func (h *Handler) listArticles(w http.ResponseWriter, r *http.Request) {
	if !HasAccess(r) {
		h.render(w, r, "pages/articles_gate.html", "Articles", map[string]any{}, http.StatusOK)
		return
	}
	posts, err := h.store.List()
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		h.render(w, r, "pages/articles.html", "Articles",
			map[string]any{"Errors": map[string]string{"general": "Something went wrong"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/articles.html", "Articles", map[string]any{"Posts": posts}, http.StatusOK)
}

func (h *Handler) showArticle(w http.ResponseWriter, r *http.Request) {
	if !HasAccess(r) {
		http.Redirect(w, r, "/articles", http.StatusSeeOther)
		return
	}
	post, err := h.store.Get(chi.URLParam(r, "slug"))
	if err != nil || !post.Published() {
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("load post", slog.Any("error", err))
		}
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/article.html", post.Title, map[string]any{"Post": post}, http.StatusOK)
}

// grantAccess sets the engagement cookie. Called from the gate form on the
// articles page.
func (h *Handler) grantAccess(w http.ResponseWriter, r *http.Request) {
	GrantAccess(w, h.secure)
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		httpx.JSON(w, http.StatusOK, map[string]bool{"granted": true})
		return
	}
	http.Redirect(w, r, "/articles", http.StatusSeeOther)
}

func (h *Handler) adminList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.List()
	if err != nil {
		h.logger.Error("list posts", slog.Any("error", err))
		h.render(w, r, "pages/admin/blog.html", "Blog",
			map[string]any{"Errors": map[string]string{"general": "Something went wrong"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin/blog.html", "Blog", map[string]any{"Posts": posts}, http.StatusOK)
}

func (h *Handler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	slug := chi.URLParam(r, "slug")
	year, _ := strconv.Atoi(r.PostFormValue("year"))
	order, _ := strconv.Atoi(r.PostFormValue("order"))
	meta := Frontmatter{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Subtitle: strings.TrimSpace(r.PostFormValue("subtitle")),
		Year:     year,
		Order:    order,
		Status:   r.PostFormValue("status"),
	}
	if meta.Title == "" {
		shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "error", Message: "Title is required"})
		http.Redirect(w, r, "/admin/blog", http.StatusSeeOther)
		return
	}

	if _, err := h.store.Update(slug, meta); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "error", Message: "Post not found"})
		default:
			h.logger.Error("update post", slog.String("slug", slug), slog.Any("error", err))
			shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "error", Message: "Something went wrong"})
		}
		http.Redirect(w, r, "/admin/blog", http.StatusSeeOther)
		return
	}
	shared.SetFlash(w, h.secure, shared.FlashMessage{Kind: "success", Message: "Post updated"})
	http.Redirect(w, r, "/admin/blog", http.StatusSeeOther)
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
		User:        auth.UserFromContext(r.Context()),
		Data:        data,
	}); err != nil {
		h.logger.Error("render template", slog.String("template", template), slog.Any("error", err))
	}
}
