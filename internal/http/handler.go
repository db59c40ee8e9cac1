package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"hqcatalog/internal/api"
	"hqcatalog/internal/catalog"
	"hqcatalog/internal/form"
	"hqcatalog/internal/httpx"
	"hqcatalog/internal/logger"
	"hqcatalog/internal/notify"
	"hqcatalog/internal/prefs"
	"hqcatalog/internal/session"
	"hqcatalog/internal/usecase"
	"hqcatalog/internal/view"

	"github.com/go-chi/chi/v5"
)

// BackendStatus reports whether the backend client is serving sample data.
type BackendStatus interface {
	Offline() bool
}

type Options struct {
	PageSize      int
	Debounce      time.Duration
	SecureCookies bool
}

type Handler struct {
	catalog   *usecase.CatalogUsecase
	status    BackendStatus
	views     *view.Renderer
	validator *form.Validator
	opts      Options
}

func NewHandler(uc *usecase.CatalogUsecase, status BackendStatus, views *view.Renderer, v *form.Validator, opts Options) *Handler {
	if opts.PageSize <= 0 {
		opts.PageSize = catalog.DefaultPageSize
	}
	return &Handler{
		catalog:   uc,
		status:    status,
		views:     views,
		validator: v,
		opts:      opts,
	}
}

func (h *Handler) prefsStore(w http.ResponseWriter, r *http.Request) *prefs.Store {
	return prefs.NewStore(prefs.NewCookieStorage(w, r, h.opts.SecureCookies))
}

// layout fills the shared page data. Call it last so that toasts raised
// while building the page are included.
func (h *Handler) layout(r *http.Request, title, nav string, p prefs.Prefs) view.Layout {
	return view.Layout{
		Title:          title,
		Nav:            nav,
		Theme:          p.Theme,
		Offline:        h.status.Offline(),
		Toasts:         pendingToasts(r),
		DebounceMillis: h.opts.Debounce.Milliseconds(),
		RequestID:      httpx.RequestIDFrom(r),
	}
}

// render writes a full page, or an error page when the template fails.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.views.Render(&buf, page, data); err != nil {
		logger.For(r.Context()).WithError(err).Error("render page")
		httpx.ErrorPage(w, r, http.StatusInternalServerError, "Não foi possível exibir a página.")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, p prefs.Prefs, status int, message string) {
	h.render(w, r, status, "error", view.ErrorPage{
		Layout:  h.layout(r, strconv.Itoa(status), "", p),
		Status:  status,
		Message: message,
	})
}

// reportError raises a toast for err. Backend HTTP errors already carry the
// generic communication toast, so the server's own message is added.
func reportError(ctx context.Context, err error, fallback string) {
	var se *api.StatusError
	switch {
	case errors.As(err, &se):
		notify.Push(ctx, notify.Error, se.Message)
	case errors.Is(err, context.Canceled):
		return
	default:
		notify.Push(ctx, notify.Error, fallback)
	}
	logger.For(ctx).WithError(err).Warn(fallback)
}

// parseForm parses the posted form, answering 413 when the body went past
// the size limit and 400 for anything else unreadable.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseForm()
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "formulário muito grande", http.StatusRequestEntityTooLarge)
		return false
	}
	http.Error(w, "invalid form", http.StatusBadRequest)
	return false
}

// entryID parses the {id} route parameter.
func entryID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// load fetches the whole catalog for a newly rendered page and makes it the
// session snapshot.
func (h *Handler) load(ctx context.Context, st *session.State) (*session.View, []catalog.Entry, error) {
	vw := st.NewView()
	ticket := vw.Generation.Next()
	all, err := h.catalog.All(ctx)
	if err != nil {
		return vw, nil, err
	}
	st.Apply(vw, ticket, all)
	return vw, all, nil
}
