package http

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/export"
	"hqcatalog/internal/httpx"
	"hqcatalog/internal/logger"
	"hqcatalog/internal/notify"
	"hqcatalog/internal/prefs"
	"hqcatalog/internal/usecase"
	"hqcatalog/internal/view"

	"github.com/go-chi/chi/v5"
)

// readinessTimeout bounds the backend probe in Readyz.
const readinessTimeout = 2 * time.Second

// Dashboard renders the home page with statistics and recent additions.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := h.prefsStore(w, r).Restore(ctx)

	d, err := h.catalog.Dashboard(ctx)
	if err != nil {
		reportError(ctx, err, "Erro ao carregar estatísticas")
		d = usecase.Dashboard{Stats: catalog.ComputeStats(nil)}
	}
	data := view.DashboardPage{Stats: d.Stats, Recent: d.Recent}
	data.Layout = h.layout(r, "Início", "home", p)
	h.render(w, r, http.StatusOK, "dashboard", data)
}

// Reports renders the statistics, the per-publisher table and the color
// preferences.
func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := h.prefsStore(w, r).Restore(ctx)

	stats, err := h.catalog.Stats(ctx)
	if err != nil {
		reportError(ctx, err, "Erro ao carregar estatísticas")
		stats = catalog.ComputeStats(nil)
	}
	data := view.ReportsPage{
		Stats:      stats,
		Publishers: stats.Publishers(),
		Colors:     p.Colors,
		ColorKeys:  prefs.ColorKeys,
	}
	data.Layout = h.layout(r, "Relatórios", "reports", p)
	h.render(w, r, http.StatusOK, "reports", data)
}

// Export downloads the whole catalog as CSV or JSON. The file is built in
// memory first so a failure can still redirect with a notification.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		h.notFound(w, r)
		return
	}

	all, err := h.catalog.All(ctx)
	var buf bytes.Buffer
	if err == nil {
		err = export.Write(&buf, f, all, nil)
	}
	if err != nil {
		logger.For(ctx).WithError(err).WithField("format", f).Warn("export failed")
		notify.Push(ctx, notify.Error, f.FailureMessage())
		redirect(w, r, "/relatorios")
		return
	}

	notify.Push(ctx, notify.Success, f.SuccessMessage())
	keepToasts(w, r)
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename()+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// ToggleTheme switches between the light and dark themes and goes back to
// the page the request came from.
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	store := h.prefsStore(w, r)
	p := store.Restore(ctx)
	t, err := store.ToggleTheme(ctx, p.Theme)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("could not save theme")
	}
	notify.Push(ctx, notify.Info, "Tema "+t.Label()+" ativado")
	redirect(w, r, backTo(r))
}

// SaveColors stores the custom interface colors, or clears them on reset.
func (h *Handler) SaveColors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !parseForm(w, r) {
		return
	}
	store := h.prefsStore(w, r)

	colors := prefs.Colors{}
	if r.PostForm.Get("reset") == "" {
		var err error
		colors, err = prefs.ParseColors(r.PostForm.Get)
		if err != nil {
			notify.Push(ctx, notify.Error, "Cor inválida")
			redirect(w, r, "/relatorios")
			return
		}
	}
	if err := store.SaveColors(ctx, colors); err != nil {
		logger.For(ctx).WithError(err).Warn("could not save colors")
		notify.Push(ctx, notify.Error, "Erro ao salvar cores")
	} else if len(colors) == 0 {
		notify.Push(ctx, notify.Info, "Cores padrão restauradas")
	} else {
		notify.Push(ctx, notify.Success, "Cores salvas com sucesso!")
	}
	redirect(w, r, "/relatorios")
}

// ThemeCSS serves the color overrides stored in the browser.
func (h *Handler) ThemeCSS(w http.ResponseWriter, r *http.Request) {
	p := h.prefsStore(w, r).Restore(r.Context())
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := view.WriteThemeCSS(w, p.Colors); err != nil {
		logger.For(r.Context()).WithError(err).Warn("write theme css")
	}
}

// Healthz reports that the front end is up.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccessWithRequest(r, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz probes the backend. Serving sample data counts as not ready.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	health, err := h.catalog.Health(ctx)
	if err != nil || h.status.Offline() {
		msg := "backend unreachable"
		if err != nil {
			msg = err.Error()
		}
		httpx.JSONErrorWithRequest(r, w, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", msg, nil)
		return
	}
	httpx.JSONSuccessWithRequest(r, w, http.StatusOK, map[string]any{
		"status":  "ready",
		"backend": health,
	})
}

// backTo is the same-origin path of the referring page, or the home page.
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) || ref.Path[0] != '/' {
		return "/"
	}
	if len(ref.Path) > 1 && ref.Path[1] == '/' {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
