package http

import (
	"context"
	"net/http"
	"time"

	"hqcatalog/internal/httpx"
	"hqcatalog/internal/session"
	"hqcatalog/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	MaxBodyBytes   int64
	RateLimitRPS   float64
	RateLimitBurst int
	EnableHSTS     bool
	ToastTTL       time.Duration
}

// NewRouter mounts every page, form action and probe. ctx bounds the
// background cleanup of the rate limiter.
func NewRouter(ctx context.Context, h *Handler, sessions *session.Manager, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(httpx.RequestIDMiddleware)
	r.Use(httpx.AccessLogMiddleware)
	r.Use(httpx.RecoveryMiddleware)
	r.Use(httpx.SecurityHeadersMiddleware(cfg.EnableHSTS))
	r.Use(httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/static/theme.css", h.ThemeCSS)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(view.Static())))

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
		}
		r.Use(ToastMiddleware(cfg.ToastTTL))
		r.Use(sessions.Middleware)

		r.Get("/", h.Dashboard)
		r.Get("/catalogo", h.Catalog)
		r.Get("/catalogo/resultados", h.Results)
		r.Post("/catalogo/limpar", h.ClearFilters)

		r.Get("/livros/novo", h.NewForm)
		r.Post("/livros", h.Create)
		r.Get("/livros/{id}/editar", h.EditForm)
		r.Post("/livros/{id}", h.Update)
		r.Get("/livros/{id}/excluir", h.ConfirmDelete)
		r.Post("/livros/{id}/excluir", h.Delete)
		r.Post("/livros/{id}/emprestimo", h.ToggleLoan)

		r.Get("/relatorios", h.Reports)
		r.Get("/exportar.{format}", h.Export)

		r.Post("/preferencias/tema", h.ToggleTheme)
		r.Post("/preferencias/cores", h.SaveColors)

		r.NotFound(h.notFound)
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			httpx.ErrorPage(w, r, http.StatusMethodNotAllowed, "Método não permitido.")
		})
	})

	return r
}
