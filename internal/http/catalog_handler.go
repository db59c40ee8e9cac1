package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/form"
	"hqcatalog/internal/logger"
	"hqcatalog/internal/notify"
	"hqcatalog/internal/prefs"
	"hqcatalog/internal/session"
	"hqcatalog/internal/usecase"
	"hqcatalog/internal/view"

	"github.com/google/uuid"
)

// Live-search request headers: the page the request comes from and its
// ticket within that page.
const (
	ViewHeader       = "X-View"
	GenerationHeader = "X-Generation"
)

// Catalog renders the catalog page. Without query parameters the filters
// saved in the browser are restored; otherwise the given filters are saved.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	store := h.prefsStore(w, r)
	p := store.Restore(r.Context())
	f, page := h.filterFor(r, store, p)
	h.showCatalog(w, r, http.StatusOK, p, f, page, nil, nil)
}

func (h *Handler) filterFor(r *http.Request, store *prefs.Store, p prefs.Prefs) (catalog.Filter, int) {
	q := r.URL.Query()
	if !hasFilterParams(q) {
		return p.Filters, 1
	}
	f, page := FilterFromQuery(q)
	if err := store.SaveFilters(r.Context(), f); err != nil {
		logger.For(r.Context()).WithError(err).Warn("could not save filters")
	}
	return f, page
}

// showCatalog loads the catalog and renders it, optionally with the modal or
// the delete confirmation open.
func (h *Handler) showCatalog(w http.ResponseWriter, r *http.Request, status int, p prefs.Prefs, f catalog.Filter, page int, modal *view.Modal, confirm *catalog.Entry) {
	ctx := r.Context()
	st := session.From(ctx)
	vw, all, err := h.load(ctx, st)
	if err != nil {
		reportError(ctx, err, "Erro ao carregar o catálogo")
	}

	v := usecase.Navigate(all, f, st.Page(), page, h.opts.PageSize)
	st.SetPage(v.Page.Number)
	data := view.CatalogPage{
		Results:     h.results(v, vw.ID, vw.Generation.Current()),
		Facets:      v.Facets,
		SortOptions: view.SortOptionsFor(f.Sort),
		Modal:       modal,
		Confirm:     confirm,
	}
	data.Layout = h.layout(r, "Catálogo", "catalog", p)
	h.render(w, r, status, "catalog", data)
}

func (h *Handler) results(v usecase.View, viewID string, generation uint64) view.Results {
	return view.Results{
		Filter:     v.Filter,
		Page:       v.Page,
		Links:      catalog.Window(v.Page.Number, v.Page.TotalPages),
		Query:      FilterQuery(v.Filter, v.Page.Number),
		View:       viewID,
		Generation: generation,
	}
}

// Results answers live-search requests with the results fragment. A request
// superseded by a newer one from the same page gets 204 with X-Stale.
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	st := session.From(ctx)

	var vw *session.View
	if id := r.Header.Get(ViewHeader); id != "" {
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "invalid view", http.StatusBadRequest)
			return
		}
		vw = st.View(id)
	} else {
		vw = st.NewView()
	}

	var ticket uint64
	if raw := r.Header.Get(GenerationHeader); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid generation", http.StatusBadRequest)
			return
		}
		if !vw.Generation.Observe(n) {
			stale(w)
			return
		}
		ticket = n
	} else {
		ticket = vw.Generation.Next()
	}

	f, page := FilterFromQuery(r.URL.Query())
	if err := h.prefsStore(w, r).SaveFilters(ctx, f); err != nil {
		logger.For(ctx).WithError(err).Warn("could not save filters")
	}

	all, err := h.catalog.All(ctx)
	if err != nil {
		reportError(ctx, err, "Erro ao carregar o catálogo")
	}
	if !st.Apply(vw, ticket, all) {
		stale(w)
		return
	}

	keepToasts(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	v := usecase.Navigate(all, f, st.Page(), page, h.opts.PageSize)
	st.SetPage(v.Page.Number)
	if err := h.views.Fragment(w, "catalog", "results", h.results(v, vw.ID, ticket)); err != nil {
		logger.For(ctx).WithError(err).Error("render results")
	}
}

func stale(w http.ResponseWriter) {
	w.Header().Set("X-Stale", "1")
	w.WriteHeader(http.StatusNoContent)
}

// ClearFilters forgets the saved filters and shows the full catalog.
func (h *Handler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	if err := h.prefsStore(w, r).ClearFilters(r.Context()); err != nil {
		logger.For(r.Context()).WithError(err).Warn("could not clear filters")
	}
	redirect(w, r, "/catalogo")
}

func (h *Handler) newController() *form.Controller {
	return form.NewController(h.validator, h.catalog)
}

func (h *Handler) modal(c *form.Controller, back url.Values) *view.Modal {
	action := "/livros"
	if c.Mode() == form.Editing {
		action = fmt.Sprintf("/livros/%d", c.EditID())
	}
	return &view.Modal{
		Title:       c.Title(),
		SubmitLabel: c.SubmitLabel(),
		Action:      action,
		Values:      c.Values(),
		Errors:      c.Errors(),
		CurrentYear: h.validator.CurrentYear(),
		MinYear:     form.MinYear,
		Return:      back.Encode(),
		Close:       catalogURL(back),
	}
}

// NewForm shows the catalog with an empty add dialog.
func (h *Handler) NewForm(w http.ResponseWriter, r *http.Request) {
	back := returnQuery(r.URL.RawQuery)
	f, page := FilterFromQuery(back)
	c := h.newController()
	c.OpenCreate()
	p := h.prefsStore(w, r).Restore(r.Context())
	h.showCatalog(w, r, http.StatusOK, p, f, page, h.modal(c, back), nil)
}

// EditForm shows the catalog with the edit dialog filled from the entry.
func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnQuery(r.URL.RawQuery)
	id, ok := entryID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	e, err := h.catalog.Lookup(ctx, id, session.From(ctx).Snapshot())
	if err != nil {
		h.missing(w, r, err, back, "Erro ao carregar dados do livro")
		return
	}
	c := h.newController()
	c.OpenEdit(e)
	f, page := FilterFromQuery(back)
	p := h.prefsStore(w, r).Restore(ctx)
	h.showCatalog(w, r, http.StatusOK, p, f, page, h.modal(c, back), nil)
}

// Create saves a new entry from the add dialog.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c := h.newController()
	c.OpenCreate()
	h.submit(w, r, c)
}

// Update saves the edit dialog.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := entryID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	e, err := h.catalog.Lookup(ctx, id, session.From(ctx).Snapshot())
	if err != nil {
		h.missing(w, r, err, returnQuery(r.PostFormValue(paramReturn)), "Erro ao carregar dados do livro")
		return
	}
	c := h.newController()
	c.OpenEdit(e)
	h.submit(w, r, c)
}

// submit validates and saves the posted form. Invalid input re-renders the
// dialog with field messages and 422; backend failures keep it open too.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, c *form.Controller) {
	ctx := r.Context()
	if !parseForm(w, r) {
		return
	}
	back := returnQuery(r.PostForm.Get(paramReturn))
	values := form.ValuesFromGetter(r.PostForm.Get)

	existing := session.From(ctx).Snapshot()
	if existing == nil {
		_, existing, _ = h.load(ctx, session.From(ctx))
	}

	mode := c.Mode()
	_, err := c.Submit(ctx, values, existing)
	if err == nil {
		notify.Push(ctx, notify.Success, form.SuccessMessage(mode))
		redirect(w, r, catalogURL(back))
		return
	}

	status := http.StatusUnprocessableEntity
	var verrs form.ValidationErrors
	if !errors.As(err, &verrs) {
		reportError(ctx, err, "Erro ao salvar livro")
		status = http.StatusBadGateway
	}
	f, page := FilterFromQuery(back)
	p := h.prefsStore(w, r).Restore(ctx)
	h.showCatalog(w, r, status, p, f, page, h.modal(c, back), nil)
}

// ConfirmDelete shows the catalog with the delete confirmation open.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnQuery(r.URL.RawQuery)
	id, ok := entryID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	e, err := h.catalog.Lookup(ctx, id, session.From(ctx).Snapshot())
	if err != nil {
		h.missing(w, r, err, back, "Erro ao carregar dados do livro")
		return
	}
	f, page := FilterFromQuery(back)
	p := h.prefsStore(w, r).Restore(ctx)
	h.showCatalog(w, r, http.StatusOK, p, f, page, nil, &e)
}

// Delete removes an entry after confirmation.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnQuery(r.PostFormValue(paramReturn))
	id, ok := entryID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	if err := h.catalog.Delete(ctx, id); err != nil {
		reportError(ctx, err, "Erro ao excluir livro")
	} else {
		notify.Push(ctx, notify.Success, "Livro excluído com sucesso!")
	}
	redirect(w, r, catalogURL(back))
}

// ToggleLoan lends or returns an entry. While the backend is unreachable the
// change only affects the sample data and the toast says so.
func (h *Handler) ToggleLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := returnQuery(r.PostFormValue(paramReturn))
	id, ok := entryID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	st := session.From(ctx)
	res, err := h.catalog.ToggleLoan(ctx, id, st.Snapshot())
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		notify.Push(ctx, notify.Error, "Livro não encontrado")
	case err != nil:
		reportError(ctx, err, "Erro ao alterar status do livro")
	case res.Offline:
		st.Replace(res.Entry)
		notify.Push(ctx, notify.Warning, res.Message())
	default:
		st.Replace(res.Entry)
		notify.Push(ctx, notify.Success, res.Message())
	}
	redirect(w, r, catalogURL(back))
}

// missing handles a failed entry lookup by returning to the catalog.
func (h *Handler) missing(w http.ResponseWriter, r *http.Request, err error, back url.Values, fallback string) {
	if errors.Is(err, catalog.ErrNotFound) {
		notify.Push(r.Context(), notify.Error, "Livro não encontrado")
	} else {
		reportError(r.Context(), err, fallback)
	}
	redirect(w, r, catalogURL(back))
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	p := h.prefsStore(w, r).Restore(r.Context())
	h.renderError(w, r, p, http.StatusNotFound, "Página não encontrada.")
}
