package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"hqcatalog/internal/api"
	"hqcatalog/internal/catalog"
	"hqcatalog/internal/logger"
	"hqcatalog/internal/metrics"
)

// RecentCount is the number of entries shown on the dashboard.
const RecentCount = 6

// View is one rendered state of the catalog screen.
type View struct {
	Filter catalog.Filter
	Page   catalog.Page
	Facets catalog.Facets
	// All is the unfiltered list the page was computed from.
	All []catalog.Entry
}

// Dashboard is the home screen summary.
type Dashboard struct {
	Stats  catalog.Stats
	Recent []catalog.Entry
}

// LoanResult describes a completed loan toggle.
type LoanResult struct {
	Entry   catalog.Entry
	Offline bool
}

// Borrowed reports whether the toggle lent the entry.
func (r LoanResult) Borrowed() bool {
	return !r.Entry.Available()
}

// Message is the notification text for the toggle.
func (r LoanResult) Message() string {
	verb := "devolvido"
	if r.Borrowed() {
		verb = "emprestado"
	}
	msg := fmt.Sprintf("Livro \"%s\" %s com sucesso!", r.Entry.Titulo, verb)
	if r.Offline {
		msg += " (modo offline)"
	}
	return msg
}

type CatalogUsecase struct {
	backend Backend
	offline OfflineStore
	now     func() time.Time
}

// NewCatalogUsecase wires the catalog operations. With a nil offline store,
// toggles made while the backend is unreachable are not kept anywhere.
func NewCatalogUsecase(backend Backend, offline OfflineStore) *CatalogUsecase {
	return &CatalogUsecase{
		backend: backend,
		offline: offline,
		now:     time.Now,
	}
}

// All returns every entry.
func (u *CatalogUsecase) All(ctx context.Context) ([]catalog.Entry, error) {
	defer logger.Track(ctx, "catalog.list")()
	return u.backend.List(ctx)
}

// Browse loads the catalog and runs it through the filter, sort and paginate pipeline.
func (u *CatalogUsecase) Browse(ctx context.Context, f catalog.Filter, page, size int) (View, error) {
	all, err := u.All(ctx)
	if err != nil {
		return View{}, err
	}
	return BuildView(all, f, page, size), nil
}

// BuildView applies the pipeline to an already loaded list.
func BuildView(all []catalog.Entry, f catalog.Filter, page, size int) View {
	filtered := catalog.Apply(all, f)
	return View{
		Filter: f,
		Page:   catalog.Paginate(filtered, page, size),
		Facets: catalog.CollectFacets(all),
		All:    all,
	}
}

// Navigate is BuildView for a page request made while current is shown. A
// requested page outside the filtered result leaves current in place.
func Navigate(all []catalog.Entry, f catalog.Filter, current, requested, size int) View {
	filtered := catalog.Apply(all, f)
	if size <= 0 {
		size = catalog.DefaultPageSize
	}
	totalPages := (len(filtered) + size - 1) / size
	page := catalog.GoTo(current, requested, totalPages)
	return View{
		Filter: f,
		Page:   catalog.Paginate(filtered, page, size),
		Facets: catalog.CollectFacets(all),
		All:    all,
	}
}

// Get returns one entry.
func (u *CatalogUsecase) Get(ctx context.Context, id int) (catalog.Entry, error) {
	return u.backend.Get(ctx, id)
}

func (u *CatalogUsecase) Create(ctx context.Context, e catalog.Entry) (catalog.Entry, error) {
	return u.backend.Create(ctx, e)
}

func (u *CatalogUsecase) Update(ctx context.Context, id int, e catalog.Entry) (catalog.Entry, error) {
	return u.backend.Update(ctx, id, e)
}

func (u *CatalogUsecase) Delete(ctx context.Context, id int) error {
	return u.backend.Delete(ctx, id)
}

// ToggleLoan lends an available entry or takes back a borrowed one. The
// choice is made on the backend's current copy of the entry, so a loan made
// from another client is returned rather than lent twice. When the backend
// cannot be reached the entry is taken from known or the offline dataset and
// the transition is applied to the offline dataset only.
func (u *CatalogUsecase) ToggleLoan(ctx context.Context, id int, known []catalog.Entry) (LoanResult, error) {
	entry, err := u.backend.Get(ctx, id)
	if errors.Is(err, api.ErrOffline) {
		cached, lerr := u.lookupOffline(id, known)
		if lerr != nil {
			return LoanResult{}, err
		}
		return u.offlineToggle(ctx, cached), nil
	}
	if err != nil {
		return LoanResult{}, err
	}

	var updated catalog.Entry
	if entry.Available() {
		updated, err = u.backend.Borrow(ctx, id)
	} else {
		updated, err = u.backend.Return(ctx, id)
	}

	if errors.Is(err, api.ErrOffline) {
		return u.offlineToggle(ctx, entry), nil
	}
	if err != nil {
		return LoanResult{}, err
	}

	if updated.ID == 0 {
		updated = catalog.Toggle(entry, u.now())
	}
	result := LoanResult{Entry: updated}
	metrics.LoanTogglesTotal.WithLabelValues(direction(result), "online").Inc()
	return result, nil
}

func (u *CatalogUsecase) offlineToggle(ctx context.Context, entry catalog.Entry) LoanResult {
	logger.For(ctx).WithField("id", entry.ID).Warn("backend unreachable, toggling loan locally")
	result := LoanResult{Entry: u.toggleOffline(entry), Offline: true}
	metrics.LoanTogglesTotal.WithLabelValues(direction(result), "offline").Inc()
	return result
}

func (u *CatalogUsecase) lookupOffline(id int, known []catalog.Entry) (catalog.Entry, error) {
	if i := slices.IndexFunc(known, func(e catalog.Entry) bool { return e.ID == id }); i >= 0 {
		return known[i], nil
	}
	if u.offline == nil {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return u.offline.Get(id)
}

// Lookup returns entry id from known when present, otherwise from the backend.
func (u *CatalogUsecase) Lookup(ctx context.Context, id int, known []catalog.Entry) (catalog.Entry, error) {
	if i := slices.IndexFunc(known, func(e catalog.Entry) bool { return e.ID == id }); i >= 0 {
		return known[i], nil
	}
	return u.backend.Get(ctx, id)
}

func (u *CatalogUsecase) toggleOffline(entry catalog.Entry) catalog.Entry {
	now := u.now()
	if u.offline != nil {
		if e, err := u.offline.Toggle(entry.ID, now); err == nil {
			return e
		}
	}
	return catalog.Toggle(entry, now)
}

func direction(r LoanResult) string {
	if r.Borrowed() {
		return "borrow"
	}
	return "return"
}

// Stats returns catalog statistics.
func (u *CatalogUsecase) Stats(ctx context.Context) (catalog.Stats, error) {
	return u.backend.Stats(ctx)
}

// Dashboard returns the statistics and the most recently added entries.
func (u *CatalogUsecase) Dashboard(ctx context.Context) (Dashboard, error) {
	stats, err := u.backend.Stats(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	all, err := u.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Stats: stats, Recent: Recent(all, RecentCount)}, nil
}

// Recent returns up to n entries with the highest ids, newest first.
func Recent(all []catalog.Entry, n int) []catalog.Entry {
	out := slices.Clone(all)
	catalog.SortEntries(out, catalog.Sort{Field: catalog.SortByID, Desc: true})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Health probes the backend.
func (u *CatalogUsecase) Health(ctx context.Context) (api.Health, error) {
	return u.backend.Health(ctx)
}
