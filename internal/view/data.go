package view

import (
	"net/url"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/form"
	"hqcatalog/internal/notify"
	"hqcatalog/internal/prefs"
)

// Layout is shared by every full page.
type Layout struct {
	Title   string
	Nav     string
	Theme   prefs.Theme
	Offline bool
	Toasts  []notify.Toast
	// DebounceMillis is the live-search delay used by app.js.
	DebounceMillis int64
	RequestID      string
}

type DashboardPage struct {
	Layout
	Stats  catalog.Stats
	Recent []catalog.Entry
}

// Results is the part of the catalog page replaced by live search.
type Results struct {
	Filter     catalog.Filter
	Page       catalog.Page
	Links      []catalog.PageLink
	Query      url.Values
	View       string
	Generation uint64
}

type CatalogPage struct {
	Layout
	Results
	Facets      catalog.Facets
	SortOptions []SortOption
	Modal       *Modal
	Confirm     *catalog.Entry
}

type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

// Modal is the add/edit dialog.
type Modal struct {
	Title       string
	SubmitLabel string
	Action      string
	Values      form.Values
	Errors      map[string]string
	CurrentYear int
	MinYear     int
	// Return is the catalog query to go back to after saving.
	Return string
	// Close is the catalog URL that dismisses the dialog.
	Close string
}

// FieldData is one input of the modal form.
type FieldData struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
	Min   int
	Max   int
}

// Field builds the data for one modal input.
func Field(name, label, typ string, m *Modal) FieldData {
	return FieldData{
		Name:  name,
		Label: label,
		Type:  typ,
		Value: m.Values.Get(name),
		Error: m.Errors[name],
		Min:   m.MinYear,
		Max:   m.CurrentYear,
	}
}

// Confirm is the delete confirmation dialog.
type Confirm struct {
	Entry  catalog.Entry
	Return string
	Close  string
}

// ConfirmFor builds the dialog for e, returning to the catalog at q.
func ConfirmFor(e *catalog.Entry, q url.Values) Confirm {
	return Confirm{Entry: *e, Return: q.Encode(), Close: Href("/catalogo", q)}
}

type ReportsPage struct {
	Layout
	Stats      catalog.Stats
	Publishers []catalog.PublisherCount
	Colors     prefs.Colors
	ColorKeys  []string
}

// ErrorPage is shown when a page cannot be built at all.
type ErrorPage struct {
	Layout
	Status  int
	Message string
}

// SortOptionsFor marks the option matching current.
func SortOptionsFor(current catalog.Sort) []SortOption {
	out := make([]SortOption, 0, len(catalog.SortOptions))
	for _, o := range catalog.SortOptions {
		out = append(out, SortOption{Value: o.Value, Label: o.Label, Selected: o.Value == current.String()})
	}
	return out
}
