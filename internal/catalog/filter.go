package catalog

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Filter narrows and orders a list of entries. Zero-valued fields impose no constraint.
type Filter struct {
	Search  string `json:"search,omitempty"`
	Status  Status `json:"status,omitempty"`
	Editora string `json:"editora,omitempty"`
	Genero  string `json:"genero,omitempty"`
	Ano     int    `json:"ano,omitempty"`
	Sort    Sort   `json:"-"`
}

// Active reports whether any constraint is set.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" || f.Status != "" || f.Editora != "" || f.Genero != "" || f.Ano != 0
}

// Matches reports whether e satisfies every constraint of f.
func (f Filter) Matches(e Entry) bool {
	return f.matches(e, cases.Fold())
}

func (f Filter) matches(e Entry, fold cases.Caser) bool {
	if q := strings.TrimSpace(f.Search); q != "" {
		needle := fold.String(q)
		if !strings.Contains(fold.String(e.Titulo), needle) &&
			!strings.Contains(fold.String(e.Autor), needle) &&
			!strings.Contains(fold.String(e.Editora), needle) {
			return false
		}
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.Editora != "" && e.Editora != f.Editora {
		return false
	}
	if f.Genero != "" && e.Genero != f.Genero {
		return false
	}
	if f.Ano != 0 && e.Ano != f.Ano {
		return false
	}
	return true
}

// Apply returns the entries matching f, ordered by f.Sort. The input is not modified.
func Apply(entries []Entry, f Filter) []Entry {
	fold := cases.Fold()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if f.matches(e, fold) {
			out = append(out, e)
		}
	}
	SortEntries(out, f.Sort)
	return out
}

// SortField names an entry attribute usable as a sort key.
type SortField string

const (
	SortByTitulo  SortField = "titulo"
	SortByAutor   SortField = "autor"
	SortByAno     SortField = "ano"
	SortByEditora SortField = "editora"
	SortByGenero  SortField = "genero"
	SortByID      SortField = "id"
)

// Sort is a field plus a direction, written as "field-asc" or "field-desc".
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort orders by title ascending.
var DefaultSort = Sort{Field: SortByTitulo}

// ParseSort reads "field-direction". Anything unrecognized yields DefaultSort.
func ParseSort(s string) Sort {
	field, dir, ok := strings.Cut(strings.TrimSpace(strings.ToLower(s)), "-")
	if !ok {
		return DefaultSort
	}
	switch SortField(field) {
	case SortByTitulo, SortByAutor, SortByAno, SortByEditora, SortByGenero, SortByID:
	default:
		return DefaultSort
	}
	switch dir {
	case "asc":
		return Sort{Field: SortField(field)}
	case "desc":
		return Sort{Field: SortField(field), Desc: true}
	}
	return DefaultSort
}

func (s Sort) String() string {
	if s.Field == "" {
		return DefaultSort.String()
	}
	if s.Desc {
		return string(s.Field) + "-desc"
	}
	return string(s.Field) + "-asc"
}

func (s Sort) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Sort) UnmarshalText(b []byte) error {
	*s = ParseSort(string(b))
	return nil
}

// SortOptions lists the orderings offered in the UI, with their labels.
var SortOptions = []struct {
	Value string
	Label string
}{
	{"titulo-asc", "Título (A-Z)"},
	{"titulo-desc", "Título (Z-A)"},
	{"autor-asc", "Autor (A-Z)"},
	{"autor-desc", "Autor (Z-A)"},
	{"ano-desc", "Ano (mais recente)"},
	{"ano-asc", "Ano (mais antigo)"},
	{"editora-asc", "Editora (A-Z)"},
}

// SortEntries orders entries in place. Strings compare case-insensitively
// using Portuguese collation; equal keys keep their input order.
func SortEntries(entries []Entry, s Sort) {
	if s.Field == "" {
		s = DefaultSort
	}
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)

	var compare func(a, b Entry) int
	switch s.Field {
	case SortByAno:
		compare = func(a, b Entry) int { return cmp.Compare(a.Ano, b.Ano) }
	case SortByID:
		compare = func(a, b Entry) int { return cmp.Compare(a.ID, b.ID) }
	default:
		key := stringKey(s.Field)
		compare = func(a, b Entry) int { return col.CompareString(key(a), key(b)) }
	}

	if s.Desc {
		slices.SortStableFunc(entries, func(a, b Entry) int { return compare(b, a) })
		return
	}
	slices.SortStableFunc(entries, compare)
}

func stringKey(f SortField) func(Entry) string {
	switch f {
	case SortByAutor:
		return func(e Entry) string { return e.Autor }
	case SortByEditora:
		return func(e Entry) string { return e.Editora }
	case SortByGenero:
		return func(e Entry) string { return e.Genero }
	}
	return func(e Entry) string { return e.Titulo }
}

func sortPublishers(rows []PublisherCount) {
	slices.SortFunc(rows, func(a, b PublisherCount) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Editora, b.Editora)
	})
}

// Facets are the distinct values offered in the filter dropdowns.
type Facets struct {
	Editoras []string
	Generos  []string
	Anos     []int
}

// CollectFacets gathers the distinct publishers, genres and years of entries.
func CollectFacets(entries []Entry) Facets {
	editoras := map[string]struct{}{}
	generos := map[string]struct{}{}
	anos := map[int]struct{}{}
	for _, e := range entries {
		if e.Editora != "" {
			editoras[e.Editora] = struct{}{}
		}
		if e.Genero != "" {
			generos[e.Genero] = struct{}{}
		}
		if e.Ano != 0 {
			anos[e.Ano] = struct{}{}
		}
	}
	f := Facets{
		Editoras: keys(editoras),
		Generos:  keys(generos),
	}
	for y := range anos {
		f.Anos = append(f.Anos, y)
	}
	slices.SortFunc(f.Anos, func(a, b int) int { return cmp.Compare(b, a) })
	return f
}

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	col := collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
	col.SortStrings(out)
	return out
}

// ParseYear reads a year filter value; invalid input means no constraint.
func ParseYear(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
