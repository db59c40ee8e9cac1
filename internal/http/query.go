package http

import (
	"net/url"
	"strconv"
	"strings"

	"hqcatalog/internal/catalog"
)

// Catalog query parameters.
const (
	paramSearch  = "busca"
	paramStatus  = "status"
	paramEditora = "editora"
	paramGenero  = "genero"
	paramAno     = "ano"
	paramSort    = "ordem"
	paramPage    = "pagina"
	paramReturn  = "voltar"
)

var filterParams = []string{paramSearch, paramStatus, paramEditora, paramGenero, paramAno, paramSort, paramPage}

// hasFilterParams reports whether q carries any catalog parameter.
func hasFilterParams(q url.Values) bool {
	for _, p := range filterParams {
		if _, ok := q[p]; ok {
			return true
		}
	}
	return false
}

// FilterFromQuery reads the catalog filter and the requested page number.
// Unknown status values and malformed years are ignored. A missing page
// requests the first one; a malformed page reads as 0, which navigation
// ignores like any other out-of-range number.
func FilterFromQuery(q url.Values) (catalog.Filter, int) {
	f := catalog.Filter{
		Search:  strings.TrimSpace(q.Get(paramSearch)),
		Editora: strings.TrimSpace(q.Get(paramEditora)),
		Genero:  strings.TrimSpace(q.Get(paramGenero)),
		Sort:    catalog.ParseSort(q.Get(paramSort)),
	}
	if s, ok := catalog.ParseStatus(q.Get(paramStatus)); ok {
		f.Status = s
	}
	f.Ano = catalog.ParseYear(q.Get(paramAno))
	if _, ok := q[paramPage]; !ok {
		return f, 1
	}
	page, err := strconv.Atoi(strings.TrimSpace(q.Get(paramPage)))
	if err != nil {
		page = 0
	}
	return f, page
}

// FilterQuery is the inverse of FilterFromQuery. Empty values and page 1 are
// left out.
func FilterQuery(f catalog.Filter, page int) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set(paramSearch, strings.TrimSpace(f.Search))
	set(paramStatus, string(f.Status))
	set(paramEditora, f.Editora)
	set(paramGenero, f.Genero)
	if f.Ano != 0 {
		q.Set(paramAno, strconv.Itoa(f.Ano))
	}
	if f.Sort.Field != "" && f.Sort != catalog.DefaultSort {
		q.Set(paramSort, f.Sort.String())
	}
	if page > 1 {
		q.Set(paramPage, strconv.Itoa(page))
	}
	return q
}

// returnQuery reads the catalog query a form should go back to. Only catalog
// parameters survive, so the value cannot redirect elsewhere.
func returnQuery(raw string) url.Values {
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	f, page := FilterFromQuery(parsed)
	return FilterQuery(f, page)
}

func catalogURL(q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return "/catalogo?" + enc
	}
	return "/catalogo"
}
