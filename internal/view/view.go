// Package view renders the HTML pages and fragments of the web front end.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/form"
	"hqcatalog/internal/prefs"

	"github.com/microcosm-cc/bluemonday"
)

// PlaceholderCover replaces missing or broken cover images.
const PlaceholderCover = "https://via.placeholder.com/300x400/1E3A8A/FFFFFF?text=Sem+Capa"

// NoResultsMessage is shown when a filter matches nothing.
const NoResultsMessage = "Nenhum livro encontrado"

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the bundled stylesheet and script.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var pageFiles = map[string]string{
	"dashboard": "templates/dashboard.html",
	"catalog":   "templates/catalog.html",
	"reports":   "templates/reports.html",
	"error":     "templates/error.html",
}

// Renderer holds the parsed templates. It keeps no per-request state.
type Renderer struct {
	pages  map[string]*template.Template
	policy *bluemonday.Policy
}

func New() (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(pageFiles)),
		policy: bluemonday.StrictPolicy(),
	}
	for name, file := range pageFiles {
		t, err := template.New(name).Funcs(r.funcs()).ParseFS(templateFS, "templates/layout.html", "templates/partials.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes a full page.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	return r.execute(w, page, "layout", data)
}

// Fragment writes one named block of a page, such as the catalog results.
func (r *Renderer) Fragment(w io.Writer, page, block string, data any) error {
	return r.execute(w, page, block, data)
}

// execute renders into a buffer so a template error never leaves half a page.
func (r *Renderer) execute(w io.Writer, page, block string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return fmt.Errorf("render %s/%s: %w", page, block, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) funcs() template.FuncMap {
	return template.FuncMap{
		"cover":       CoverURL,
		"placeholder": func() string { return PlaceholderCover },
		"plain":       r.PlainText,
		"excerpt":     func(s string, n int) string { return Excerpt(r.PlainText(s), n) },
		"date":        FormatDate,
		"action":      catalog.ActionLabel,
		"pageHref":    PageHref,
		"href":        Href,
		"withParam":   WithParam,
		"fieldError":  func(errs map[string]string, field string) string { return errs[field] },
		"percent":     Percent,
		"noResults":   func() string { return NoResultsMessage },
		"statusOpts":  func() []catalog.Status { return []catalog.Status{catalog.StatusAvailable, catalog.StatusBorrowed} },
		"colorLabel":  ColorLabel,
		"colorValue":  ColorValue,
		"field":       Field,
		"confirmData": ConfirmFor,
		"themeLabel":  func(t prefs.Theme) string { return t.Toggled().Label() },
		"itoa":        strconv.Itoa,
		"inc":         func(n int) int { return n + 1 },
		"dec":         func(n int) int { return n - 1 },
	}
}

// CoverURL returns the entry's cover, or the placeholder when it is missing
// or not an absolute URL.
func CoverURL(e catalog.Entry) string {
	if form.IsValidURL(e.CapaURL) {
		return e.CapaURL
	}
	return PlaceholderCover
}

// PlainText strips any markup from s. The result is escaped again by the
// template, so entities are decoded here to avoid double escaping.
func (r *Renderer) PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

// Excerpt shortens s to at most n runes, ending with an ellipsis.
func Excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// FormatDate renders a loan date as dd/mm/yyyy.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// PageHref links to page n of the catalog keeping the other parameters.
func PageHref(q url.Values, n int) string {
	return Href("/catalogo", WithParam(q, "pagina", strconv.Itoa(n)))
}

// Href joins a path and a query.
func Href(path string, q url.Values) string {
	if enc := q.Encode(); enc != "" {
		return path + "?" + enc
	}
	return path
}

// WithParam returns a copy of q with key set to value (removed when empty).
func WithParam(q url.Values, key, value string) url.Values {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	if value == "" {
		out.Del(key)
	} else {
		out.Set(key, value)
	}
	return out
}

// Percent is part/total as a whole percentage.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return part * 100 / total
}

var colorLabels = map[string]string{
	"primary":    "Cor primária",
	"secondary":  "Cor secundária",
	"accent":     "Cor de destaque",
	"background": "Fundo",
	"text":       "Texto",
}

// DefaultColors is the stock palette shown when no override is stored.
var DefaultColors = prefs.Colors{
	"primary":    "#1e3a8a",
	"secondary":  "#64748b",
	"accent":     "#f59e0b",
	"background": "#f8fafc",
	"text":       "#0f172a",
}

// ColorValue is the override for key, or its stock value.
func ColorValue(c prefs.Colors, key string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return DefaultColors[key]
}

func ColorLabel(key string) string {
	if l, ok := colorLabels[key]; ok {
		return l
	}
	return key
}

// WriteThemeCSS writes the custom color overrides as CSS variables.
func WriteThemeCSS(w io.Writer, c prefs.Colors) error {
	var b strings.Builder
	b.WriteString(":root, [data-theme] {\n")
	for _, k := range prefs.ColorKeys {
		if v, ok := c[k]; ok {
			fmt.Fprintf(&b, "  --color-%s: %s;\n", k, v)
		}
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}
