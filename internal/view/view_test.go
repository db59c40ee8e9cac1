package view

import (
	"bytes"
	"io/fs"
	"net/url"
	"strings"
	"testing"
	"time"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/form"
	"hqcatalog/internal/notify"
	"hqcatalog/internal/prefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func entries() []catalog.Entry {
	lent := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return []catalog.Entry{
		{ID: 1, Titulo: "Batman: Ano Um", Autor: "Frank Miller", Ano: 1987, Editora: "DC Comics",
			CapaURL: "https://covers.example.com/batman.jpg", Status: catalog.StatusAvailable,
			Descricao: "<b>Origem</b> do Batman &amp; Gordon<script>alert(1)</script>"},
		{ID: 2, Titulo: "<script>alert('x')</script>", Autor: "Anônimo", Ano: 2020, CapaURL: "not a url",
			Status: catalog.StatusBorrowed, DataEmprestimo: &lent},
	}
}

func catalogPage(items []catalog.Entry, page, size int) CatalogPage {
	q := url.Values{"busca": {"bat"}}
	p := catalog.Paginate(items, page, size)
	return CatalogPage{
		Layout: Layout{Title: "Catálogo", Nav: "catalog", Theme: prefs.ThemeLight, DebounceMillis: 400},
		Results: Results{
			Page:  p,
			Links: catalog.Window(p.Number, p.TotalPages),
			Query: q,
		},
		Facets:      catalog.CollectFacets(items),
		SortOptions: SortOptionsFor(catalog.DefaultSort),
	}
}

func TestRender_Catalog(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Render(&buf, "catalog", catalogPage(entries(), 1, 12)))
	out := buf.String()

	assert.Contains(t, out, `<html lang="pt-BR" data-theme="light">`)
	assert.Contains(t, out, "Batman: Ano Um")
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;")
	assert.Contains(t, out, "Origem do Batman &amp; Gordon")
	assert.NotContains(t, out, "<b>Origem</b>")
	assert.Contains(t, out, `src="https://covers.example.com/batman.jpg"`)
	assert.Contains(t, out, `data-fallback="https://via.placeholder.com/300x400/1E3A8A/FFFFFF?text=Sem&#43;Capa"`)
	assert.Contains(t, out, "Emprestado em 15/01/2024")
	assert.Contains(t, out, ">Emprestar</button>")
	assert.Contains(t, out, ">Devolver</button>")
	assert.Contains(t, out, `href="/livros/1/editar?busca=bat"`)
	assert.Contains(t, out, "Mostrando 1–2 de 2 HQs")
	assert.Contains(t, out, `value="titulo-asc" selected`)
	assert.NotContains(t, out, "Modo offline")
}

func TestRender_CatalogControls(t *testing.T) {
	r := newRenderer(t)
	page := catalogPage(entries(), 1, 12)
	page.View = "0b9e7c4e-8d1a-4a43-9a57-2f0f4f3f4f10"
	page.Generation = 4

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "catalog", page))
	out := buf.String()

	assert.Contains(t, out, `<div id="results" data-view="0b9e7c4e-8d1a-4a43-9a57-2f0f4f3f4f10" data-generation="4">`)
	assert.Contains(t, out, `id="layout-toggle"`)
	assert.Contains(t, out, `data-layout="grid" aria-pressed="true"`)
	assert.Contains(t, out, `data-layout="list" aria-pressed="false"`)
	assert.Contains(t, out, `href="/livros/novo?busca=bat" data-shortcut="n" aria-keyshortcuts="Alt+N"`)
}

func TestRender_CatalogNoResults(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer

	require.NoError(t, r.Render(&buf, "catalog", catalogPage(nil, 1, 12)))

	assert.Contains(t, buf.String(), NoResultsMessage)
	assert.NotContains(t, buf.String(), `class="pagination"`)
}

func TestFragment_ResultsPagination(t *testing.T) {
	r := newRenderer(t)
	items := make([]catalog.Entry, 0, 30)
	for i := 1; i <= 30; i++ {
		items = append(items, catalog.Entry{ID: i, Titulo: "HQ", Autor: "A", Ano: 2000, Status: catalog.StatusAvailable})
	}
	page := catalogPage(items, 2, 12)

	var buf bytes.Buffer
	require.NoError(t, r.Fragment(&buf, "catalog", "results", page.Results))
	out := buf.String()

	assert.NotContains(t, out, "<html")
	assert.Equal(t, 12, strings.Count(out, `<article class="card`))
	assert.Contains(t, out, `href="/catalogo?busca=bat&amp;pagina=1"`)
	assert.Contains(t, out, `href="/catalogo?busca=bat&amp;pagina=3"`)
	assert.Contains(t, out, `<span class="page-current" aria-current="page">2</span>`)
	assert.Contains(t, out, "Mostrando 13–24 de 30 HQs")
}

func TestRender_Modal(t *testing.T) {
	r := newRenderer(t)
	page := catalogPage(entries(), 1, 12)
	page.Modal = &Modal{
		Title:       "Adicionar Novo Livro",
		SubmitLabel: "Salvar Livro",
		Action:      "/livros",
		Values:      form.Values{Titulo: "ab", Ano: "1850"},
		Errors:      map[string]string{"titulo": "Título deve ter entre 3 e 90 caracteres"},
		CurrentYear: 2025,
		MinYear:     form.MinYear,
		Return:      "busca=bat",
		Close:       "/catalogo?busca=bat",
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "catalog", page))
	out := buf.String()

	assert.Contains(t, out, `role="dialog"`)
	assert.Contains(t, out, "Adicionar Novo Livro")
	assert.Contains(t, out, "Título deve ter entre 3 e 90 caracteres")
	assert.Contains(t, out, `name="titulo" value="ab"`)
	assert.Contains(t, out, `min="1900" max="2025"`)
	assert.Contains(t, out, `data-close="/catalogo?busca=bat"`)
	assert.Contains(t, out, ">Salvar Livro</button>")
}

func TestRender_Confirm(t *testing.T) {
	r := newRenderer(t)
	page := catalogPage(entries(), 1, 12)
	e := entries()[0]
	page.Confirm = &e

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "catalog", page))

	assert.Contains(t, buf.String(), `role="alertdialog"`)
	assert.Contains(t, buf.String(), `action="/livros/1/excluir"`)
	assert.Contains(t, buf.String(), "Tem certeza que deseja excluir")
}

func TestRender_DashboardWithToastsOffline(t *testing.T) {
	r := newRenderer(t)
	q := notify.NewQueue(5 * time.Second)
	q.Push(notify.Warning, "Conectando em modo offline com dados de exemplo")

	data := DashboardPage{
		Layout: Layout{Title: "Início", Nav: "home", Theme: prefs.ThemeDark, Offline: true, Toasts: q.Drain()},
		Stats:  catalog.ComputeStats(entries()),
		Recent: entries(),
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "dashboard", data))
	out := buf.String()

	assert.Contains(t, out, `data-theme="dark"`)
	assert.Contains(t, out, "Modo offline")
	assert.Contains(t, out, `data-ttl="5000"`)
	assert.Contains(t, out, "Atenção")
	assert.Contains(t, out, "Tema claro")
}

func TestRender_Reports(t *testing.T) {
	r := newRenderer(t)
	stats := catalog.ComputeStats(entries())
	data := ReportsPage{
		Layout:     Layout{Title: "Relatórios", Nav: "reports"},
		Stats:      stats,
		Publishers: stats.Publishers(),
		Colors:     prefs.Colors{"primary": "#112233"},
		ColorKeys:  prefs.ColorKeys,
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "reports", data))
	out := buf.String()

	assert.Contains(t, out, "DC Comics")
	assert.Contains(t, out, "Sem editora")
	assert.Contains(t, out, `value="50"`)
	assert.Contains(t, out, `name="primary" value="#112233"`)
	assert.Contains(t, out, `name="accent" value="#f59e0b"`)
	assert.Contains(t, out, `href="/exportar.csv"`)
}

func TestRender_UnknownPage(t *testing.T) {
	assert.Error(t, newRenderer(t).Render(&bytes.Buffer{}, "nope", nil))
}

func TestCoverURL(t *testing.T) {
	assert.Equal(t, PlaceholderCover, CoverURL(catalog.Entry{}))
	assert.Equal(t, PlaceholderCover, CoverURL(catalog.Entry{CapaURL: "capa.jpg"}))
	assert.Equal(t, "http://x.io/c.png", CoverURL(catalog.Entry{CapaURL: "http://x.io/c.png"}))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "abc…", Excerpt("abcdef", 3))
	assert.Equal(t, "abc", Excerpt("abc", 3))
	assert.Equal(t, "", FormatDate(nil))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 0, Percent(1, 0))
	assert.Equal(t, "/catalogo", Href("/catalogo", nil))

	q := url.Values{"pagina": {"2"}, "busca": {"x"}}
	assert.Equal(t, "/catalogo?busca=x&pagina=5", PageHref(q, 5))
	assert.Equal(t, "2", q.Get("pagina"), "PageHref must not modify its input")
	assert.Equal(t, url.Values{"busca": {"x"}}, WithParam(q, "pagina", ""))
}

func TestWriteThemeCSS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteThemeCSS(&buf, prefs.Colors{"accent": "#ff0000", "primary": "#000000"}))

	out := buf.String()
	assert.Contains(t, out, "--color-primary: #000000;")
	assert.Contains(t, out, "--color-accent: #ff0000;")
	assert.Less(t, strings.Index(out, "primary"), strings.Index(out, "accent"))
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"app.js", "style.css"} {
		data, err := fs.ReadFile(Static(), name)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}
