// Package shell implements the terminal client of the catalog.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/export"
	"hqcatalog/internal/notify"
	"hqcatalog/internal/prefs"
	"hqcatalog/internal/usecase"

	"github.com/schollz/progressbar/v3"
)

// ErrUsage is returned for malformed commands.
var ErrUsage = errors.New("uso inválido")

// Commands lists every command name, in help order.
var Commands = []string{
	"list", "page", "sort", "status", "editora", "genero", "ano", "clear",
	"show", "toggle", "stats", "health", "export", "theme", "help", "exit",
}

const helpText = `Comandos:
  list [termo]              lista o catálogo, opcionalmente buscando por termo
  page N                    vai para a página N
  sort campo-direcao        ordena (ex.: titulo-asc, ano-desc)
  status [valor]            filtra por disponível ou emprestado
  editora [valor]           filtra por editora
  genero [valor]            filtra por gênero
  ano [valor]               filtra por ano
  clear                     limpa os filtros
  show ID                   mostra os detalhes de uma HQ
  toggle ID                 empresta ou devolve uma HQ
  stats                     mostra as estatísticas
  health                    verifica o backend
  export csv|json [arquivo] exporta o acervo
  theme                     alterna o tema claro/escuro
  help                      mostra esta ajuda
  exit                      sai
`

// Offliner reports whether the backend client is serving sample data.
type Offliner interface {
	Offline() bool
}

type Options struct {
	Out io.Writer
	// ProgressOut receives export progress bars; nil disables them.
	ProgressOut io.Writer
	PageSize    int
	ToastTTL    time.Duration
}

// Shell keeps the browsing state of one terminal session.
type Shell struct {
	catalog *usecase.CatalogUsecase
	status  Offliner
	prefs   *prefs.Store
	opts    Options

	current prefs.Prefs
	page    int
	loaded  []catalog.Entry
}

func New(uc *usecase.CatalogUsecase, status Offliner, store *prefs.Store, opts Options) *Shell {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = catalog.DefaultPageSize
	}
	current := prefs.Defaults()
	current.Filters.Sort = current.Sort
	return &Shell{
		catalog: uc,
		status:  status,
		prefs:   store,
		opts:    opts,
		current: current,
		page:    1,
	}
}

// Restore loads the saved theme, sort order and filters.
func (s *Shell) Restore(ctx context.Context) {
	s.current = s.prefs.Restore(ctx)
}

// Filter returns the active filter.
func (s *Shell) Filter() catalog.Filter { return s.current.Filters }

// Prompt is the interactive prompt, flagged while offline.
func (s *Shell) Prompt() string {
	if s.status != nil && s.status.Offline() {
		return "hq [offline]> "
	}
	return "hq> "
}

// Complete suggests command names for line.
func (s *Shell) Complete(line string) []string {
	var out []string
	for _, c := range Commands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}
	return out
}

// Exec runs one command line. quit is true after exit.
func (s *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	q := notify.NewQueue(s.opts.ToastTTL)
	ctx = notify.WithQueue(ctx, q)
	defer s.printToasts(q)

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.Join(args, " ")

	switch cmd {
	case "list", "ls":
		s.current.Filters.Search = rest
		s.page = 1
		return false, s.refilter(ctx)
	case "page":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return false, fmt.Errorf("%w: page N", ErrUsage)
		}
		return false, s.listPage(ctx, n)
	case "sort":
		if rest == "" {
			return false, fmt.Errorf("%w: sort campo-direcao", ErrUsage)
		}
		s.current.Filters.Sort = catalog.ParseSort(rest)
		return false, s.refilter(ctx)
	case "status":
		st, ok := catalog.ParseStatus(rest)
		if rest != "" && !ok {
			return false, fmt.Errorf("%w: status disponível|emprestado", ErrUsage)
		}
		s.current.Filters.Status = st
		s.page = 1
		return false, s.refilter(ctx)
	case "editora":
		s.current.Filters.Editora = rest
		s.page = 1
		return false, s.refilter(ctx)
	case "genero":
		s.current.Filters.Genero = rest
		s.page = 1
		return false, s.refilter(ctx)
	case "ano":
		s.current.Filters.Ano = catalog.ParseYear(rest)
		s.page = 1
		return false, s.refilter(ctx)
	case "clear":
		if err := s.prefs.ClearFilters(ctx); err != nil {
			return false, err
		}
		s.current.Filters = catalog.Filter{Sort: catalog.DefaultSort}
		s.page = 1
		return false, s.list(ctx)
	case "show":
		return false, s.show(ctx, rest)
	case "toggle":
		return false, s.toggle(ctx, rest)
	case "stats":
		return false, s.stats(ctx)
	case "health":
		return false, s.health(ctx)
	case "export":
		return false, s.export(ctx, args)
	case "theme":
		t, err := s.prefs.ToggleTheme(ctx, s.current.Theme)
		if err != nil {
			return false, err
		}
		s.current.Theme = t
		notify.Push(ctx, notify.Info, "Tema "+t.Label()+" ativado")
		return false, nil
	case "help", "?":
		_, err := io.WriteString(s.opts.Out, helpText)
		return false, err
	case "exit", "quit":
		return true, nil
	}
	return false, fmt.Errorf("%w: comando desconhecido %q, digite help", ErrUsage, cmd)
}

func (s *Shell) printToasts(q *notify.Queue) {
	for _, t := range q.Drain() {
		fmt.Fprintf(s.opts.Out, "[%s] %s\n", t.Title, t.Message)
	}
}

// refilter saves the filter set and lists the results.
func (s *Shell) refilter(ctx context.Context) error {
	if err := s.prefs.SaveFilters(ctx, s.current.Filters); err != nil {
		return fmt.Errorf("save filters: %w", err)
	}
	return s.list(ctx)
}

func (s *Shell) list(ctx context.Context) error {
	return s.listPage(ctx, s.page)
}

// listPage prints the requested page, or the current one again when the
// request is out of range.
func (s *Shell) listPage(ctx context.Context, requested int) error {
	all, err := s.catalog.All(ctx)
	if err != nil {
		return err
	}
	s.loaded = all

	v := usecase.Navigate(all, s.current.Filters, s.page, requested, s.opts.PageSize)
	s.page = v.Page.Number
	if v.Page.Total == 0 {
		_, err := fmt.Fprintln(s.opts.Out, "Nenhum livro encontrado")
		return err
	}

	fmt.Fprintf(s.opts.Out, "Mostrando %d–%d de %d HQs (página %d/%d)\n",
		v.Page.From(), v.Page.To(), v.Page.Total, v.Page.Number, v.Page.TotalPages)
	tw := tabwriter.NewWriter(s.opts.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTÍTULO\tAUTOR\tANO\tEDITORA\tSTATUS")
	for _, e := range v.Page.Items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n", e.ID, e.Titulo, e.Autor, e.Ano, e.Editora, e.Status.Label())
	}
	return tw.Flush()
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: informe um ID numérico", ErrUsage)
	}
	return id, nil
}

func (s *Shell) show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	e, err := s.catalog.Lookup(ctx, id, s.loaded)
	if errors.Is(err, catalog.ErrNotFound) {
		notify.Push(ctx, notify.Error, "Livro não encontrado")
		return nil
	}
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(s.opts.Out, 0, 4, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", label, value)
		}
	}
	row("ID", strconv.Itoa(e.ID))
	row("Título", e.Titulo)
	row("Autor", e.Autor)
	row("Ano", strconv.Itoa(e.Ano))
	row("Gênero", e.Genero)
	row("Editora", e.Editora)
	if e.NumeroEdicao != nil {
		row("Edição", strconv.Itoa(*e.NumeroEdicao))
	}
	row("ISBN", e.ISBN)
	row("Status", e.Status.Label())
	if e.DataEmprestimo != nil {
		row("Emprestado em", e.DataEmprestimo.Format("02/01/2006"))
	}
	row("Capa", e.CapaURL)
	row("Descrição", e.Descricao)
	return tw.Flush()
}

func (s *Shell) toggle(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	res, err := s.catalog.ToggleLoan(ctx, id, s.loaded)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		notify.Push(ctx, notify.Error, "Livro não encontrado")
		return nil
	case err != nil:
		notify.Push(ctx, notify.Error, "Erro ao alterar status do livro")
		return err
	}
	for i := range s.loaded {
		if s.loaded[i].ID == res.Entry.ID {
			s.loaded[i] = res.Entry
		}
	}
	level := notify.Success
	if res.Offline {
		level = notify.Warning
	}
	notify.Push(ctx, level, res.Message())
	return nil
}

func (s *Shell) stats(ctx context.Context) error {
	st, err := s.catalog.Stats(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(s.opts.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total:\t%d\n", st.TotalLivros)
	fmt.Fprintf(tw, "Disponíveis:\t%d\n", st.LivrosDisponiveis)
	fmt.Fprintf(tw, "Emprestados:\t%d\n", st.LivrosEmprestados)
	for _, p := range st.Publishers() {
		fmt.Fprintf(tw, "  %s\t%d\n", p.Editora, p.Total)
	}
	return tw.Flush()
}

func (s *Shell) health(ctx context.Context) error {
	h, err := s.catalog.Health(ctx)
	if err != nil {
		return err
	}
	msg := h.Status
	if h.Message != "" {
		msg += " (" + h.Message + ")"
	}
	_, err = fmt.Fprintln(s.opts.Out, "Backend:", msg)
	return err
}

func (s *Shell) export(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("%w: export csv|json [arquivo]", ErrUsage)
	}
	f, err := export.ParseFormat(args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	path := f.Filename()
	if len(args) == 2 {
		path = args[1]
	}

	if err := s.writeExport(ctx, f, path); err != nil {
		notify.Push(ctx, notify.Error, f.FailureMessage())
		return err
	}
	notify.Push(ctx, notify.Success, f.SuccessMessage())
	_, err = fmt.Fprintln(s.opts.Out, "Arquivo:", path)
	return err
}

func (s *Shell) writeExport(ctx context.Context, f export.Format, path string) error {
	all, err := s.catalog.All(ctx)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	var p export.Progress
	if s.opts.ProgressOut != nil {
		p = progressbar.NewOptions(len(all),
			progressbar.OptionSetWriter(s.opts.ProgressOut),
			progressbar.OptionSetDescription("Exportando "+strings.ToUpper(string(f))),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}
	if err := export.Write(out, f, all, p); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
