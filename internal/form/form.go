package form

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"hqcatalog/internal/catalog"
)

// Mode is the state of the HQ modal.
type Mode int

const (
	Closed Mode = iota
	Creating
	Editing
)

func (m Mode) String() string {
	switch m {
	case Creating:
		return "create"
	case Editing:
		return "edit"
	}
	return "closed"
}

// DuplicateTitleMessage is reported when another entry already uses the title.
const DuplicateTitleMessage = "Título já existe"

// ErrClosed is returned when submitting a form that is not open.
var ErrClosed = errors.New("form is not open")

// Values holds the raw field values as typed by the user.
type Values struct {
	Titulo       string
	Autor        string
	Ano          string
	Genero       string
	Editora      string
	NumeroEdicao string
	ISBN         string
	CapaURL      string
	Descricao    string
}

// Get returns a field by its wire name.
func (v Values) Get(field string) string {
	switch field {
	case "titulo":
		return v.Titulo
	case "autor":
		return v.Autor
	case "ano":
		return v.Ano
	case "genero":
		return v.Genero
	case "editora":
		return v.Editora
	case "numero_edicao":
		return v.NumeroEdicao
	case "isbn":
		return v.ISBN
	case "capa_url":
		return v.CapaURL
	case "descricao":
		return v.Descricao
	}
	return ""
}

// ValuesFromGetter reads the form fields through get, e.g. url.Values.Get.
func ValuesFromGetter(get func(string) string) Values {
	return Values{
		Titulo:       get("titulo"),
		Autor:        get("autor"),
		Ano:          get("ano"),
		Genero:       get("genero"),
		Editora:      get("editora"),
		NumeroEdicao: get("numero_edicao"),
		ISBN:         get("isbn"),
		CapaURL:      get("capa_url"),
		Descricao:    get("descricao"),
	}
}

// ValuesFromEntry fills the form from e, leaving absent values blank.
func ValuesFromEntry(e catalog.Entry) Values {
	v := Values{
		Titulo:    e.Titulo,
		Autor:     e.Autor,
		Genero:    e.Genero,
		Editora:   e.Editora,
		ISBN:      e.ISBN,
		CapaURL:   e.CapaURL,
		Descricao: e.Descricao,
	}
	if e.Ano != 0 {
		v.Ano = strconv.Itoa(e.Ano)
	}
	if e.NumeroEdicao != nil {
		v.NumeroEdicao = strconv.Itoa(*e.NumeroEdicao)
	}
	return v
}

// Input trims the raw values and converts numbers. Unparseable numbers become zero
// so that validation reports them.
func (v Values) Input() Input {
	in := Input{
		Titulo:    strings.TrimSpace(v.Titulo),
		Autor:     strings.TrimSpace(v.Autor),
		Genero:    strings.TrimSpace(v.Genero),
		Editora:   strings.TrimSpace(v.Editora),
		ISBN:      strings.TrimSpace(v.ISBN),
		CapaURL:   strings.TrimSpace(v.CapaURL),
		Descricao: strings.TrimSpace(v.Descricao),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Ano)); err == nil {
		in.Ano = n
	}
	if s := strings.TrimSpace(v.NumeroEdicao); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			n = 0
		}
		in.NumeroEdicao = &n
	}
	return in
}

// Entry converts validated input to a catalog entry.
func (in Input) Entry() catalog.Entry {
	return catalog.Entry{
		Titulo:       in.Titulo,
		Autor:        in.Autor,
		Ano:          in.Ano,
		Genero:       in.Genero,
		Editora:      in.Editora,
		NumeroEdicao: in.NumeroEdicao,
		ISBN:         in.ISBN,
		CapaURL:      in.CapaURL,
		Descricao:    in.Descricao,
	}
}

// Saver persists form results.
type Saver interface {
	Create(ctx context.Context, e catalog.Entry) (catalog.Entry, error)
	Update(ctx context.Context, id int, e catalog.Entry) (catalog.Entry, error)
}

// Controller drives the create/edit modal: open, validate, save, close.
type Controller struct {
	validator *Validator
	saver     Saver

	mode   Mode
	editID int
	values Values
	errors map[string]string
}

func NewController(v *Validator, saver Saver) *Controller {
	return &Controller{validator: v, saver: saver}
}

func (c *Controller) Mode() Mode                { return c.mode }
func (c *Controller) Open() bool                { return c.mode != Closed }
func (c *Controller) EditID() int               { return c.editID }
func (c *Controller) Values() Values            { return c.values }
func (c *Controller) Errors() map[string]string { return c.errors }

// Title is the modal heading for the current mode.
func (c *Controller) Title() string {
	if c.mode == Editing {
		return "Editar Livro"
	}
	return "Adicionar Novo Livro"
}

// SubmitLabel is the caption of the save button.
func (c *Controller) SubmitLabel() string {
	if c.mode == Editing {
		return "Atualizar Livro"
	}
	return "Salvar Livro"
}

// OpenCreate opens an empty form.
func (c *Controller) OpenCreate() {
	c.mode = Creating
	c.editID = 0
	c.values = Values{}
	c.errors = nil
}

// OpenEdit opens the form populated from e.
func (c *Controller) OpenEdit(e catalog.Entry) {
	c.mode = Editing
	c.editID = e.ID
	c.values = ValuesFromEntry(e)
	c.errors = nil
}

// Close discards the form without saving.
func (c *Controller) Close() {
	c.mode = Closed
	c.editID = 0
	c.values = Values{}
	c.errors = nil
}

// Validate checks values against the field rules and the titles of existing
// entries. The entry being edited does not count as a duplicate of itself.
func (c *Controller) Validate(values Values, existing []catalog.Entry) (Input, ValidationErrors) {
	in := values.Input()
	errs := c.validator.ValidateStruct(in)
	if _, bad := errs.ByField()["titulo"]; !bad && titleTaken(in.Titulo, c.editID, existing) {
		errs = append(errs, ValidationError{Field: "titulo", Message: DuplicateTitleMessage})
	}
	return in, errs
}

// Submit validates values and, when valid, creates or updates the entry and
// closes the form. On validation failure the form stays open with per-field
// messages and nothing is saved.
func (c *Controller) Submit(ctx context.Context, values Values, existing []catalog.Entry) (catalog.Entry, error) {
	if c.mode == Closed {
		return catalog.Entry{}, ErrClosed
	}
	c.values = values
	in, errs := c.Validate(values, existing)
	if len(errs) > 0 {
		c.errors = errs.ByField()
		return catalog.Entry{}, errs
	}
	c.errors = nil

	var (
		saved catalog.Entry
		err   error
	)
	if c.mode == Editing {
		saved, err = c.saver.Update(ctx, c.editID, in.Entry())
	} else {
		saved, err = c.saver.Create(ctx, in.Entry())
	}
	if err != nil {
		return catalog.Entry{}, err
	}
	c.Close()
	return saved, nil
}

// SuccessMessage is the toast text after a successful submit in mode m.
func SuccessMessage(m Mode) string {
	if m == Editing {
		return "Livro atualizado com sucesso!"
	}
	return "Livro adicionado com sucesso!"
}

func titleTaken(title string, selfID int, existing []catalog.Entry) bool {
	for _, e := range existing {
		if e.ID != selfID && strings.EqualFold(strings.TrimSpace(e.Titulo), title) {
			return true
		}
	}
	return false
}
