package form

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinYear is the earliest accepted publication year.
const MinYear = 1900

// Input is the validated shape of the HQ form.
type Input struct {
	Titulo       string `json:"titulo" validate:"required,min=3,max=90"`
	Autor        string `json:"autor" validate:"required,max=100"`
	Ano          int    `json:"ano" validate:"required,gte=1900,not_future_year"`
	Genero       string `json:"genero" validate:"omitempty,max=50"`
	Editora      string `json:"editora" validate:"omitempty,max=50"`
	NumeroEdicao *int   `json:"numero_edicao" validate:"omitempty,gte=1"`
	ISBN         string `json:"isbn" validate:"omitempty,max=20"`
	CapaURL      string `json:"capa_url" validate:"omitempty,cover_url"`
	Descricao    string `json:"descricao"`
}

// Validator checks form input. The clock decides the publication-year ceiling.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	_ = v.validate.RegisterValidation("not_future_year", v.validateNotFutureYear)
	_ = v.validate.RegisterValidation("cover_url", validateCoverURL)
	return v
}

func (v *Validator) validateNotFutureYear(fl validator.FieldLevel) bool {
	return fl.Field().Int() <= int64(v.now().Year())
}

func validateCoverURL(fl validator.FieldLevel) bool {
	return IsValidURL(fl.Field().String())
}

// IsValidURL reports whether s is an absolute URL with a scheme and host.
func IsValidURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// CurrentYear is the latest accepted publication year.
func (v *Validator) CurrentYear() int {
	return v.now().Year()
}

// ValidationError is a message bound to one form field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is returned when form input is rejected. No request is made.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ByField indexes messages by field name, first message wins.
func (ve ValidationErrors) ByField() map[string]string {
	out := make(map[string]string, len(ve))
	for _, e := range ve {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// ValidateStruct validates in and returns one message per failing field.
func (v *Validator) ValidateStruct(in Input) ValidationErrors {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "form", Message: err.Error()}}
	}

	var out ValidationErrors
	seen := map[string]bool{}
	for _, fe := range verrs {
		field := fe.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		out = append(out, ValidationError{Field: field, Message: v.message(field, fe.Tag())})
	}
	return out
}

func (v *Validator) message(field, tag string) string {
	switch field {
	case "titulo":
		return "Título deve ter entre 3 e 90 caracteres"
	case "autor":
		return "Autor é obrigatório e deve ter até 100 caracteres"
	case "ano":
		return fmt.Sprintf("Ano deve estar entre %d e %d", MinYear, v.CurrentYear())
	case "isbn":
		return "ISBN deve ter até 20 caracteres"
	case "capa_url":
		return "URL da capa deve ser válida"
	case "genero":
		return "Gênero deve ter até 50 caracteres"
	case "editora":
		return "Editora deve ter até 50 caracteres"
	case "numero_edicao":
		return "Número da edição deve ser maior que zero"
	}
	return fmt.Sprintf("%s inválido (%s)", field, tag)
}
