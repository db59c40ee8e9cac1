package form

import (
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 9, 10, 12, 0, 0, 0, time.UTC)
}

func validInput() Input {
	return Input{
		Titulo: "Batman: Ano Um",
		Autor:  "Frank Miller",
		Ano:    2023,
	}
}

func TestValidateStruct_ValidInput(t *testing.T) {
	v := NewValidator(fixedClock)
	edition := 3
	in := validInput()
	in.NumeroEdicao = &edition
	in.ISBN = "978-0-12345-001-1"
	in.CapaURL = "https://example.com/capa.jpg"

	errors := v.ValidateStruct(in)
	if len(errors) != 0 {
		t.Errorf("Expected no validation errors, got %v", errors)
	}
}

func TestValidateStruct_RequiredFields(t *testing.T) {
	v := NewValidator(fixedClock)

	errors := v.ValidateStruct(Input{}).ByField()
	for _, field := range []string{"titulo", "autor", "ano"} {
		if _, ok := errors[field]; !ok {
			t.Errorf("Expected %s error, got %v", field, errors)
		}
	}
	if len(errors) != 3 {
		t.Errorf("Expected only required-field errors, got %v", errors)
	}
}

func TestValidateStruct_TitleLength(t *testing.T) {
	testCases := []struct {
		title string
		valid bool
	}{
		{"ab", false},
		{"abc", true},
		{strings.Repeat("a", 90), true},
		{strings.Repeat("a", 91), false},
		{"Fênix", true},
		{strings.Repeat("ê", 90), true},
		{strings.Repeat("ê", 91), false},
		{"ãé", false},
		{"Açú", true},
	}

	v := NewValidator(fixedClock)
	for _, tc := range testCases {
		in := validInput()
		in.Titulo = tc.title

		msg, hasError := v.ValidateStruct(in).ByField()["titulo"]
		if tc.valid && hasError {
			t.Errorf("Title of %d runes should be valid but got error", len([]rune(tc.title)))
		}
		if !tc.valid && !hasError {
			t.Errorf("Title of %d runes should be invalid but no error", len([]rune(tc.title)))
		}
		if hasError && msg != "Título deve ter entre 3 e 90 caracteres" {
			t.Errorf("Unexpected title message %q", msg)
		}
	}
}

func TestValidateStruct_Year(t *testing.T) {
	testCases := []struct {
		year  int
		valid bool
	}{
		{1899, false},
		{1900, true},
		{2025, true},
		{2026, false},
		{0, false},
	}

	v := NewValidator(fixedClock)
	for _, tc := range testCases {
		in := validInput()
		in.Ano = tc.year

		msg, hasError := v.ValidateStruct(in).ByField()["ano"]
		if tc.valid && hasError {
			t.Errorf("Year %d should be valid but got error", tc.year)
		}
		if !tc.valid && !hasError {
			t.Errorf("Year %d should be invalid but no error", tc.year)
		}
		if hasError && msg != "Ano deve estar entre 1900 e 2025" {
			t.Errorf("Unexpected year message %q", msg)
		}
	}
}

func TestValidateStruct_OptionalFields(t *testing.T) {
	zero := 0
	testCases := []struct {
		name  string
		mut   func(*Input)
		field string
		msg   string
	}{
		{"long isbn", func(in *Input) { in.ISBN = strings.Repeat("9", 21) }, "isbn", "ISBN deve ter até 20 caracteres"},
		{"relative cover", func(in *Input) { in.CapaURL = "capa.jpg" }, "capa_url", "URL da capa deve ser válida"},
		{"long author", func(in *Input) { in.Autor = strings.Repeat("a", 101) }, "autor", "Autor é obrigatório e deve ter até 100 caracteres"},
		{"zero edition", func(in *Input) { in.NumeroEdicao = &zero }, "numero_edicao", "Número da edição deve ser maior que zero"},
		{"long publisher", func(in *Input) { in.Editora = strings.Repeat("e", 51) }, "editora", "Editora deve ter até 50 caracteres"},
	}

	v := NewValidator(fixedClock)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mut(&in)
			errors := v.ValidateStruct(in)
			if len(errors) != 1 {
				t.Fatalf("Expected exactly one error, got %v", errors)
			}
			if errors[0].Field != tc.field || errors[0].Message != tc.msg {
				t.Errorf("got %+v, want %s: %s", errors[0], tc.field, tc.msg)
			}
		})
	}
}

func TestIsValidURL(t *testing.T) {
	testCases := []struct {
		in    string
		valid bool
	}{
		{"https://via.placeholder.com/300x400", true},
		{"http://localhost:8000/capa.png", true},
		{"ftp://files.example.com/c.jpg", true},
		{"capa.jpg", false},
		{"//example.com/a.png", false},
		{"", false},
	}
	for _, tc := range testCases {
		if got := IsValidURL(tc.in); got != tc.valid {
			t.Errorf("IsValidURL(%q) = %v, want %v", tc.in, got, tc.valid)
		}
	}
}
