package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when an entry is not in the catalog.
var ErrNotFound = errors.New("hq not found")

// Status is the loan state of an entry.
type Status string

const (
	StatusAvailable Status = "disponível"
	StatusBorrowed  Status = "emprestado"
)

// ParseStatus accepts the canonical labels and the variants different backends emit.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "disponível", "disponivel", "available":
		return StatusAvailable, true
	case "emprestado", "borrowed":
		return StatusBorrowed, true
	}
	return "", false
}

// Label is the capitalized form shown on cards.
func (s Status) Label() string {
	switch s {
	case StatusAvailable:
		return "Disponível"
	case StatusBorrowed:
		return "Emprestado"
	}
	return string(s)
}

// Slug is safe for CSS class names.
func (s Status) Slug() string {
	if s == StatusBorrowed {
		return "emprestado"
	}
	return "disponivel"
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = StatusAvailable
		return nil
	}
	parsed, ok := ParseStatus(raw)
	if !ok {
		return fmt.Errorf("unknown status %q", raw)
	}
	*s = parsed
	return nil
}

// Entry is a single comic-book item (HQ) in the catalog.
type Entry struct {
	ID             int        `json:"id"`
	Titulo         string     `json:"titulo"`
	Autor          string     `json:"autor"`
	Ano            int        `json:"ano"`
	Genero         string     `json:"genero,omitempty"`
	Editora        string     `json:"editora,omitempty"`
	NumeroEdicao   *int       `json:"numero_edicao,omitempty"`
	ISBN           string     `json:"isbn,omitempty"`
	CapaURL        string     `json:"capa_url,omitempty"`
	Status         Status     `json:"status"`
	DataEmprestimo *time.Time `json:"data_emprestimo,omitempty"`
	Descricao      string     `json:"descricao,omitempty"`
}

// Layouts accepted for data_emprestimo. Backends emit naive ISO timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a loan timestamp in any of the layouts backends produce.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	aux := struct {
		*alias
		CoverURL       string  `json:"cover_url"`
		DataEmprestimo *string `json:"data_emprestimo"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.CapaURL == "" {
		e.CapaURL = aux.CoverURL
	}
	e.DataEmprestimo = nil
	if aux.DataEmprestimo != nil && *aux.DataEmprestimo != "" {
		t, err := ParseTimestamp(*aux.DataEmprestimo)
		if err != nil {
			return err
		}
		e.DataEmprestimo = &t
	}
	if e.Status == "" {
		e.Status = StatusAvailable
	}
	return nil
}

// Available reports whether the entry can be lent.
func (e Entry) Available() bool {
	return e.Status != StatusBorrowed
}

// Edition returns the edition number or zero.
func (e Entry) Edition() int {
	if e.NumeroEdicao == nil {
		return 0
	}
	return *e.NumeroEdicao
}

// Stats summarizes the catalog.
type Stats struct {
	TotalLivros       int            `json:"total_livros"`
	LivrosDisponiveis int            `json:"livros_disponiveis"`
	LivrosEmprestados int            `json:"livros_emprestados"`
	PorEditora        map[string]int `json:"por_editora"`
}

// PublisherCount is one row of the per-publisher breakdown.
type PublisherCount struct {
	Editora string
	Total   int
}

const unknownPublisher = "Sem editora"

// ComputeStats derives catalog statistics from a list of entries.
func ComputeStats(entries []Entry) Stats {
	s := Stats{PorEditora: make(map[string]int)}
	for _, e := range entries {
		s.TotalLivros++
		if e.Available() {
			s.LivrosDisponiveis++
		} else {
			s.LivrosEmprestados++
		}
		editora := strings.TrimSpace(e.Editora)
		if editora == "" {
			editora = unknownPublisher
		}
		s.PorEditora[editora]++
	}
	return s
}

// Publishers returns the breakdown ordered by count, then name.
func (s Stats) Publishers() []PublisherCount {
	out := make([]PublisherCount, 0, len(s.PorEditora))
	for name, n := range s.PorEditora {
		out = append(out, PublisherCount{Editora: name, Total: n})
	}
	sortPublishers(out)
	return out
}
