package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"hqcatalog/internal/catalog"
)

// Health is the backend health payload.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// MockStore is the sample dataset served while the backend is unreachable.
// Loan toggles made offline mutate it in memory only.
type MockStore struct {
	mu      sync.RWMutex
	entries []catalog.Entry
}

func NewMockStore(entries []catalog.Entry) *MockStore {
	cp := make([]catalog.Entry, len(entries))
	copy(cp, entries)
	return &MockStore{entries: cp}
}

// List returns a copy of the dataset.
func (m *MockStore) List() []catalog.Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get returns the entry with id.
func (m *MockStore) Get(id int) (catalog.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return catalog.Entry{}, catalog.ErrNotFound
}

// Toggle flips the loan state of id in the dataset and returns the new entry.
func (m *MockStore) Toggle(id int, now time.Time) (catalog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.ID == id {
			m.entries[i] = catalog.Toggle(e, now)
			return m.entries[i], nil
		}
	}
	return catalog.Entry{}, catalog.ErrNotFound
}

// Stats computes statistics over the dataset.
func (m *MockStore) Stats() catalog.Stats {
	return catalog.ComputeStats(m.List())
}

// Serve answers a read request the way the backend would. ok is false for
// endpoints the dataset does not cover.
func (m *MockStore) Serve(endpoint string) (body any, ok bool, err error) {
	path, _, _ := strings.Cut(endpoint, "?")
	path = strings.TrimSuffix(path, "/")

	switch {
	case path == "/livros":
		return m.List(), true, nil
	case strings.HasPrefix(path, "/livros/"):
		rest := strings.TrimPrefix(path, "/livros/")
		id, convErr := strconv.Atoi(rest)
		if convErr != nil {
			return nil, false, nil
		}
		e, getErr := m.Get(id)
		if getErr != nil {
			return nil, true, &StatusError{StatusCode: http.StatusNotFound, Message: "Livro não encontrado"}
		}
		return e, true, nil
	case path == "/estatisticas":
		return m.Stats(), true, nil
	case path == "/health":
		return Health{Status: "mock", Message: "Usando dados mock"}, true, nil
	}
	return nil, false, nil
}

const placeholderCover = "https://via.placeholder.com/300x400/%s/FFFFFF?text=%s"

func intPtr(n int) *int { return &n }

func loanDate(s string) *time.Time {
	t, err := catalog.ParseTimestamp(s)
	if err != nil {
		return nil
	}
	return &t
}

// SampleEntries is the built-in offline dataset.
func SampleEntries() []catalog.Entry {
	return []catalog.Entry{
		{
			ID:           1,
			Titulo:       "Homem-Aranha: A Grande Responsabilidade",
			Autor:        "Stan Lee, Steve Ditko",
			Ano:          2023,
			Genero:       "Super-Herói",
			Editora:      "Marvel",
			NumeroEdicao: intPtr(1),
			ISBN:         "978-0-12345-001-1",
			Status:       catalog.StatusAvailable,
			Descricao:    "A origem clássica do amigão da vizinhança e a lição que define o herói.",
			CapaURL:      fmt.Sprintf(placeholderCover, "DC143C", "Spider-Man"),
		},
		{
			ID:             2,
			Titulo:         "X-Men: Fênix Negra - Saga Completa",
			Autor:          "Chris Claremont, John Byrne",
			Ano:            2022,
			Genero:         "Super-Herói",
			Editora:        "Marvel",
			NumeroEdicao:   intPtr(2),
			ISBN:           "978-0-12345-002-8",
			Status:         catalog.StatusBorrowed,
			DataEmprestimo: loanDate("2025-09-05T00:00:00"),
			Descricao:      "A saga que transformou Jean Grey na entidade cósmica mais temida do universo Marvel.",
			CapaURL:        fmt.Sprintf(placeholderCover, "FFD700", "X-Men"),
		},
		{
			ID:           3,
			Titulo:       "Batman: Ano Um",
			Autor:        "Frank Miller, David Mazzucchelli",
			Ano:          2023,
			Genero:       "Crime",
			Editora:      "DC",
			NumeroEdicao: intPtr(1),
			ISBN:         "978-0-12345-003-5",
			Status:       catalog.StatusAvailable,
			Descricao:    "O primeiro ano de Bruce Wayne como vigilante em uma Gotham corrupta.",
			CapaURL:      fmt.Sprintf(placeholderCover, "2F4F4F", "Batman"),
		},
		{
			ID:           4,
			Titulo:       "The Walking Dead: Compendium Vol. 1",
			Autor:        "Robert Kirkman, Tony Moore",
			Ano:          2023,
			Genero:       "Horror",
			Editora:      "Image",
			NumeroEdicao: intPtr(1),
			ISBN:         "978-0-12345-004-2",
			Status:       catalog.StatusAvailable,
			Descricao:    "Rick Grimes tenta sobreviver em um mundo tomado por mortos-vivos.",
			CapaURL:      fmt.Sprintf(placeholderCover, "8B0000", "Walking+Dead"),
		},
		{
			ID:             5,
			Titulo:         "Superman: Todas as Estrelas",
			Autor:          "Grant Morrison, Frank Quitely",
			Ano:            2022,
			Genero:         "Super-Herói",
			Editora:        "DC",
			NumeroEdicao:   intPtr(3),
			ISBN:           "978-0-12345-005-9",
			Status:         catalog.StatusBorrowed,
			DataEmprestimo: loanDate("2025-09-08T00:00:00"),
			Descricao:      "Os últimos dias do Homem de Aço, contados como uma celebração do personagem.",
			CapaURL:        fmt.Sprintf(placeholderCover, "4169E1", "Superman"),
		},
		{
			ID:           6,
			Titulo:       "Saga Vol. 1",
			Autor:        "Brian K. Vaughan, Fiona Staples",
			Ano:          2023,
			Genero:       "Ficção Científica",
			Editora:      "Image",
			NumeroEdicao: intPtr(1),
			ISBN:         "978-0-12345-006-6",
			Status:       catalog.StatusAvailable,
			Descricao:    "Uma épica space opera sobre amor e família.",
			CapaURL:      fmt.Sprintf(placeholderCover, "9932CC", "Saga"),
		},
	}
}
