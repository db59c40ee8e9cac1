package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hqcatalog/internal/catalog"
)

// maxListPages bounds the paging walk in List.
const maxListPages = 1000

type envelope struct {
	Items   []catalog.Entry `json:"items"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// decodeList accepts both a bare array and an {items,total} envelope.
// total is -1 when the response carries no total.
func decodeList(raw json.RawMessage) (items []catalog.Entry, total int, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, 0, fmt.Errorf("decode list: %w", err)
		}
		return items, -1, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, 0, fmt.Errorf("decode list envelope: %w", err)
	}
	return env.Items, env.Total, nil
}

// List fetches the whole catalog, walking the backend's pages.
func (c *Client) List(ctx context.Context) ([]catalog.Entry, error) {
	var (
		all  []catalog.Entry
		seen = map[int]bool{}
	)
	for page := 1; page <= maxListPages; page++ {
		q := url.Values{}
		if c.cfg.ListShape == ShapeEnvelope {
			q.Set("page", strconv.Itoa(page))
			q.Set("per_page", strconv.Itoa(c.cfg.PerPage))
		} else {
			q.Set("limit", strconv.Itoa(c.cfg.PerPage))
			q.Set("offset", strconv.Itoa((page-1)*c.cfg.PerPage))
		}

		var raw json.RawMessage
		if err := c.Do(ctx, http.MethodGet, "/livros?"+q.Encode(), nil, &raw); err != nil {
			return nil, err
		}
		items, total, err := decodeList(raw)
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, e := range items {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			all = append(all, e)
			fresh++
		}

		switch {
		case fresh == 0:
			return all, nil
		case total >= 0 && len(all) >= total:
			return all, nil
		case total < 0 && len(items) < c.cfg.PerPage:
			return all, nil
		}
	}
	return all, nil
}

// Get fetches one entry.
func (c *Client) Get(ctx context.Context, id int) (catalog.Entry, error) {
	var e catalog.Entry
	if err := c.Do(ctx, http.MethodGet, fmt.Sprintf("/livros/%d", id), nil, &e); err != nil {
		if IsNotFound(err) {
			return catalog.Entry{}, fmt.Errorf("%w: %w", catalog.ErrNotFound, err)
		}
		return catalog.Entry{}, err
	}
	return e, nil
}

// Create stores a new entry and returns it with its backend id.
func (c *Client) Create(ctx context.Context, e catalog.Entry) (catalog.Entry, error) {
	var out catalog.Entry
	if err := c.Do(ctx, http.MethodPost, "/livros", c.payload(e), &out); err != nil {
		return catalog.Entry{}, err
	}
	return out, nil
}

// Update replaces the editable fields of entry id.
func (c *Client) Update(ctx context.Context, id int, e catalog.Entry) (catalog.Entry, error) {
	var out catalog.Entry
	if err := c.Do(ctx, http.MethodPut, fmt.Sprintf("/livros/%d", id), c.payload(e), &out); err != nil {
		return catalog.Entry{}, err
	}
	return out, nil
}

// Delete removes entry id.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/livros/%d", id), nil, nil)
}

// Borrow marks entry id as lent.
func (c *Client) Borrow(ctx context.Context, id int) (catalog.Entry, error) {
	return c.loan(ctx, fmt.Sprintf("/livros/%d/emprestar", id))
}

// Return marks entry id as available again.
func (c *Client) Return(ctx context.Context, id int) (catalog.Entry, error) {
	return c.loan(ctx, fmt.Sprintf("/livros/%d/devolver", id))
}

// loan posts a loan transition. Backends answer either {message, livro} or
// the entry itself.
func (c *Client) loan(ctx context.Context, endpoint string) (catalog.Entry, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodPost, endpoint, nil, &raw); err != nil {
		return catalog.Entry{}, err
	}
	var wrapped struct {
		Livro *catalog.Entry `json:"livro"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Livro != nil {
		return *wrapped.Livro, nil
	}
	var e catalog.Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return catalog.Entry{}, fmt.Errorf("decode loan response: %w", err)
	}
	return e, nil
}

// Stats fetches catalog statistics.
func (c *Client) Stats(ctx context.Context) (catalog.Stats, error) {
	var s catalog.Stats
	if err := c.Do(ctx, http.MethodGet, "/estatisticas", nil, &s); err != nil {
		return catalog.Stats{}, err
	}
	if s.PorEditora == nil {
		s.PorEditora = map[string]int{}
	}
	return s, nil
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return Health{}, err
	}
	return h, nil
}

// payload builds the request body for create and update. Empty optional
// fields are left out.
func (c *Client) payload(e catalog.Entry) map[string]any {
	p := map[string]any{
		"titulo": e.Titulo,
		"autor":  e.Autor,
		"ano":    e.Ano,
	}
	optional := map[string]string{
		"genero":         e.Genero,
		"editora":        e.Editora,
		"isbn":           e.ISBN,
		"descricao":      e.Descricao,
		c.cfg.CoverField: e.CapaURL,
	}
	for k, v := range optional {
		if v != "" {
			p[k] = v
		}
	}
	if e.NumeroEdicao != nil {
		p["numero_edicao"] = *e.NumeroEdicao
	}
	return p
}
