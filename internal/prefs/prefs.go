package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

const (
	KeyTheme   = "biblioteca_theme"
	KeySort    = "biblioteca_sort"
	KeyFilters = "biblioteca_filters"
	KeyColors  = "biblioteca_colors"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggled returns the other theme.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Label is the Portuguese name used in notifications.
func (t Theme) Label() string {
	if t == ThemeDark {
		return "escuro"
	}
	return "claro"
}

// ColorKeys are the overridable interface colors, in display order.
var ColorKeys = []string{"primary", "secondary", "accent", "background", "text"}

// Colors maps a color key to a #rrggbb value.
type Colors map[string]string

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ParseColors keeps the known keys whose values are valid hex colors.
// Empty values are dropped.
func ParseColors(get func(string) string) (Colors, error) {
	out := Colors{}
	for _, k := range ColorKeys {
		v := strings.TrimSpace(get(k))
		if v == "" {
			continue
		}
		if !hexColor.MatchString(v) {
			return nil, fmt.Errorf("cor inválida para %s: %q", k, v)
		}
		out[k] = strings.ToLower(v)
	}
	return out, nil
}

type Prefs struct {
	Theme   Theme
	Sort    catalog.Sort
	Filters catalog.Filter
	Colors  Colors
}

// Defaults are used for anything missing or unreadable in storage.
func Defaults() Prefs {
	return Prefs{
		Theme:  ThemeLight,
		Sort:   catalog.DefaultSort,
		Colors: Colors{},
	}
}

var schemas = map[string]*gojsonschema.Schema{
	KeyTheme: mustSchema(`{"type": "string", "enum": ["light", "dark"]}`),
	KeySort: mustSchema(`{
		"type": "string",
		"pattern": "^(titulo|autor|ano|editora|genero|id)-(asc|desc)$"
	}`),
	KeyFilters: mustSchema(`{
		"type": "object",
		"properties": {
			"search":  {"type": "string", "maxLength": 200},
			"status":  {"type": "string", "enum": ["disponível", "disponivel", "emprestado", "available", "borrowed"]},
			"editora": {"type": "string", "maxLength": 50},
			"genero":  {"type": "string", "maxLength": 50},
			"ano":     {"type": "integer", "minimum": 0}
		},
		"additionalProperties": false
	}`),
	KeyColors: mustSchema(`{
		"type": "object",
		"properties": {
			"primary":    {"$ref": "#/definitions/hex"},
			"secondary":  {"$ref": "#/definitions/hex"},
			"accent":     {"$ref": "#/definitions/hex"},
			"background": {"$ref": "#/definitions/hex"},
			"text":       {"$ref": "#/definitions/hex"}
		},
		"additionalProperties": false,
		"definitions": {
			"hex": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"}
		}
	}`),
}

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("prefs: invalid schema: %v", err))
	}
	return s
}

// Store reads and writes preferences through a Storage.
type Store struct {
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Restore loads every preference. Missing, malformed or invalid values fall
// back to defaults and are logged as warnings; Restore never fails.
func (s *Store) Restore(ctx context.Context) Prefs {
	p := Defaults()

	var theme Theme
	if s.load(ctx, KeyTheme, &theme) {
		p.Theme = theme
	}
	var sort catalog.Sort
	if s.load(ctx, KeySort, &sort) {
		p.Sort = sort
	}
	var filters catalog.Filter
	if s.load(ctx, KeyFilters, &filters) {
		p.Filters = filters
	}
	var colors Colors
	if s.load(ctx, KeyColors, &colors) && colors != nil {
		p.Colors = colors
	}
	p.Filters.Sort = p.Sort
	return p
}

// load reads key into out, reporting whether a valid value was found.
func (s *Store) load(ctx context.Context, key string, out any) bool {
	log := logger.For(ctx).WithField("key", key)

	raw, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("could not read stored preference")
		return false
	}
	if !ok || raw == "" {
		return false
	}

	res, err := schemas[key].Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		log.WithError(err).Warn("stored preference is not valid JSON, using default")
		return false
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		log.WithFields(logrus.Fields{"errors": strings.Join(msgs, "; ")}).Warn("stored preference failed validation, using default")
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.WithError(err).Warn("could not decode stored preference, using default")
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	buf, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.storage.Set(ctx, key, string(buf))
}

func (s *Store) SaveTheme(ctx context.Context, t Theme) error {
	if t != ThemeDark {
		t = ThemeLight
	}
	return s.save(ctx, KeyTheme, t)
}

// ToggleTheme switches from current to the other theme and stores it.
func (s *Store) ToggleTheme(ctx context.Context, current Theme) (Theme, error) {
	next := current.Toggled()
	if err := s.SaveTheme(ctx, next); err != nil {
		return current, err
	}
	return next, nil
}

func (s *Store) SaveSort(ctx context.Context, sort catalog.Sort) error {
	return s.save(ctx, KeySort, sort)
}

// SaveFilters stores the filter set and its sort order.
func (s *Store) SaveFilters(ctx context.Context, f catalog.Filter) error {
	f.Search = strings.TrimSpace(f.Search)
	if err := s.save(ctx, KeyFilters, f); err != nil {
		return err
	}
	sort := f.Sort
	if sort.Field == "" {
		sort = catalog.DefaultSort
	}
	return s.SaveSort(ctx, sort)
}

func (s *Store) SaveColors(ctx context.Context, c Colors) error {
	if len(c) == 0 {
		return s.storage.Delete(ctx, KeyColors)
	}
	return s.save(ctx, KeyColors, maps.Clone(c))
}

// ClearFilters forgets the filter set and resets the sort order.
func (s *Store) ClearFilters(ctx context.Context) error {
	if err := s.storage.Delete(ctx, KeyFilters); err != nil {
		return err
	}
	return s.storage.Delete(ctx, KeySort)
}
