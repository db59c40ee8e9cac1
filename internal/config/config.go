// Package config reads the runtime configuration from the environment and an
// optional YAML backend profile.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"hqcatalog/internal/api"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr    string
	Backend api.Config
	// MockFallback enables the sample dataset when the backend is unreachable.
	MockFallback bool

	PageSize       int
	SearchDebounce time.Duration
	ToastDuration  time.Duration
	SessionTTL     time.Duration
	MaxBodyBytes   int64

	LogLevel string
	LogJSON  bool

	RateLimitRPS   float64
	RateLimitBurst int
	EnableHSTS     bool

	OTLPEndpoint string
	Profile      string
	PrefsDB      string
}

// Profile describes one backend variant.
type Profile struct {
	BaseURL           string  `yaml:"base_url"`
	ListShape         string  `yaml:"list_shape"`
	PerPage           int     `yaml:"per_page"`
	CoverField        string  `yaml:"cover_field"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Timeout           string  `yaml:"timeout"`
}

// LoadEnvFiles reads .env and .env.local without overriding variables
// already set in the environment.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load builds the configuration: defaults, then the profile named by
// HQ_PROFILE, then explicit environment variables.
func Load() (Config, error) {
	cfg := Config{
		Addr: getEnv("APP_ADDR", ":8080"),
		Backend: api.Config{
			BaseURL:    "http://localhost:8000",
			Timeout:    10 * time.Second,
			ListShape:  api.ShapeArray,
			PerPage:    api.MaxPerPage,
			CoverField: "capa_url",
		},
		MockFallback:   true,
		PageSize:       12,
		SearchDebounce: 400 * time.Millisecond,
		ToastDuration:  5 * time.Second,
		SessionTTL:     2 * time.Hour,
		MaxBodyBytes:   1 << 20,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Profile:        os.Getenv("HQ_PROFILE"),
		PrefsDB:        getEnv("PREFS_DB", defaultPrefsDB()),
	}

	if cfg.Profile != "" {
		p, err := LoadProfile(cfg.Profile)
		if err != nil {
			return Config{}, err
		}
		if err := p.applyTo(&cfg.Backend); err != nil {
			return Config{}, err
		}
	}

	var errs []error
	cfg.Backend.BaseURL = getEnv("API_BASE_URL", cfg.Backend.BaseURL)
	if v := os.Getenv("API_LIST_SHAPE"); v != "" {
		cfg.Backend.ListShape = api.ListShape(strings.ToLower(v))
	}
	cfg.Backend.CoverField = getEnv("API_COVER_FIELD", cfg.Backend.CoverField)
	cfg.Backend.Timeout = getDuration("HTTP_TIMEOUT", cfg.Backend.Timeout, &errs)
	cfg.Backend.PerPage = getInt("API_PER_PAGE", cfg.Backend.PerPage, &errs)
	cfg.Backend.RPS = getFloat("API_RPS", cfg.Backend.RPS, &errs)
	cfg.MockFallback = getBool("MOCK_FALLBACK", cfg.MockFallback, &errs)
	cfg.PageSize = getInt("PAGE_SIZE", cfg.PageSize, &errs)
	cfg.SearchDebounce = getDuration("SEARCH_DEBOUNCE", cfg.SearchDebounce, &errs)
	cfg.ToastDuration = getDuration("TOAST_DURATION", cfg.ToastDuration, &errs)
	cfg.SessionTTL = getDuration("SESSION_TTL", cfg.SessionTTL, &errs)
	cfg.LogJSON = getBool("LOG_JSON", false, &errs)
	cfg.RateLimitRPS = getFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS, &errs)
	cfg.RateLimitBurst = getInt("RATE_LIMIT_BURST", cfg.RateLimitBurst, &errs)
	cfg.EnableHSTS = getBool("ENABLE_HSTS", false, &errs)
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// LoadProfile reads a YAML backend profile.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) applyTo(c *api.Config) error {
	if p.BaseURL != "" {
		c.BaseURL = p.BaseURL
	}
	if p.ListShape != "" {
		c.ListShape = api.ListShape(strings.ToLower(p.ListShape))
	}
	if p.PerPage != 0 {
		c.PerPage = p.PerPage
	}
	if p.CoverField != "" {
		c.CoverField = p.CoverField
	}
	if p.RequestsPerSecond != 0 {
		c.RPS = p.RequestsPerSecond
	}
	if p.Timeout != "" {
		d, err := time.ParseDuration(p.Timeout)
		if err != nil {
			return fmt.Errorf("profile timeout: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// Validate rejects values the application cannot run with.
func (c Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.Backend.BaseURL))
	}
	switch c.Backend.ListShape {
	case api.ShapeArray, api.ShapeEnvelope:
	default:
		errs = append(errs, fmt.Errorf("list shape must be %q or %q, got %q", api.ShapeArray, api.ShapeEnvelope, c.Backend.ListShape))
	}
	if c.Backend.PerPage < 1 || c.Backend.PerPage > api.MaxPerPage {
		errs = append(errs, fmt.Errorf("per page must be between 1 and %d, got %d", api.MaxPerPage, c.Backend.PerPage))
	}
	if c.Backend.CoverField != "capa_url" && c.Backend.CoverField != "cover_url" {
		errs = append(errs, fmt.Errorf("cover field must be capa_url or cover_url, got %q", c.Backend.CoverField))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.PageSize))
	}
	if c.SearchDebounce < 0 || c.ToastDuration <= 0 {
		errs = append(errs, errors.New("SEARCH_DEBOUNCE must not be negative and TOAST_DURATION must be positive"))
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func getBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// getDuration accepts Go durations ("400ms") or plain milliseconds ("400").
func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func defaultPrefsDB() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "hqcatalog" + string(os.PathSeparator) + "prefs.db"
	}
	return "hqcatalog-prefs.db"
}
