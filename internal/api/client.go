package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"hqcatalog/internal/logger"
	"hqcatalog/internal/metrics"
	"hqcatalog/internal/notify"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	// OfflineMessage is shown once when the client starts serving sample data.
	OfflineMessage = "Conectando em modo offline com dados de exemplo"
	// ServerErrorMessage is shown for every failed backend response.
	ServerErrorMessage = "Erro na comunicação com o servidor"
)

// ErrOffline matches failures to reach the backend at the network level.
var ErrOffline = errors.New("backend unreachable")

// NetworkError wraps a transport failure such as a refused connection or a timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool {
	return target == ErrOffline
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string { return e.Message }

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// ListShape is how the backend returns collections.
type ListShape string

const (
	// ShapeArray is a bare JSON array paged with limit and offset.
	ShapeArray ListShape = "array"
	// ShapeEnvelope is {items,total,page,per_page} paged with page and per_page.
	ShapeEnvelope ListShape = "envelope"
)

// MaxPerPage is the largest page the backends accept.
const MaxPerPage = 100

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	ListShape  ListShape
	PerPage    int
	CoverField string
	// RPS caps outgoing calls per second; zero means unlimited.
	RPS float64
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	cfg        Config
	mock       *MockStore
	tracer     trace.Tracer

	offline  atomic.Bool
	warned   atomic.Bool
	inFlight atomic.Int64
}

// NewClient returns a client for the backend at cfg.BaseURL. When mock is
// non-nil, reads that fail at the network level are answered from it.
func NewClient(cfg Config, mock *MockStore) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ListShape == "" {
		cfg.ListShape = ShapeArray
	}
	if cfg.PerPage <= 0 || cfg.PerPage > MaxPerPage {
		cfg.PerPage = MaxPerPage
	}
	if cfg.CoverField == "" {
		cfg.CoverField = "capa_url"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "hqcatalog/1.0"
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		userAgent: cfg.UserAgent,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		limiter:   rate.NewLimiter(limit, 1),
		cfg:       cfg,
		mock:      mock,
		tracer:    otel.Tracer("hqcatalog/api"),
	}
}

// Offline reports whether the last backend call failed at the network level.
func (c *Client) Offline() bool { return c.offline.Load() }

// Busy reports whether any backend call is in flight.
func (c *Client) Busy() bool { return c.inFlight.Load() > 0 }

// Mock returns the sample dataset, or nil when fallback is disabled.
func (c *Client) Mock() *MockStore { return c.mock }

// BaseURL is the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Do performs a JSON request against endpoint and decodes the response into out.
// Reads that fail at the network level are served from the sample dataset.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	route := routeOf(endpoint)
	ctx, span := c.tracer.Start(ctx, "backend "+method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("hq.endpoint", route),
		),
	)
	defer span.End()

	c.inFlight.Add(1)
	metrics.BackendInFlight.Inc()
	start := time.Now()
	defer func() {
		c.inFlight.Add(-1)
		metrics.BackendInFlight.Dec()
		metrics.BackendRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}()

	err := c.send(ctx, method, endpoint, body, out)
	if err == nil {
		c.setOffline(false)
		metrics.BackendRequestsTotal.WithLabelValues(method, route, "ok").Inc()
		return nil
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		c.goOffline(ctx, err)
		metrics.BackendRequestsTotal.WithLabelValues(method, route, "network_error").Inc()
		if method == http.MethodGet && c.mock != nil {
			if ok, mockErr := c.serveMock(endpoint, out); ok {
				span.SetAttributes(attribute.Bool("hq.mock", true))
				metrics.MockFallbacksTotal.WithLabelValues(route).Inc()
				return mockErr
			}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend unreachable")
		return err
	}

	var se *StatusError
	if errors.As(err, &se) {
		span.SetAttributes(attribute.Int("http.response.status_code", se.StatusCode))
		metrics.BackendRequestsTotal.WithLabelValues(method, route, "http_error").Inc()
		notify.Push(ctx, notify.Error, ServerErrorMessage)
		logger.For(ctx).WithFields(logrus.Fields{
			"method": method,
			"path":   endpoint,
			"status": se.StatusCode,
		}).Warn("backend returned an error")
	} else {
		metrics.BackendRequestsTotal.WithLabelValues(method, route, "error").Inc()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (c *Client) send(ctx context.Context, method, endpoint string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if id := logger.IDFrom(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serveMock answers endpoint from the sample dataset. ok is false when the
// dataset does not cover it.
func (c *Client) serveMock(endpoint string, out any) (ok bool, err error) {
	body, ok, err := c.mock.Serve(endpoint)
	if !ok || err != nil || out == nil {
		return ok, err
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return true, err
	}
	return true, json.Unmarshal(buf, out)
}

func (c *Client) goOffline(ctx context.Context, cause error) {
	c.setOffline(true)
	if c.warned.CompareAndSwap(false, true) {
		logger.For(ctx).WithError(cause).Warn("backend unreachable, serving sample data")
		notify.Push(ctx, notify.Warning, OfflineMessage)
	}
}

func (c *Client) setOffline(v bool) {
	if c.offline.Swap(v) != v {
		if v {
			metrics.OfflineMode.Set(1)
		} else {
			metrics.OfflineMode.Set(0)
		}
	}
}

// errorBody covers the error shapes the backends produce.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func errorMessage(resp *http.Response) string {
	fallback := fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return fallback
	}
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		return fallback
	}
	if msg := detailMessage(eb.Detail); msg != "" {
		return msg
	}
	if eb.Error != nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	if eb.Message != "" {
		return eb.Message
	}
	return fallback
}

// detailMessage reads a FastAPI detail, either a string or a list of {msg}.
func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// routeOf collapses ids so metrics and spans have bounded cardinality.
func routeOf(endpoint string) string {
	path, _, _ := strings.Cut(endpoint, "?")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}
