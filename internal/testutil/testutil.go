package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"hqcatalog/internal/catalog"
)

// Now is the fixed instant used by tests that depend on the clock.
var Now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// FixedClock always returns Now.
func FixedClock() time.Time { return Now }

// Entries returns a small catalog: two available entries and one on loan.
func Entries() []catalog.Entry {
	edition := 1
	lent := Now.Add(-48 * time.Hour)
	return []catalog.Entry{
		{ID: 1, Titulo: "Batman: Ano Um", Autor: "Frank Miller", Ano: 1987, Editora: "DC Comics", Genero: "Super-herói", Status: catalog.StatusAvailable},
		{ID: 2, Titulo: "Saga Vol. 1", Autor: "Brian K. Vaughan", Ano: 2012, Editora: "Image", Genero: "Ficção científica", NumeroEdicao: &edition, Status: catalog.StatusBorrowed, DataEmprestimo: &lent},
		{ID: 3, Titulo: "Sandman", Autor: "Neil Gaiman", Ano: 1989, Editora: "DC Comics", Genero: "Fantasia", Status: catalog.StatusAvailable},
	}
}

// NewFormRequest creates a url-encoded form POST for testing
func NewFormRequest(path string, values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
}

// RecordHTTPResponse records the HTTP response, decoding a JSON body when present
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
	}
}

// AssertResponseBody checks if the response body contains expected field
func AssertResponseBody(t interface {
	Errorf(format string, args ...any)
}, body map[string]interface{}, key string, expectedValue interface{}) {
	value, ok := body[key]
	if !ok {
		t.Errorf("response body missing key %q", key)
		return
	}
	if value != expectedValue {
		t.Errorf("got %v for key %q, want %v", value, key, expectedValue)
	}
}
