package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryForm(descricao string) string {
	return url.Values{
		"titulo":    {"Watchmen"},
		"autor":     {"Alan Moore"},
		"ano":       {"1987"},
		"descricao": {descricao},
	}.Encode()
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	const limit = 1024

	tests := []struct {
		name          string
		body          string
		unknownLength bool
		wantCode      int
		wantCalled    bool
		wantTooLarge  bool
	}{
		{
			name:       "success - form under the limit is parsed",
			body:       entryForm("Clássico de Alan Moore."),
			wantCode:   http.StatusOK,
			wantCalled: true,
		},
		{
			name:     "declared length over the limit is refused",
			body:     entryForm(strings.Repeat("a", 2*limit)),
			wantCode: http.StatusRequestEntityTooLarge,
		},
		{
			name:          "streamed body over the limit fails to parse",
			body:          entryForm(strings.Repeat("a", 2*limit)),
			unknownLength: true,
			wantCode:      http.StatusRequestEntityTooLarge,
			wantCalled:    true,
			wantTooLarge:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var parseErr error
			handler := RequestSizeLimitMiddleware(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				if parseErr = r.ParseForm(); parseErr != nil {
					w.WriteHeader(http.StatusRequestEntityTooLarge)
					return
				}
				assert.Equal(t, "Watchmen", r.PostForm.Get("titulo"))
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/livros", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.unknownLength {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantTooLarge {
				var tooLarge *http.MaxBytesError
				require.Error(t, parseErr)
				assert.True(t, errors.As(parseErr, &tooLarge))
				assert.EqualValues(t, limit, tooLarge.Limit)
			}
		})
	}
}
