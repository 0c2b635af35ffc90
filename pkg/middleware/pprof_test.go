package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// debugRouter mounts pprof next to a storefront route so tests can check
// the allowlist only guards /debug/pprof.
func debugRouter(cidrs []string) http.Handler {
	r := chi.NewRouter()
	RegisterPprof(r, cidrs, discardLogger())
	r.Get("/api/v1/products", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func getFrom(h http.Handler, path, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPprof_Allowlist(t *testing.T) {
	h := debugRouter([]string{"not-a-cidr", "10.20.0.0/16", "::1/128"})

	tests := []struct {
		name       string
		path       string
		remoteAddr string
		headers    map[string]string
		want       int
	}{
		{"ops subnet reaches index", "/debug/pprof/", "10.20.3.4:5000", nil, http.StatusOK},
		{"ops subnet reaches heap", "/debug/pprof/heap", "10.20.3.4:5000", nil, http.StatusOK},
		{"ops subnet reaches cmdline", "/debug/pprof/cmdline", "10.20.3.4:5000", nil, http.StatusOK},
		{"ipv6 loopback", "/debug/pprof/symbol", "[::1]:5000", nil, http.StatusOK},
		{"peer without port", "/debug/pprof/", "10.20.3.4", nil, http.StatusOK},
		{"shopper denied", "/debug/pprof/", "198.51.100.9:443", nil, http.StatusForbidden},
		{
			name:       "forwarded header cannot unlock profiling",
			path:       "/debug/pprof/",
			remoteAddr: "198.51.100.9:443",
			headers:    map[string]string{"X-Forwarded-For": "10.20.3.4", "X-Real-IP": "10.20.3.4"},
			want:       http.StatusForbidden,
		},
		{"catalog unaffected", "/api/v1/products", "198.51.100.9:443", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := getFrom(h, tt.path, tt.remoteAddr, tt.headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestPprof_DeniedResponseUsesErrorEnvelope(t *testing.T) {
	rec := getFrom(debugRouter(nil), "/debug/pprof/", "127.0.0.1:1234", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "FORBIDDEN", body.Error.Code)
	assert.Equal(t, "access restricted by IP allowlist", body.Error.Message)
}
