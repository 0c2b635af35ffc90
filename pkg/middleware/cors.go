package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins such as "http://localhost:3000".
	// "*" allows any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int
	// AllowCredentials makes a wildcard config echo the caller's Origin,
	// since browsers refuse "*" with credentials.
	AllowCredentials bool
	// Environment "development" allows any origin regardless of the list.
	Environment string
}

// StorefrontCORS returns the configuration for the storefront frontend:
// the cart verbs, JSON bodies, the correlation header in both directions
// and credentials allowed.
func StorefrontCORS(origins []string, environment string) CORSConfig {
	return CORSConfig{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", CorrelationIDHeader},
		ExposedHeaders:   []string{CorrelationIDHeader},
		MaxAge:           3600,
		AllowCredentials: true,
		Environment:      environment,
	}
}

// CORS answers preflight requests with 204 and decorates every other
// response with the headers cfg allows.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	anyOrigin := cfg.Environment == "development" || slices.Contains(cfg.AllowedOrigins, "*")

	static := http.Header{}
	static.Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
	static.Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
	if len(cfg.ExposedHeaders) > 0 {
		static.Set("Access-Control-Expose-Headers", strings.Join(cfg.ExposedHeaders, ", "))
	}
	if cfg.MaxAge > 0 {
		static.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
	}
	if cfg.AllowCredentials {
		static.Set("Access-Control-Allow-Credentials", "true")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			origin := r.Header.Get("Origin")

			switch {
			case anyOrigin && (origin == "" || !cfg.AllowCredentials):
				h.Set("Access-Control-Allow-Origin", "*")
			case anyOrigin || (origin != "" && slices.Contains(cfg.AllowedOrigins, origin)):
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			for k, v := range static {
				h.Set(k, v[0])
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
