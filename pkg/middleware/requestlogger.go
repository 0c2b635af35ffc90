package middleware

import (
	"log/slog"
	"net/http"

	"github.com/furnacestore/storefront/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// client_ip, trace_id and span_id and stores it in the request context.
// Handlers retrieve it with logger.FromContext.
//
// Mount it after RequestLogging (which sets correlation_id) and Tracing
// (which starts the span).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if ip := ClientIP(r); ip != "" {
				ctx = logger.WithClientIP(ctx, ip)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
