package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/furnacestore/storefront/pkg/middleware"

// routeTags maps chi URL parameters of storefront routes to span attributes.
var routeTags = map[string]string{
	"productId":  "storefront.product_id",
	"categoryId": "storefront.category",
	"idOrSlug":   "storefront.category",
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Tracing starts a server span per request, continuing any W3C trace context
// the caller sent and echoing it back in the response headers. Once chi has
// routed the request the span is renamed to "METHOD /route/{pattern}" and
// tagged with the product or category the route names. Only 5xx marks the
// span as failed; a missing product or a rejected cart is a normal outcome.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("service.name", serviceName),
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
					attribute.String("url.scheme", scheme(r)),
					semconv.UserAgentOriginal(r.UserAgent()),
					attribute.String("network.peer.address", PeerIP(r)),
					attribute.String("client.address", ClientIP(r)),
				),
			)
			defer span.End()

			rec := &statusRecorder{ResponseWriter: w}
			propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))
			next.ServeHTTP(rec, r.WithContext(ctx))

			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					span.SetName(r.Method + " " + pattern)
					span.SetAttributes(semconv.HTTPRoute(pattern))
				}
				for i, key := range rctx.URLParams.Keys {
					if tag, ok := routeTags[key]; ok && i < len(rctx.URLParams.Values) {
						span.SetAttributes(attribute.String(tag, rctx.URLParams.Values[i]))
					}
				}
			}

			status := rec.code()
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		})
	}
}

func scheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
