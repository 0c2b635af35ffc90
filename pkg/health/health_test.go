package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func down(msg string) Checker {
	return func(context.Context) error { return errors.New(msg) }
}

// storefrontChecks registers the checks the server wires: the catalog is
// critical, the cache and event bus are not.
func storefrontChecks(catalog, redis, kafka Checker) *Handler {
	h := NewHandler()
	h.RegisterCritical("catalog", catalog)
	h.RegisterNonCritical("redis", redis)
	h.RegisterNonCritical("kafka", kafka)
	return h
}

func ready(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name       string
		catalog    Checker
		redis      Checker
		kafka      Checker
		wantCode   int
		wantStatus Status
		wantErrors map[string]string
	}{
		{
			name: "all up", catalog: up, redis: up, kafka: up,
			wantCode: http.StatusOK, wantStatus: StatusUp,
		},
		{
			name: "cache down degrades", catalog: up, redis: down("dial tcp :6379: connection refused"), kafka: up,
			wantCode: http.StatusOK, wantStatus: StatusDegraded,
			wantErrors: map[string]string{"redis": "dial tcp :6379: connection refused"},
		},
		{
			name: "cache and broker down still serve", catalog: up, redis: down("redis down"), kafka: down("no brokers"),
			wantCode: http.StatusOK, wantStatus: StatusDegraded,
			wantErrors: map[string]string{"redis": "redis down", "kafka": "no brokers"},
		},
		{
			name: "catalog down fails readiness", catalog: down("postgres unreachable"), redis: up, kafka: up,
			wantCode: http.StatusServiceUnavailable, wantStatus: StatusDown,
			wantErrors: map[string]string{"catalog": "postgres unreachable"},
		},
		{
			name: "catalog down wins over degraded", catalog: down("postgres unreachable"), redis: down("redis down"), kafka: up,
			wantCode: http.StatusServiceUnavailable, wantStatus: StatusDown,
			wantErrors: map[string]string{"catalog": "postgres unreachable", "redis": "redis down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := ready(t, storefrontChecks(tt.catalog, tt.redis, tt.kafka))

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, resp.Status)
			require.Len(t, resp.Checks, 3)
			assert.True(t, resp.Checks["catalog"].Critical)
			assert.False(t, resp.Checks["redis"].Critical)
			for name, res := range resp.Checks {
				if want, failed := tt.wantErrors[name]; failed {
					assert.Equal(t, StatusDown, res.Status, name)
					assert.Equal(t, want, res.Error, name)
				} else {
					assert.Equal(t, StatusUp, res.Status, name)
					assert.Empty(t, res.Error, name)
				}
			}
		})
	}
}

func TestReadiness_MemoryBackendWithoutChecks(t *testing.T) {
	code, resp := ready(t, NewHandler())

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, StatusUp, resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestRegister_ReplacesByName(t *testing.T) {
	h := NewHandler()
	h.RegisterNonCritical("catalog", down("stale"))
	h.RegisterCritical("catalog", up)

	resp := h.Check(context.Background())
	assert.Equal(t, StatusUp, resp.Status)
	assert.True(t, resp.Checks["catalog"].Critical)
}

func TestCheck_HonoursContextDeadline(t *testing.T) {
	h := NewHandler()
	h.RegisterCritical("catalog", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := h.Check(ctx)
	assert.Equal(t, StatusDown, resp.Status)
	assert.Equal(t, "context canceled", resp.Checks["catalog"].Error)
}

func TestLivenessAndSimpleHandlers(t *testing.T) {
	rec := httptest.NewRecorder()
	storefrontChecks(down("x"), down("y"), down("z")).LivenessHandler().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	require.Equal(t, http.StatusOK, rec.Code, "liveness ignores dependencies")
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUp, resp.Status)
	assert.False(t, resp.Timestamp.IsZero())
	assert.Empty(t, resp.Checks)

	rec = httptest.NewRecorder()
	SimpleHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
