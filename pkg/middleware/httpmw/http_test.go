package httpmw

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyp3rd/transitlog"
	"github.com/hyp3rd/transitlog/internal/constants"
)

func TestContextMiddleware(t *testing.T) {
	middleware := ContextMiddleware(WithIDGenerator(func() string { return "generated" }))

	handler := middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID, _ := r.Context().Value(constants.TraceKey{}).(string)
		requestID, _ := r.Context().Value(constants.RequestKey{}).(string)

		require.NotEmpty(t, traceID)
		require.NotEmpty(t, requestID)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler.ServeHTTP(rr, req)
}

func TestContextMiddlewareHeaders(t *testing.T) {
	middleware := ContextMiddleware(WithGenerateMissingIDs(false))

	handler := middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		traceID, _ := r.Context().Value(constants.TraceKey{}).(string)
		requestID, _ := r.Context().Value(constants.RequestKey{}).(string)

		require.Equal(t, "trace", traceID)
		require.Equal(t, "req", requestID)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-ID", "trace")
	req.Header.Set("X-Request-ID", "req")

	handler.ServeHTTP(rr, req)
}

func TestContextMiddlewareCustomHeaders(t *testing.T) {
	middleware := ContextMiddleware(
		WithTraceHeader("X-Correlation-ID"),
		WithRequestHeader("X-Call-ID"),
		WithGenerateMissingIDs(false),
	)

	handler := middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		require.Equal(t, "corr-1", r.Context().Value(constants.TraceKey{}))
		require.Equal(t, "call-1", r.Context().Value(constants.RequestKey{}))
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	req.Header.Set("X-Call-ID", "call-1")

	handler.ServeHTTP(rr, req)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := transitlog.DefaultConfig()
	cfg.Output = &buf
	cfg.DisableTimestamp = true
	cfg.Color.Enable = false

	log, err := transitlog.New(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, log.Close())
	})

	middleware := ContextMiddleware(WithIDGenerator(func() string { return "gen-1" }))
	handler := middleware(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.NoError(t, log.Flush(context.Background()))

	line := buf.String()
	require.Contains(t, line, "request completed")
	require.Contains(t, line, "method=GET")
	require.Contains(t, line, "path=/health")
	require.Contains(t, line, "status=204")
	require.Contains(t, line, "trace_id=gen-1")
	require.Contains(t, line, "request_id=gen-1")
}
