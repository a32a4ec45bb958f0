package httpmw

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/trickstertwo/xclock"

	"github.com/hyp3rd/transitlog"
	"github.com/hyp3rd/transitlog/internal/constants"
)

const randomIDLength = 16

// Option adjusts how ContextMiddleware resolves identifiers.
type Option func(*options)

type options struct {
	traceHeader    string
	requestHeader  string
	idGenerator    func() string
	generateIfMiss bool
}

// WithTraceHeader overrides the header carrying the trace identifier.
func WithTraceHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.traceHeader = name
		}
	}
}

// WithRequestHeader overrides the header carrying the request identifier.
func WithRequestHeader(name string) Option {
	return func(o *options) {
		if name != "" {
			o.requestHeader = name
		}
	}
}

// WithIDGenerator replaces the generator used when a header is absent.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.idGenerator = fn
		}
	}
}

// WithGenerateMissingIDs controls whether absent headers get generated ids.
func WithGenerateMissingIDs(enable bool) Option {
	return func(o *options) {
		o.generateIfMiss = enable
	}
}

// ContextMiddleware enriches the request context with the trace and request
// identifiers the logger's context extractors pick up.
func ContextMiddleware(opts ...Option) func(http.Handler) http.Handler {
	cfg := options{
		traceHeader:    constants.TraceHeader,
		requestHeader:  constants.RequestHeader,
		idGenerator:    randomID,
		generateIfMiss: true,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = contextWithValue(ctx, constants.TraceKey{}, cfg.resolveID(r, cfg.traceHeader))
			ctx = contextWithValue(ctx, constants.RequestKey{}, cfg.resolveID(r, cfg.requestHeader))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolveID prefers the header value and falls back to a generated id
// when the middleware is configured to fill gaps.
func (o options) resolveID(r *http.Request, header string) string {
	if id := r.Header.Get(header); id != "" {
		return id
	}

	if o.generateIfMiss {
		return o.idGenerator()
	}

	return ""
}

// RequestLogger logs one entry per request with the method, path, status,
// and duration. Identifiers injected by ContextMiddleware flow into the
// entry through the logger's context extractors, so the two compose:
//
//	handler = ContextMiddleware()(RequestLogger(log)(mux))
func RequestLogger(log transitlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := xclock.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(recorder, r)

			log.WithContext(r.Context()).WithFields(
				transitlog.Field{Key: "method", Value: r.Method},
				transitlog.Field{Key: "path", Value: r.URL.Path},
				transitlog.Field{Key: "status", Value: recorder.status},
				transitlog.Field{Key: "duration", Value: xclock.Now().Sub(started)},
			).Info("request completed")
		})
	}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func contextWithValue(ctx context.Context, key any, value string) context.Context {
	if value == "" {
		return ctx
	}

	return context.WithValue(ctx, key, value)
}

func randomID() string {
	bytes := make([]byte, randomIDLength)

	_, err := rand.Read(bytes)
	if err != nil {
		return ""
	}

	return hex.EncodeToString(bytes)
}
