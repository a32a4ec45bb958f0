package grpcmw

// Default metadata keys the interceptors read. gRPC normalizes incoming
// metadata keys to lowercase.
const (
	defaultTraceMetadataKey   = "x-trace-id"
	defaultRequestMetadataKey = "x-request-id"
)

// Option adjusts how the interceptors read incoming metadata.
type Option func(*options)

type options struct {
	traceKey   string
	requestKey string
}

// WithTraceKey overrides the metadata key carrying the trace identifier.
func WithTraceKey(name string) Option {
	return func(o *options) {
		if o == nil || name == "" {
			return
		}

		o.traceKey = name
	}
}

// WithRequestKey overrides the metadata key carrying the request identifier.
func WithRequestKey(name string) Option {
	return func(o *options) {
		if o == nil || name == "" {
			return
		}

		o.requestKey = name
	}
}
