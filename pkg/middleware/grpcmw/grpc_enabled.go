//go:build grpc

package grpcmw

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/hyp3rd/transitlog/internal/constants"
)

func actualOptions(opts ...Option) options {
	cfg := options{
		traceKey:   defaultTraceMetadataKey,
		requestKey: defaultRequestMetadataKey,
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

// UnaryServerInterceptor enriches the gRPC context with the trace and request
// identifiers carried in the incoming metadata, so they flow into log entries
// through the logger's context extractors.
func UnaryServerInterceptor(opts ...Option) grpc.UnaryServerInterceptor {
	cfg := actualOptions(opts...)

	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		return handler(annotateContext(ctx, cfg), req)
	}
}

// StreamServerInterceptor enriches the stream context with the trace and
// request identifiers carried in the incoming metadata.
func StreamServerInterceptor(opts ...Option) grpc.StreamServerInterceptor {
	cfg := actualOptions(opts...)

	return func(srv any, stream grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		wrapped := &annotatedStream{
			ServerStream: stream,
			ctx:          annotateContext(stream.Context(), cfg),
		}

		return handler(srv, wrapped)
	}
}

func annotateContext(ctx context.Context, cfg options) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}

	if values := md.Get(cfg.traceKey); len(values) > 0 {
		ctx = context.WithValue(ctx, constants.TraceKey{}, values[0])
	}

	if values := md.Get(cfg.requestKey); len(values) > 0 {
		ctx = context.WithValue(ctx, constants.RequestKey{}, values[0])
	}

	return ctx
}

// annotatedStream overrides the stream context with the annotated one.
type annotatedStream struct {
	grpc.ServerStream

	ctx context.Context
}

func (s *annotatedStream) Context() context.Context {
	return s.ctx
}
