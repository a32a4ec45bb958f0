//go:build !grpc

package grpcmw

import (
	"context"

	"github.com/hyp3rd/ewrap"
	"google.golang.org/grpc"
)

// ErrGRPCNotEnabled is returned by interceptors from builds without the
// grpc tag.
var ErrGRPCNotEnabled = ewrap.New("grpc middleware requires build tag 'grpc'")

// UnaryServerInterceptor returns an interceptor that rejects every call.
// Build with -tags grpc for the real implementation.
//
//nolint:revive // the signature must match the enabled build.
func UnaryServerInterceptor(_ ...Option) grpc.UnaryServerInterceptor {
	return func(context.Context, any, *grpc.UnaryServerInfo, grpc.UnaryHandler) (any, error) {
		return nil, ErrGRPCNotEnabled
	}
}

// StreamServerInterceptor returns an interceptor that rejects every
// stream. Build with -tags grpc for the real implementation.
//
//nolint:revive // the signature must match the enabled build.
func StreamServerInterceptor(_ ...Option) grpc.StreamServerInterceptor {
	return func(any, grpc.ServerStream, *grpc.StreamServerInfo, grpc.StreamHandler) error {
		return ErrGRPCNotEnabled
	}
}
