package rpc

import (
	"context"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// unary builds a MethodDesc that decodes Req, runs the server interceptor
// chain and calls fn on the registered implementation S.
func unary[S, Req, Resp any](service, name string, fn func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	full := "/" + service + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return fn(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return fn(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// serverStream builds a server-streaming StreamDesc: one Req in, many Resp out.
func serverStream[S, Req, Resp any](name string, fn func(S, *Req, grpc.ServerStreamingServer[Resp]) error) grpc.StreamDesc {
	return grpc.StreamDesc{
		StreamName:    name,
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(Req)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return fn(srv.(S), in, &grpc.GenericServerStream[Req, Resp]{ServerStream: stream})
		},
	}
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, callOpts(opts)...); err != nil {
		return nil, FromStatus(err)
	}
	return out, nil
}

// Stream is the client side of a server stream with errors mapped back to
// the domain sentinels. Recv returns io.EOF once the server finishes.
type Stream[T any] struct {
	inner grpc.ServerStreamingClient[T]
}

// Recv blocks for the next message.
func (s *Stream[T]) Recv() (*T, error) {
	m, err := s.inner.Recv()
	if err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, FromStatus(err)
	}
	return m, nil
}

func openStream[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, desc *grpc.StreamDesc, method string, in *Req, opts []grpc.CallOption) (*Stream[Resp], error) {
	cs, err := cc.NewStream(ctx, desc, method, callOpts(opts)...)
	if err != nil {
		return nil, FromStatus(err)
	}
	x := &grpc.GenericClientStream[Req, Resp]{ClientStream: cs}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, FromStatus(err)
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, FromStatus(err)
	}
	return &Stream[Resp]{inner: x}, nil
}

// TokenHeader is the metadata key carrying the access token.
const TokenHeader = "access_token"

// WithToken attaches an access token to outgoing calls made with ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, TokenHeader, token)
}
