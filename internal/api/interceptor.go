package api

import (
	"context"
	"errors"
	"time"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/rpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Verifier resolves an access token to the signed-in identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (auth.Identity, error)
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity placed in ctx by the interceptor.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

// userID returns the caller uid. Protected handlers always have one.
func userID(ctx context.Context) string {
	id, _ := IdentityFrom(ctx)
	return id.UID
}

// TokenFrom reads the access token from incoming metadata.
func TokenFrom(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(rpc.TokenHeader); len(values) > 0 {
		return values[0]
	}
	return ""
}

// Interceptors verifies access tokens and maps domain errors to status codes.
type Interceptors struct {
	verifier Verifier
	log      *zap.Logger
}

// NewInterceptors creates the server interceptors.
func NewInterceptors(v Verifier, log *zap.Logger) *Interceptors {
	return &Interceptors{verifier: v, log: log.Named("rpc")}
}

func (i *Interceptors) authenticate(ctx context.Context, fullMethod string) (context.Context, error) {
	if rpc.IsPublic(fullMethod) {
		return ctx, nil
	}
	token := TokenFrom(ctx)
	if token == "" {
		return ctx, rpc.ErrMissingToken
	}
	id, err := i.verifier.Verify(ctx, token)
	if err != nil {
		return ctx, err
	}
	return WithIdentity(ctx, id), nil
}

func (i *Interceptors) finish(method string, start time.Time, err error) error {
	if err == nil {
		return nil
	}
	st := rpc.ToStatus(err)
	code := rpc.Code(err)
	fields := []zap.Field{zap.String("method", method), zap.Stringer("code", code), zap.Duration("took", time.Since(start)), zap.Error(err)}
	switch code {
	case codes.Internal, codes.Unknown:
		i.log.Error("call failed", fields...)
	case codes.Canceled:
	default:
		i.log.Info("call rejected", fields...)
	}
	return st
}

// Unary is the unary server interceptor.
func (i *Interceptors) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, i.finish(info.FullMethod, start, err)
		}
		resp, err := handler(ctx, req)
		return resp, i.finish(info.FullMethod, start, err)
	}
}

// Stream is the streaming server interceptor.
func (i *Interceptors) Stream() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return i.finish(info.FullMethod, start, err)
		}
		err = handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return i.finish(info.FullMethod, start, err)
	}
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context { return s.ctx }
