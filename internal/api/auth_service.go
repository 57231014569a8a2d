package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/validate"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// AuthService implements the Auth gRPC service.
type AuthService struct {
	auth         *auth.Service
	registration *registration.Service
	bus          *bus.Bus
	log          *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(a *auth.Service, r *registration.Service, b *bus.Bus, log *zap.Logger) *AuthService {
	return &AuthService{auth: a, registration: r, bus: b, log: log.Named("auth_api")}
}

func (s *AuthService) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.SessionResponse, error) {
	if verr := req.Form.ValidateAll(); verr != nil {
		return nil, &validate.Error{Fields: map[string]string{verr.Field: verr.Message}}
	}
	if _, err := s.registration.Provision(ctx, req.Form); err != nil {
		return nil, err
	}
	sess, err := s.auth.SignIn(ctx, req.Form.Email, req.Form.Password)
	if err != nil {
		return nil, err
	}
	return &rpc.SessionResponse{Session: *sess}, nil
}

func (s *AuthService) SignIn(ctx context.Context, req *rpc.SignInRequest) (*rpc.SessionResponse, error) {
	sess, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	reconciled, err := s.registration.Reconcile(ctx, sess.Identity)
	if err != nil {
		// The session is valid even if the profile repair failed.
		s.log.Warn("reconcile failed", zap.String("uid", sess.UID), zap.Error(err))
	}
	return &rpc.SessionResponse{Session: *sess, Reconciled: reconciled}, nil
}

func (s *AuthService) SendPasswordReset(ctx context.Context, req *rpc.PasswordResetRequest) (*rpc.Empty, error) {
	if err := s.auth.SendPasswordReset(ctx, req.Email); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req *rpc.ConfirmPasswordResetRequest) (*rpc.Empty, error) {
	if err := s.auth.ConfirmPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *AuthService) SignOut(ctx context.Context, _ *rpc.Empty) (*rpc.Empty, error) {
	token := TokenFrom(ctx)
	if token == "" {
		return nil, rpc.ErrMissingToken
	}
	if err := s.auth.SignOut(ctx, token); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

// WatchAuthState sends the caller's identity, then a nil identity once the
// session is signed out (by this or any other client) and ends the stream.
func (s *AuthService) WatchAuthState(_ *rpc.Empty, stream grpc.ServerStreamingServer[rpc.AuthState]) error {
	ctx := stream.Context()
	id, _ := IdentityFrom(ctx)

	ch, unsub := s.bus.Subscribe(bus.AuthNamespace, 16)
	defer unsub()

	// The session may have been revoked between the interceptor and Subscribe.
	if _, err := s.auth.Verify(ctx, TokenFrom(ctx)); err != nil {
		return stream.Send(&rpc.AuthState{})
	}
	if err := stream.Send(&rpc.AuthState{Identity: &id}); err != nil {
		return err
	}

	for {
		select {
		case evt := <-ch:
			change, ok := evt.Payload.(bus.AuthChange)
			if !ok || evt.Kind != bus.KindSignedOut || change.SessionID != id.SessionID {
				continue
			}
			return stream.Send(&rpc.AuthState{})
		case <-ctx.Done():
			return nil
		}
	}
}
