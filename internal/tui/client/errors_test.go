package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"credentials", rpc.FromStatus(status.Error(codes.Unauthenticated, auth.ErrInvalidCredentials.Error())), "wrong e-mail or password"},
		{"email in use", fmt.Errorf("register: %w", auth.ErrEmailInUse), registration.MsgEmailInUse},
		{"submit error", registration.Classify(auth.ErrWeakPassword), registration.MsgWeakPassword},
		{"unavailable", rpc.FromStatus(status.Error(codes.Unavailable, "connection refused")), "daemon is not running, start hyped"},
		{"status message", rpc.FromStatus(status.Error(codes.PermissionDenied, discovery.ErrPlanRequired.Error())), discovery.ErrPlanRequired.Error()},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
