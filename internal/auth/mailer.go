package auth

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes reset tokens to the daemon log. It stands in for an
// SMTP relay on single-host installs.
type LogMailer struct {
	Log *zap.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.Log.Info("password reset requested", zap.String("email", email), zap.String("token", token))
	return nil
}
