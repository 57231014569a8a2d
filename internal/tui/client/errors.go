package client

import (
	"errors"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"google.golang.org/grpc/codes"
)

var messages = []struct {
	err error
	msg string
}{
	{auth.ErrInvalidCredentials, "wrong e-mail or password"},
	{auth.ErrEmailInUse, registration.MsgEmailInUse},
	{auth.ErrWeakPassword, registration.MsgWeakPassword},
	{auth.ErrInvalidEmail, registration.MsgInvalidEmail},
	{auth.ErrNotFound, "no account uses that e-mail"},
	{auth.ErrInvalidToken, "session expired, please sign in again"},
	{rpc.ErrMissingToken, "please sign in first"},
	{conversation.ErrNotInTrash, "move the conversation to the trash first"},
	{conversation.ErrNotContact, "add the contact before making it a favorite"},
}

// UserMessage returns the text shown to a person for a failed call.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *registration.SubmitError
	if errors.As(err, &se) {
		return se.Message
	}
	var re *rpc.Error
	if errors.As(err, &re) && re.Code == codes.Unavailable {
		return "daemon is not running, start hyped"
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	if re != nil {
		return re.Message
	}
	return err.Error()
}
