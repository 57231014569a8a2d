package rpc

import (
	"context"
	"errors"
	"strings"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/blob"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/thread"
	"github.com/matheus3301/puthype/internal/validate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrMissingToken is returned when a protected call carries no access token.
var ErrMissingToken = errors.New("missing access token")

// errorCodes maps domain sentinels to status codes. Within one code the
// first sentinel is the fallback when the client sees an unknown message.
var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{validate.ErrInvalid, codes.InvalidArgument},
	{auth.ErrInvalidEmail, codes.InvalidArgument},
	{auth.ErrWeakPassword, codes.InvalidArgument},
	{thread.ErrEmptyMessage, codes.InvalidArgument},
	{thread.ErrSelf, codes.InvalidArgument},
	{thread.ErrNoPeer, codes.InvalidArgument},
	{conversation.ErrSelf, codes.InvalidArgument},
	{conversation.ErrNoContact, codes.InvalidArgument},
	{directory.ErrSelf, codes.InvalidArgument},
	{discovery.ErrMissingFields, codes.InvalidArgument},
	{discovery.ErrUnknownTab, codes.InvalidArgument},
	{discovery.ErrUnknownTag, codes.InvalidArgument},
	{profile.ErrNothingToUpdate, codes.InvalidArgument},
	{blob.ErrNotImage, codes.InvalidArgument},
	{blob.ErrEmpty, codes.InvalidArgument},
	{blob.ErrInvalidPath, codes.InvalidArgument},
	{docstore.ErrInvalidField, codes.InvalidArgument},

	{auth.ErrEmailInUse, codes.AlreadyExists},
	{docstore.ErrAlreadyExists, codes.AlreadyExists},

	{auth.ErrInvalidCredentials, codes.Unauthenticated},
	{auth.ErrInvalidToken, codes.Unauthenticated},
	{ErrMissingToken, codes.Unauthenticated},

	{docstore.ErrNotFound, codes.NotFound},
	{auth.ErrNotFound, codes.NotFound},
	{blob.ErrNotFound, codes.NotFound},
	{conversation.ErrUnknownContact, codes.NotFound},

	{discovery.ErrPlanRequired, codes.PermissionDenied},

	{conversation.ErrNotInTrash, codes.FailedPrecondition},
	{conversation.ErrNotContact, codes.FailedPrecondition},
	{docstore.ErrVersionConflict, codes.Aborted},

	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// Code returns the status code for a domain error.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Code()
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return codes.Internal
}

// ToStatus converts a domain error into a gRPC status error. The message
// keeps the wrapped text so the client can recover the sentinel.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(Code(err), err.Error())
}

// Error is a failed call as seen by the client. It unwraps to the matching
// domain sentinel, so errors.Is works across the socket.
type Error struct {
	Code    codes.Code
	Message string
	err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.err }

// FromStatus maps a status error back to the domain sentinels.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	s, ok := status.FromError(err)
	if !ok {
		return err
	}
	out := &Error{Code: s.Code(), Message: s.Message()}
	var fallback error
	for _, e := range errorCodes {
		if e.code != s.Code() {
			continue
		}
		if fallback == nil {
			fallback = e.err
		}
		if strings.Contains(s.Message(), e.err.Error()) {
			out.err = e.err
			break
		}
	}
	if out.err == nil {
		out.err = fallback
	}
	return out
}
