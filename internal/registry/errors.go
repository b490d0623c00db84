package registry

import (
	"errors"
	"fmt"
)

// Code categorizes registry errors.
type Code string

const (
	// CodePermissionDenied: the caller lacks the role a mutation requires.
	CodePermissionDenied Code = "PERMISSION_DENIED"

	// CodeInvalidArgument: empty or otherwise unusable input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeAlreadyExists: duplicate url or duplicate manager.
	CodeAlreadyExists Code = "ALREADY_EXISTS"

	// CodeNotFound: untracked url or non-manager address.
	CodeNotFound Code = "NOT_FOUND"

	// CodeAlreadyApproved: approve called on an approved url.
	CodeAlreadyApproved Code = "ALREADY_APPROVED"

	// CodeInvariantViolation: attempt to strip the owner's manager status.
	CodeInvariantViolation Code = "INVARIANT_VIOLATION"
)

// Error is returned by every failing registry operation.
type Error struct {
	Code Code

	// Op is the operation that failed, e.g. "ApproveNode".
	Op string

	// Subject is the url or principal the operation was about.
	Subject string

	Message string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("registry: %s", e.Message)
	}
	if e.Subject != "" {
		return fmt.Sprintf("registry: %s %q: %s", e.Op, e.Subject, e.Message)
	}
	return fmt.Sprintf("registry: %s: %s", e.Op, e.Message)
}

// Is matches any *Error with the same Code, so errors.Is(err, ErrNotFound)
// works for every not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrPermissionDenied   = &Error{Code: CodePermissionDenied, Message: "permission denied"}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyApproved    = &Error{Code: CodeAlreadyApproved, Message: "already approved"}
	ErrInvariantViolation = &Error{Code: CodeInvariantViolation, Message: "invariant violation"}
)

// ErrInconsistentLog is wrapped by Restore when an event cannot be applied
// to the state built from the events before it.
var ErrInconsistentLog = errors.New("registry: inconsistent event log")

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func newError(code Code, op, subject, msg string) *Error {
	return &Error{Code: code, Op: op, Subject: subject, Message: msg}
}

func permissionDenied(op string, caller Principal, role string) *Error {
	return newError(CodePermissionDenied, op, string(caller), "caller is not "+role)
}
