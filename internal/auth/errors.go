package auth

import (
	"errors"
	"fmt"
)

// Kind classifies failures raised by the credential and token core.
type Kind uint8

const (
	// KindUnknown is returned by KindOf for errors that did not originate here.
	KindUnknown Kind = iota

	// KindInvalidInput means the caller passed a blank password or a
	// nonsensical policy. Recoverable: reject the request.
	KindInvalidInput

	// KindMalformedCredential means stored hash/salt lengths are wrong.
	// Indicates data corruption and is never treated as "no match".
	KindMalformedCredential

	// KindPolicyUnsatisfiable means the complexity policy cannot be met.
	KindPolicyUnsatisfiable

	// KindSigningKeyMissing means the token signing secret is absent or too short.
	KindSigningKeyMissing
)

// String returns a snake_case name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindMalformedCredential:
		return "malformed_credential"
	case KindPolicyUnsatisfiable:
		return "policy_unsatisfiable"
	case KindSigningKeyMissing:
		return "signing_key_missing"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the credential and token core.
// Two *Error values match under errors.Is when their kinds are equal.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return "auth: " + e.Kind.String()
	}
	return "auth: " + e.Kind.String() + ": " + e.Detail
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Kind sentinels, for use with errors.Is.
var (
	ErrInvalidInput        = &Error{Kind: KindInvalidInput}
	ErrMalformedCredential = &Error{Kind: KindMalformedCredential}
	ErrPolicyUnsatisfiable = &Error{Kind: KindPolicyUnsatisfiable}
	ErrSigningKeyMissing   = &Error{Kind: KindSigningKeyMissing}
)

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Sentinel errors for account operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenInvalid       = errors.New("invalid token")
)
