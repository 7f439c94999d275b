// Package exitcode holds the process exit-code contract shared by every command.
package exitcode

import "errors"

const (
	Success        = 0
	GenericError   = 1
	ConfigNotFound = 2
	AuthFailure    = 3
	NetworkError   = 4
	ValidationErr  = 5
	UserCancelled  = 130
)

type Kind int

const (
	KindGeneric Kind = iota + 1
	KindConfigNotFound
	KindProfileNotFound
	KindAuthFailure
	KindNetwork
	KindValidation
	KindCancelled
)

func (k Kind) Code() int {
	switch k {
	case KindConfigNotFound, KindProfileNotFound:
		return ConfigNotFound
	case KindAuthFailure:
		return AuthFailure
	case KindNetwork:
		return NetworkError
	case KindValidation:
		return ValidationErr
	case KindCancelled:
		return UserCancelled
	default:
		return GenericError
	}
}

func (k Kind) String() string {
	switch k {
	case KindConfigNotFound:
		return "ConfigNotFound"
	case KindProfileNotFound:
		return "ProfileNotFound"
	case KindAuthFailure:
		return "AuthFailure"
	case KindNetwork:
		return "NetworkError"
	case KindValidation:
		return "ValidationError"
	case KindCancelled:
		return "UserCancelled"
	default:
		return "GenericError"
	}
}

// Error tags an underlying error with the kind used to pick the exit code.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap attaches kind to err. An error that already carries a kind keeps it.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf reports the kind attached to err, KindGeneric when none is.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindGeneric
}

// For maps err to a process exit code. nil maps to Success.
func For(err error) int {
	if err == nil {
		return Success
	}
	return KindOf(err).Code()
}
