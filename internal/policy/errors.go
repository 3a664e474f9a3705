package policy

import "github.com/pkg/errors"

var (
	// ErrPermissionDenied is returned when the viewer lacks the capability or ownership
	// required by the requested action.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidArgument is returned when a requested state, variant or capability is not
	// part of its closed enumeration.
	ErrInvalidArgument = errors.New("invalid argument")
)

// IsPermissionDenied returns true if err is caused by ErrPermissionDenied.
func IsPermissionDenied(err error) bool {
	return errors.Cause(err) == ErrPermissionDenied
}

// IsInvalidArgument returns true if err is caused by ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Cause(err) == ErrInvalidArgument
}

func denied(format string, args ...any) error {
	return errors.Wrapf(ErrPermissionDenied, format, args...)
}

func invalid(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
