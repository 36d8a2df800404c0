// Package apperr defines the error kinds surfaced by the issue search layer.
//
// Callers classify failures with errors.Is against the marker values below;
// the message of a marked error is left untouched so it can be shown to users.
package apperr

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidArgument marks validation failures. They are reported before
	// any request is sent to the search backend.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBackendUnavailable marks failures of the search backend or of the
	// permission and view stores. They are never retried by this layer.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// InvalidArgument returns an error carrying exactly msg, marked as ErrInvalidArgument.
func InvalidArgument(msg string) error {
	return errors.Mark(errors.NewWithDepth(1, msg), ErrInvalidArgument)
}

// InvalidArgumentf is InvalidArgument with formatting.
func InvalidArgumentf(format string, args ...any) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrInvalidArgument)
}

// BackendUnavailable wraps err once and marks it as ErrBackendUnavailable.
// Errors that are already marked are returned unchanged.
func BackendUnavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendUnavailable) || errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return errors.Mark(errors.Wrap(err, op), ErrBackendUnavailable)
}

// IsInvalidArgument reports whether err is a validation failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsBackendUnavailable reports whether err is a backend failure.
func IsBackendUnavailable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}
