package errors

import (
	"errors"
	"fmt"
)

// Exit codes for aoe-ctl
const (
	ExitSuccess             = 0
	ExitGeneralError        = 1
	ExitSessionNotFound     = 2
	ExitRuntimeNotInstalled = 3
	ExitCommandFailed       = 4
	ExitOverlayWriteFailed  = 5
	ExitIOError             = 6
	ExitConfigError         = 7
)

// Sentinel errors for errors.Is matching. Every AoeError whose code
// matches one of these reports Is(sentinel) == true.
var (
	ErrSessionNotFound     = New(ExitSessionNotFound, "session not found")
	ErrRuntimeNotInstalled = New(ExitRuntimeNotInstalled, "container runtime not installed")
	ErrCommandFailed       = New(ExitCommandFailed, "command failed")
	ErrOverlayWriteFailed  = New(ExitOverlayWriteFailed, "overlay write failed")
	ErrIO                  = New(ExitIOError, "i/o error")
	ErrConfig              = New(ExitConfigError, "configuration error")
)

// AoeError is the base error type for aoe-ctl
type AoeError struct {
	Code    int
	Message string
	// Detail carries captured command output for CommandFailed errors.
	Detail string
	Cause  error
}

func (e *AoeError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AoeError) Unwrap() error {
	return e.Cause
}

// Is matches any AoeError with the same exit code, so callers can test
// the error kind against the sentinels.
func (e *AoeError) Is(target error) bool {
	t, ok := target.(*AoeError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ExitCode returns the exit code for this error
func (e *AoeError) ExitCode() int {
	return e.Code
}

// New creates a new AoeError
func New(code int, message string) *AoeError {
	return &AoeError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AoeError
func Wrap(code int, message string, cause error) *AoeError {
	return &AoeError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Common error constructors

// SessionNotFound returns an error for a missing tmux session
func SessionNotFound(name string) *AoeError {
	return New(ExitSessionNotFound, fmt.Sprintf("session not found: %s", name))
}

// RuntimeNotInstalled returns an error when the container tooling is absent
func RuntimeNotInstalled(runtime string) *AoeError {
	return New(ExitRuntimeNotInstalled, fmt.Sprintf("%s is not installed or not available", runtime))
}

// CommandFailed returns an error for an external command that exited non-zero.
// detail is the command's trimmed diagnostic output.
func CommandFailed(op, detail string) *AoeError {
	return &AoeError{
		Code:    ExitCommandFailed,
		Message: fmt.Sprintf("%s failed", op),
		Detail:  detail,
	}
}

// OverlayWriteFailed returns an error naming the overlay path that could not be written
func OverlayWriteFailed(path string, cause error) *AoeError {
	return Wrap(ExitOverlayWriteFailed, fmt.Sprintf("failed to write overlay to %s", path), cause)
}

// IOError returns an error for a file system operation
func IOError(op string, cause error) *AoeError {
	return Wrap(ExitIOError, op, cause)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *AoeError {
	return Wrap(ExitConfigError, message, cause)
}

// ValidationError returns an error for input validation failures
func ValidationError(message string) *AoeError {
	return New(ExitGeneralError, message)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var aoeErr *AoeError
	if errors.As(err, &aoeErr) {
		return aoeErr.ExitCode()
	}
	return ExitGeneralError
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
