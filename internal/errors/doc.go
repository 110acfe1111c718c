// Package errors provides typed errors with exit codes for aoe-ctl.
//
// # Error Types
//
// AoeError is the base error type that wraps an error with an exit code:
//
//	type AoeError struct {
//	    Code    int    // Exit code
//	    Message string // User-facing message
//	    Detail  string // Captured command output, if any
//	    Cause   error  // Wrapped error
//	}
//
// # Exit Codes
//
// Defined exit codes for different error categories:
//
//	ExitSuccess             = 0  // Success
//	ExitGeneralError        = 1  // General/unknown errors
//	ExitSessionNotFound     = 2  // tmux session does not exist
//	ExitRuntimeNotInstalled = 3  // docker / docker compose unavailable
//	ExitCommandFailed       = 4  // External command exited non-zero
//	ExitOverlayWriteFailed  = 5  // Compose overlay could not be written
//	ExitIOError             = 6  // Other file system failure
//	ExitConfigError         = 7  // Configuration error
//
// # Error Constructors
//
// Use the provided constructors for consistent error creation:
//
//	errors.SessionNotFound("aoe_title_abcd1234")
//	errors.RuntimeNotInstalled("docker compose")
//	errors.CommandFailed("docker compose up", stderr)
//	errors.OverlayWriteFailed(path, err)
//
// # Matching Kinds
//
// Each kind has a sentinel value; errors.Is compares exit codes:
//
//	if errors.Is(err, errors.ErrRuntimeNotInstalled) {
//	    // suggest installing docker
//	}
//
// # Extracting Exit Codes
//
// Use GetExitCode to extract the exit code from an error chain:
//
//	if err != nil {
//	    os.Exit(errors.GetExitCode(err))
//	}
package errors
