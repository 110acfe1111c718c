// Package logging provides logging utilities for aoe-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("running tmux", "args", args)
//	logging.Warn("docker compose down failed", "project", project, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Starting sandbox %s...", project)
//	logging.UserSuccess("Session %s created", name)
//	logging.UserWarning("Session removed but may still be running in tmux")
//	logging.UserError("Failed to create session: %v", err)
//
// Output destinations:
//   - UserInfo, UserSuccess: stdout
//   - UserWarning, UserError: stderr
//
// Both destinations are package variables (Stdout, Stderr) so tests can
// capture them.
//
// # Status Indicators
//
// User functions prepend status indicators:
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
