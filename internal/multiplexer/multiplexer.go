// Package multiplexer drives the tmux sessions that host agent panes.
//
// A Session is a cheap value rebuilt per operation from a session id and
// title; its tmux name is derived once by the naming package. Existence
// checks can be served by a SessionCache so that polling many sessions
// costs one `tmux list-sessions` per refresh window instead of one
// `tmux has-session` per session.
package multiplexer

import "context"

// tmuxBinary is the multiplexer executable.
const tmuxBinary = "tmux"

// SessionCache answers existence queries for tmux session names.
type SessionCache interface {
	// Lookup reports whether name exists. ok is false when the cache has no
	// fresh answer and the caller must ask tmux directly.
	Lookup(name string) (exists, ok bool)

	// Refresh reloads the cache from tmux.
	Refresh(ctx context.Context)
}
