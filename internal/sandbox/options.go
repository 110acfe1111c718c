package sandbox

import "github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/runtime"

// LaunchOptions holds all options for starting a session.
type LaunchOptions struct {
	// ID is the durable session id. A random UUID is generated when empty.
	ID string

	// Title names the session; defaults to the project directory name.
	Title string

	// ProjectPath is the host directory the agent works in (required).
	ProjectPath string

	// Tool is the agent tool; defaults to the configured default_tool.
	Tool string

	// Command is the agent argv; defaults to the tool name alone.
	Command []string

	// Sandbox wraps the agent in a container.
	Sandbox bool

	// Mode and Image override the configured sandbox mode and image.
	Mode  runtime.Mode
	Image string
}

// LaunchResult holds the result of a successful launch.
type LaunchResult struct {
	// SessionName is the tmux session name.
	SessionName string

	// PaneCommand is the initial command of the tmux pane.
	PaneCommand string

	// Record is the persisted session record.
	Record *Record
}
